package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"voiceagent-platform/internal/config"

	"github.com/cenkalti/backoff/v4"
)

// ConvAIProvider talks to a conversational-AI voice service over HTTP.
//
// Transient failures (5xx, network errors) are retried with capped
// exponential backoff inside the request deadline; 4xx responses are
// permanent rejections and surface immediately.
type ConvAIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var ErrCallRejected = errors.New("voice: call rejected by provider")

func NewConvAIProvider(cfg config.VoiceConfig) *ConvAIProvider {
	return &ConvAIProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (p *ConvAIProvider) Name() string { return "convai" }

func (p *ConvAIProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Xi-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("voice: health check returned %d", resp.StatusCode)
	}
	return nil
}

func (p *ConvAIProvider) StartCall(ctx context.Context, req StartCallRequest) (StartCallResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return StartCallResult{}, err
	}

	var out StartCallResult
	op := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.baseURL+"/v1/convai/outbound-call", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Xi-Api-Key", p.apiKey)

		resp, err := p.client.Do(httpReq)
		if err != nil {
			return err // network error, retryable
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return backoff.Permanent(fmt.Errorf("voice: decode start-call response: %w", err))
			}
			if out.ConversationID == "" {
				return backoff.Permanent(errors.New("voice: provider returned no conversation_id"))
			}
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("voice: provider returned %d", resp.StatusCode)
		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("%w: %d %s", ErrCallRejected, resp.StatusCode, msg))
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 10 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return StartCallResult{}, err
	}
	return out, nil
}

func (p *ConvAIProvider) FetchRecording(ctx context.Context, conversationID string) (io.ReadCloser, string, error) {
	if conversationID == "" {
		return nil, "", errors.New("voice: conversation id required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v1/convai/conversations/"+conversationID+"/audio", nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Xi-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, "", ErrRecordingNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("voice: recording fetch returned %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return resp.Body, ct, nil
}

var ErrRecordingNotFound = errors.New("voice: recording not found")
