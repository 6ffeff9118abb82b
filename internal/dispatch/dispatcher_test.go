package dispatch

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/voice"
)

type fakeCallStore struct {
	mu       sync.Mutex
	calls    map[string]call.Call
	applyErr error // returned from ApplyEvent when set
}

func newFakeCallStore() *fakeCallStore {
	return &fakeCallStore{calls: map[string]call.Call{}}
}

func (f *fakeCallStore) Create(_ context.Context, c call.Call) (call.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.Status = call.StatusQueued
	f.calls[c.ID] = c
	return c, nil
}

func (f *fakeCallStore) ApplyEvent(_ context.Context, ev call.Event) (call.Call, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return call.Call{}, false, f.applyErr
	}
	c, ok := f.calls[ev.CallID]
	if !ok {
		return call.Call{}, false, call.ErrNotFound
	}
	if !call.CanTransition(c.Status, ev.Status) {
		return c, false, nil
	}
	c.Status = ev.Status
	if ev.ConversationID != "" {
		c.ConversationID = ev.ConversationID
	}
	f.calls[ev.CallID] = c
	return c, true, nil
}

type fakeAgents struct {
	disabled bool
	missing  bool
}

func (f *fakeAgents) GetEnabled(_ context.Context, _, agentID string) (agent.Agent, error) {
	if f.missing {
		return agent.Agent{}, agent.ErrNotFound
	}
	if f.disabled {
		return agent.Agent{}, agent.ErrAgentDisabled
	}
	return agent.Agent{ID: agentID, VoiceID: "v1"}, nil
}

type fakeProvider struct {
	mu      sync.Mutex
	started int
	failFor map[string]bool // phone number -> reject
	failAll bool
}

func (f *fakeProvider) Name() string                        { return "fake" }
func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }
func (f *fakeProvider) FetchRecording(_ context.Context, _ string) (io.ReadCloser, string, error) {
	return nil, "", voice.ErrRecordingNotFound
}

func (f *fakeProvider) StartCall(_ context.Context, req voice.StartCallRequest) (voice.StartCallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failFor[req.PhoneNumber] {
		return voice.StartCallResult{}, voice.ErrCallRejected
	}
	f.started++
	return voice.StartCallResult{ConversationID: "conv-" + req.CallID}, nil
}

func newDispatcher(t *testing.T, store *fakeCallStore, agents *fakeAgents, provider *fakeProvider) *Dispatcher {
	t.Helper()
	d, err := New(store, agents, provider, config.DispatchConfig{PoolSize: 4, QueueSize: 64})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	t.Cleanup(d.Release)
	return d
}

func TestPlaceCall_HappyPath(t *testing.T) {
	store := newFakeCallStore()
	d := newDispatcher(t, store, &fakeAgents{}, &fakeProvider{})

	c, err := d.PlaceCall(context.Background(), PlaceCallRequest{
		UserID: "u", AgentID: "a", PhoneNumber: "+14155550123", ContactName: "Dana",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Status != call.StatusInitiated {
		t.Fatalf("expected initiated, got %s", c.Status)
	}
	if c.ConversationID == "" {
		t.Fatalf("expected conversation id")
	}
}

func TestPlaceCall_RejectsBadPhoneWithoutRow(t *testing.T) {
	store := newFakeCallStore()
	d := newDispatcher(t, store, &fakeAgents{}, &fakeProvider{})

	_, err := d.PlaceCall(context.Background(), PlaceCallRequest{
		UserID: "u", AgentID: "a", PhoneNumber: "bogus",
	})
	if !errors.Is(err, call.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("rejected request must not create a call row")
	}
}

func TestPlaceCall_RejectsDisabledAgent(t *testing.T) {
	store := newFakeCallStore()
	d := newDispatcher(t, store, &fakeAgents{disabled: true}, &fakeProvider{})

	_, err := d.PlaceCall(context.Background(), PlaceCallRequest{
		UserID: "u", AgentID: "a", PhoneNumber: "+14155550123",
	})
	if !errors.Is(err, agent.ErrAgentDisabled) {
		t.Fatalf("expected ErrAgentDisabled, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("rejected request must not create a call row")
	}
}

func TestPlaceCall_ProviderFailureSettlesCallFailed(t *testing.T) {
	store := newFakeCallStore()
	d := newDispatcher(t, store, &fakeAgents{}, &fakeProvider{failAll: true})

	c, err := d.PlaceCall(context.Background(), PlaceCallRequest{
		UserID: "u", AgentID: "a", PhoneNumber: "+14155550123",
	})
	if err != nil {
		t.Fatalf("provider failure must not be an API error, got %v", err)
	}
	if c.Status != call.StatusFailed {
		t.Fatalf("expected failed, got %s", c.Status)
	}
}

func TestPlaceCall_StorageFailureAfterAcceptReturnsRow(t *testing.T) {
	store := newFakeCallStore()
	store.applyErr = errors.New("db down")
	d := newDispatcher(t, store, &fakeAgents{}, &fakeProvider{})

	// The provider accepted the call but recording the outcome failed. The
	// partial row must come back with the error so the caller knows a live
	// call exists instead of treating the contact as rejected.
	c, err := d.PlaceCall(context.Background(), PlaceCallRequest{
		UserID: "u", AgentID: "a", PhoneNumber: "+14155550123",
	})
	if err == nil {
		t.Fatalf("expected storage error")
	}
	if c.ID == "" {
		t.Fatalf("expected the created call row alongside the error")
	}
	if _, ok := store.calls[c.ID]; !ok {
		t.Fatalf("call row should exist in the store")
	}
}

func TestPlaceBatch_CountsSumToInput(t *testing.T) {
	store := newFakeCallStore()
	provider := &fakeProvider{failFor: map[string]bool{"+14155550100": true}}
	d := newDispatcher(t, store, &fakeAgents{}, provider)

	contacts := []contact.Contact{
		{ID: "c1", Name: "A", PhoneNumber: "+14155550100"}, // provider rejects
		{ID: "c2", Name: "B", PhoneNumber: "+14155550101"},
		{ID: "c3", Name: "C", PhoneNumber: "invalid"}, // validation fails
		{ID: "c4", Name: "D", PhoneNumber: "+14155550103"},
		{ID: "c5", Name: "E", PhoneNumber: "+14155550104"},
	}
	res, err := d.PlaceBatch(context.Background(), "u", "a", contacts)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Initiated+res.Failed != len(contacts) {
		t.Fatalf("counts must sum to input: %+v", res)
	}
	if res.Initiated != 3 || res.Failed != 2 {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

func TestPlaceBatch_UnknownAgentRejectsWholeBatch(t *testing.T) {
	store := newFakeCallStore()
	d := newDispatcher(t, store, &fakeAgents{missing: true}, &fakeProvider{})

	_, err := d.PlaceBatch(context.Background(), "u", "a", []contact.Contact{
		{ID: "c1", Name: "A", PhoneNumber: "+14155550100"},
	})
	if !errors.Is(err, agent.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("no rows expected")
	}
}
