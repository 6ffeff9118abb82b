package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics for one user,
// optionally narrowed to a single campaign.
type CallsSummaryRequest struct {
	UserID     string    `json:"userId"`
	Range      TimeRange `json:"range"`
	CampaignID string    `json:"campaignId,omitempty"`
}

type CallsSummary struct {
	UserID     string `json:"userId"`
	CampaignID string `json:"campaignId,omitempty"`

	TotalCalls      int `json:"totalCalls"`
	CompletedCalls  int `json:"completedCalls"`
	FailedCalls     int `json:"failedCalls"`
	NoAnswerCalls   int `json:"noAnswerCalls"`
	InProgressCalls int `json:"inProgressCalls"`
	PendingCalls    int `json:"pendingCalls"`

	TotalDurationSeconds   int `json:"totalDurationSeconds"`
	AverageDurationSeconds int `json:"averageDurationSeconds"`

	TotalCostMinor int64  `json:"totalCostMinor"`
	Currency       string `json:"currency,omitempty"`

	// SuccessRate is completed over terminal calls, 0..1.
	SuccessRate float64 `json:"successRate"`
}

// DashboardStats is the aggregate block the dashboard home page renders.
type DashboardStats struct {
	Calls CallsSummary `json:"calls"`

	TotalContacts   int `json:"totalContacts"`
	TotalAgents     int `json:"totalAgents"`
	ActiveCampaigns int `json:"activeCampaigns"`
}
