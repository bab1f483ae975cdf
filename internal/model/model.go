// Package model holds the durable entities shared by the store, the scrape
// pipeline and the notifier.
package model

import "time"

// Item is one auction listing keyed by its external identifier.
type Item struct {
	ID          int64      `json:"item_id"`
	ExternalID  string     `json:"auction_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Condition   string     `json:"condition,omitempty"`
	Brand       string     `json:"brand,omitempty"`
	Model       string     `json:"model,omitempty"`
	CurrentBid  float64    `json:"current_bid"`
	AuctionEnd  *time.Time `json:"auction_end,omitempty"`
	URL         string     `json:"auction_url"`
	Active      bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ItemRecord is the caller-owned input to an item upsert. Empty optional
// fields leave the stored value untouched on update.
type ItemRecord struct {
	ExternalID  string
	Title       string
	Description string
	Category    string
	Condition   string
	Brand       string
	Model       string
	CurrentBid  float64
	AuctionEnd  *time.Time
	URL         string
}

// BidHistory is an append-only observation of an item's bid.
type BidHistory struct {
	ID         int64     `json:"history_id"`
	ItemID     int64     `json:"item_id"`
	BidAmount  float64   `json:"bid_amount"`
	BidCount   *int      `json:"bid_count,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Recommendation labels attached to a profit analysis.
const (
	RecommendStrongBuy = "strong_buy"
	RecommendBuy       = "buy"
	RecommendWatch     = "watch"
	RecommendPass      = "pass"
)

// ProfitAnalysis is one valuation of an item for a UTC calendar day.
type ProfitAnalysis struct {
	ID              int64     `json:"analysis_id"`
	ItemID          int64     `json:"item_id"`
	EstimatedValue  float64   `json:"estimated_value"`
	CurrentBid      float64   `json:"current_bid"`
	PotentialProfit float64   `json:"potential_profit"`
	NetProfit       float64   `json:"net_profit"`
	ProfitMargin    float64   `json:"profit_margin"`
	ConfidenceScore float64   `json:"confidence_score"`
	Recommendation  string    `json:"recommendation"`
	AnalysisDate    time.Time `json:"analysis_date"`
}

// ItemAnalysis pairs an active item with its latest analysis.
type ItemAnalysis struct {
	Item     Item           `json:"item"`
	Analysis ProfitAnalysis `json:"analysis"`
}

// UrgentItem is a qualifying item ending inside the urgent window.
type UrgentItem struct {
	Item           Item           `json:"item"`
	Analysis       ProfitAnalysis `json:"analysis"`
	HoursRemaining float64        `json:"hours_remaining"`
}

// Watch is an operator-curated watchlist keyword.
type Watch struct {
	ID                 int64     `json:"watch_id"`
	Keyword            string    `json:"keyword"`
	Category           string    `json:"category,omitempty"`
	MinProfitThreshold float64   `json:"min_profit_threshold"`
	MaxBidAmount       *float64  `json:"max_bid_amount,omitempty"`
	Active             bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// SessionStatus is the lifecycle state of a scrape session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionError     SessionStatus = "error"
)

// ScrapeSession is the audit record of one pipeline run.
type ScrapeSession struct {
	ID           int64         `json:"session_id"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	ItemsFound   int           `json:"items_found"`
	ItemsFlagged int           `json:"items_flagged"`
	Status       SessionStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// SessionUpdate carries the fields to change on a session; nil fields are kept.
type SessionUpdate struct {
	EndedAt      *time.Time
	ItemsFound   *int
	ItemsFlagged *int
	Status       *SessionStatus
	ErrorMessage *string
}
