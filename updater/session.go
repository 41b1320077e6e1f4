package updater

import "time"

// Status is the lifecycle state of a batch run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// VendorResult is the outcome for one vendor within a run. A failed vendor
// always reports zero items updated.
type VendorResult struct {
	VendorID     string        `json:"vendor_id"`
	VendorName   string        `json:"vendor_name"`
	Success      bool          `json:"success"`
	ItemsUpdated int           `json:"items_updated"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Session tracks one batch run in memory. TotalVendors is the number of
// vendors the run actually processes, after the per-run cap.
type Session struct {
	ID           string         `json:"id"`
	Status       Status         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at,omitzero"`
	TotalVendors int            `json:"total_vendors"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	ItemsUpdated int            `json:"items_updated"`
	Results      []VendorResult `json:"results"`
	Error        string         `json:"error,omitempty"`

	// CurrentVendor names the vendor being processed right now. Empty
	// between vendors and after the run finishes.
	CurrentVendor string `json:"current_vendor,omitempty"`
}

// clone returns a deep copy so callers never observe a session the run
// loop is still appending to.
func (s *Session) clone() Session {
	out := *s
	out.Results = append([]VendorResult(nil), s.Results...)
	return out
}
