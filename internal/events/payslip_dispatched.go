package events

import "time"

const PayslipDispatchedTopic = "hr.payroll.payslip.dispatched.v1"

const (
	DispatchActionEmail    = "email"
	DispatchActionEmailAll = "email_all"
	DispatchActionDownload = "download"
)

// PayslipDispatchedEvent records a side effect triggered on one payslip (or all of
// them for email_all, where PayslipID is zero).
type PayslipDispatchedEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	PayslipID     int64     `json:"payslip_id,omitempty"`
	Action        string    `json:"action"`
	ActorID       string    `json:"actor_id,omitempty"`
	EligibleCount int       `json:"eligible_count,omitempty"`
	Message       string    `json:"message,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
