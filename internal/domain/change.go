package domain

import "time"

// ChangeOp names the mutation a ChangeEvent reports.
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// ChangeEvent announces a mutation that the store has acknowledged.
// Record is nil for deletions.
type ChangeEvent struct {
	Op        ChangeOp    `json:"op"`
	RecordID  string      `json:"record_id"`
	Record    *CaseRecord `json:"record,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// NewChangeEvent stamps a change with the current time in UTC.
func NewChangeEvent(op ChangeOp, id string, record *CaseRecord) ChangeEvent {
	return ChangeEvent{
		Op:        op,
		RecordID:  id,
		Record:    record,
		ChangedAt: changeClock.Now().UTC(),
	}
}
