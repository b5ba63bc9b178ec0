package amqp

import (
	"encoding/json"
	"time"

	"cuentas/internal/core"
)

// CategoryEventMessage notifies downstream consumers that the chart of
// accounts changed. Carries only identifiers; consumers fetch the current
// row themselves.
type CategoryEventMessage struct {
	Action     string    `json:"action"` // created | updated | deleted
	CategoryID string    `json:"categoryId"`
	Code       string    `json:"code"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewCategoryEventMessage(action, categoryID, code string) *CategoryEventMessage {
	return &CategoryEventMessage{
		Action:     action,
		CategoryID: categoryID,
		Code:       code,
		Timestamp:  time.Now(),
	}
}

func (m *CategoryEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func CategoryEventMessageFromJSON(data []byte) (*CategoryEventMessage, error) {
	var msg CategoryEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReportSnapshotMessage carries one periodic report summary. Amounts travel
// as decimal strings so no consumer has to round-trip a binary float.
type ReportSnapshotMessage struct {
	Kind        core.ReportKind `json:"kind"`
	WindowStart string          `json:"windowStart"`
	WindowEnd   string          `json:"windowEnd"`
	Total       string          `json:"total"`
	Count       int             `json:"count"`
	Average     string          `json:"average"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

func NewReportSnapshotMessage(kind core.ReportKind, window core.DateRange, summary core.ReportSummary) *ReportSnapshotMessage {
	return &ReportSnapshotMessage{
		Kind:        kind,
		WindowStart: window.Start.String(),
		WindowEnd:   window.End.String(),
		Total:       core.FormatAmount(summary.Total),
		Count:       summary.Count,
		Average:     core.FormatAmount(summary.Average),
		GeneratedAt: time.Now(),
	}
}

func (m *ReportSnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportSnapshotMessageFromJSON(data []byte) (*ReportSnapshotMessage, error) {
	var msg ReportSnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
