package amqp

import (
	"testing"

	"github.com/shopspring/decimal"

	"cuentas/internal/core"
)

func TestCategoryEventMessageRoundTrip(t *testing.T) {
	msg := NewCategoryEventMessage("created", "cat-1", "400.1")

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := CategoryEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Action != "created" || decoded.CategoryID != "cat-1" || decoded.Code != "400.1" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestReportSnapshotMessageAmountsAreDecimalStrings(t *testing.T) {
	window := core.DateRange{
		Start: core.NewDate(2026, 8, 1),
		End:   core.NewDate(2026, 8, 29),
	}
	summary := core.ReportSummary{
		Total:   decimal.RequireFromString("390.5"),
		Count:   3,
		Average: decimal.RequireFromString("130.17"),
	}

	msg := NewReportSnapshotMessage(core.ReportIncome, window, summary)

	if msg.Total != "390.50" || msg.Average != "130.17" {
		t.Errorf("amounts = %s / %s, want 390.50 / 130.17", msg.Total, msg.Average)
	}
	if msg.WindowStart != "2026-08-01" || msg.WindowEnd != "2026-08-29" {
		t.Errorf("window = %s..%s", msg.WindowStart, msg.WindowEnd)
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := ReportSnapshotMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != core.ReportIncome || decoded.Count != 3 || decoded.Total != "390.50" {
		t.Errorf("decoded = %+v", decoded)
	}
}
