// Package worker runs the periodic report snapshot loop: build both report
// kinds for the current month, publish the summaries and optionally append
// them to a spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cuentas/internal/amqp"
	"cuentas/internal/core"
	"cuentas/internal/report"
)

// SnapshotPublisher is satisfied by the AMQP client.
type SnapshotPublisher interface {
	PublishReportSnapshot(ctx context.Context, msg *amqp.ReportSnapshotMessage) error
}

// SnapshotExporter is satisfied by the Sheets exporter.
type SnapshotExporter interface {
	AppendSnapshot(ctx context.Context, kind core.ReportKind, rep *report.Report, generatedAt string) error
}

type SnapshotWorker struct {
	engine    *report.Engine
	publisher SnapshotPublisher
	exporter  SnapshotExporter
}

// NewSnapshotWorker builds a worker. Publisher and exporter may each be nil;
// the corresponding step is skipped.
func NewSnapshotWorker(engine *report.Engine, publisher SnapshotPublisher, exporter SnapshotExporter) *SnapshotWorker {
	return &SnapshotWorker{
		engine:    engine,
		publisher: publisher,
		exporter:  exporter,
	}
}

// Run takes one snapshot immediately, then one per interval until the
// context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context, interval time.Duration) {
	if err := w.Snapshot(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup snapshot failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Snapshot(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic snapshot failed", "error", err)
			}
		}
	}
}

// Snapshot builds and distributes both report kinds. A failure on one kind
// does not block the other.
func (w *SnapshotWorker) Snapshot(ctx context.Context) error {
	var errs []error
	for _, kind := range []core.ReportKind{core.ReportIncome, core.ReportExpense} {
		if err := w.snapshotKind(ctx, kind); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("snapshot: %v", errs)
	}
	return nil
}

func (w *SnapshotWorker) snapshotKind(ctx context.Context, kind core.ReportKind) error {
	rep, err := w.engine.Build(ctx, kind, nil, report.DefaultSortKey(kind))
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	msg := amqp.NewReportSnapshotMessage(kind, rep.Window, rep.Summary)

	slog.InfoContext(ctx, "Report snapshot built",
		"report_kind", kind,
		"window_start", msg.WindowStart,
		"window_end", msg.WindowEnd,
		"total", msg.Total,
		"count", msg.Count)

	if w.publisher != nil {
		if err := w.publisher.PublishReportSnapshot(ctx, msg); err != nil {
			return fmt.Errorf("publish snapshot: %w", err)
		}
	}

	if w.exporter != nil {
		generatedAt := msg.GeneratedAt.UTC().Format(time.RFC3339)
		if err := w.exporter.AppendSnapshot(ctx, kind, rep, generatedAt); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
	}

	return nil
}
