// Package export appends report snapshots to a Google spreadsheet so the
// accounting team keeps a history outside the service.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cuentas/internal/core"
	"cuentas/internal/report"
)

// SheetsExporter writes one spreadsheet row per report snapshot.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Options configures the exporter. Exactly one of CredentialsJSON or
// CredentialsFile must be set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func NewSheetsExporter(ctx context.Context, opts Options) (*SheetsExporter, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	var credentials []byte
	switch {
	case opts.CredentialsJSON != "":
		credentials = []byte(opts.CredentialsJSON)
	case opts.CredentialsFile != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
	}, nil
}

// AppendSnapshot appends one summary row: generation time, report kind, the
// window and the aggregate figures. Amounts go out as decimal strings so the
// spreadsheet never sees binary floats.
func (e *SheetsExporter) AppendSnapshot(ctx context.Context, kind core.ReportKind, rep *report.Report, generatedAt string) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		generatedAt,
		string(kind),
		rep.Window.Start.String(),
		rep.Window.End.String(),
		core.FormatAmount(rep.Summary.Total),
		rep.Summary.Count,
		core.FormatAmount(rep.Summary.Average),
	}}}

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append snapshot row to %s: %w", e.sheetName, err)
	}
	return nil
}
