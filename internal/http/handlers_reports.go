package http

import (
	"net/http"

	"cuentas/internal/core"
	applog "cuentas/internal/log"
	"cuentas/internal/report"
)

// handleReport serves one report kind. Without a window the movement list is
// unbounded and the numeric views cover the current month; with start and
// end all three views share the window.
func (s *Server) handleReport(kind core.ReportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := parseWindow(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		logger := applog.FromContext(r.Context())

		key := reportCacheKey(kind, window)
		if rep, found := s.reportCache.Get(key); found {
			logger.DebugContext(r.Context(), "Report cache hit", applog.FieldReportKind, kind)
			writeReport(w, rep)
			return
		}

		rep, err := s.engine.Build(r.Context(), kind, window, report.DefaultSortKey(kind))
		if err != nil {
			writeError(w, r, err)
			return
		}

		logger.InfoContext(r.Context(), "Report built",
			applog.FieldReportKind, kind,
			applog.FieldWindowStart, rep.Window.Start.String(),
			applog.FieldWindowEnd, rep.Window.End.String(),
			applog.FieldMovements, len(rep.Movements),
			applog.FieldTotal, core.FormatAmount(rep.Summary.Total))

		s.reportCache.Set(key, rep)
		writeReport(w, rep)
	}
}

func writeReport(w http.ResponseWriter, rep *report.Report) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       rep.Movements,
		DailyStats: rep.DailyStats,
		Summary:    rep.Summary,
	})
}

func reportCacheKey(kind core.ReportKind, window *core.DateRange) string {
	if window == nil {
		return string(kind) + ":current"
	}
	return string(kind) + ":" + window.Start.String() + ":" + window.End.String()
}
