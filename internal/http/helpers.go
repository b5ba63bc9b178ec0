package http

import (
	"net/http"
	"strings"

	"cuentas/internal/core"
)

// parseWindow reads the optional start/end query parameters. Both absent
// means nil (caller decides the default); one without the other, a bad
// date, or end before start is a validation error.
func parseWindow(r *http.Request) (*core.DateRange, error) {
	startStr := strings.TrimSpace(r.URL.Query().Get("start"))
	endStr := strings.TrimSpace(r.URL.Query().Get("end"))

	if startStr == "" && endStr == "" {
		return nil, nil
	}
	if startStr == "" || endStr == "" {
		return nil, core.Validationf("start and end must be provided together")
	}

	start, err := core.ParseDate(startStr)
	if err != nil {
		return nil, core.Validationf("invalid start date: " + startStr)
	}
	end, err := core.ParseDate(endStr)
	if err != nil {
		return nil, core.Validationf("invalid end date: " + endStr)
	}

	window := &core.DateRange{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return window, nil
}

// parseKind reads the optional kind filter. Empty means all kinds.
func parseKind(r *http.Request) core.AccountKind {
	return core.AccountKind(strings.TrimSpace(r.URL.Query().Get("kind")))
}

// sanitizeInput trims whitespace and removes control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
