package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/asistr/internal/register"
	"github.com/christopherklint97/asistr/internal/store"
)

// parseMonth accepts "", "YYYY-MM" or a natural phrase such as "last month"
// or "2 months ago", resolved against now.
func parseMonth(s string, now time.Time) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), int(now.Month()), nil
	}

	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Year(), int(t.Month()), nil
	}

	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing month %q: %w", s, err)
	}
	return t.Year(), int(t.Month()), nil
}

// noCachedMonthError reports a missing cached month and names the months
// that are cached for the same ficha.
func noCachedMonthError(q register.Query, available []store.CachedRegister) error {
	if len(available) == 0 {
		return fmt.Errorf("no cached register for %s; nothing is cached for this ficha yet", q)
	}
	months := make([]string, len(available))
	for i, r := range available {
		months[i] = fmt.Sprintf("%04d-%02d", r.Year, r.Month)
	}
	return fmt.Errorf("no cached register for %s; cached months: %s", q, strings.Join(months, ", "))
}
