package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const numberPrefix = "INV-"

// PeriodKey returns the YYYYMM numbering bucket for t.
func PeriodKey(t time.Time) string {
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}

// FormatNumber renders an invoice number such as INV-202503-0007.
// Sequences beyond 9999 widen rather than wrap.
func FormatNumber(period string, seq int64) string {
	return fmt.Sprintf("%s%s-%04d", numberPrefix, period, seq)
}

// ParseNumber splits an invoice number into its period and sequence.
func ParseNumber(s string) (period string, seq int64, ok bool) {
	rest, found := strings.CutPrefix(s, numberPrefix)
	if !found {
		return "", 0, false
	}
	period, digits, found := strings.Cut(rest, "-")
	if !found || len(period) != 6 || len(digits) < 4 {
		return "", 0, false
	}
	if _, err := strconv.Atoi(period); err != nil {
		return "", 0, false
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq < 1 {
		return "", 0, false
	}
	return period, seq, true
}
