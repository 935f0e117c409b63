package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var (
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateSplit  = regexp.MustCompile(`[/-]`)
	ctcStripRe = regexp.MustCompile(`[^0-9.]`)
	numPrefix  = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
)

// Tried in order once the ISO and day-first forms have been ruled out.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006.01.02",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
}

// Date returns s as YYYY-MM-DD, or "" when it cannot be understood.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isoDateRe.MatchString(s) {
		return s
	}
	if parts := dateSplit.Split(s, -1); len(parts) == 3 && len(parts[2]) == 4 {
		if iso, ok := dayFirst(parts[0], parts[1], parts[2]); ok {
			return iso
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoLayout)
		}
	}
	return ""
}

func dayFirst(d, m, y string) (string, bool) {
	day, err1 := strconv.Atoi(d)
	month, err2 := strconv.Atoi(m)
	year, err3 := strconv.Atoi(y)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject rollovers like 31/02
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", false
	}
	return t.Format(isoLayout), true
}

// MonthlyCTC strips everything but digits and dots and reads the leading
// number, so "₹ 50,000.50/month" is 50000.5. Unreadable input is nil, not zero.
func MonthlyCTC(s string) *float64 {
	cleaned := ctcStripRe.ReplaceAllString(strings.TrimSpace(s), "")
	num := numPrefix.FindString(cleaned)
	if strings.Trim(num, ".") == "" {
		return nil
	}
	num = strings.TrimSuffix(num, ".")
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil
	}
	return &f
}
