package statement

import (
	"fmt"
	"strings"
	"time"
)

// IsoDate is the normalized date layout.
const IsoDate = "2006-01-02"

var dateLayouts = []string{
	"01/02/2006", // MM/DD/YYYY
	"1/2/2006",   // M/D/YYYY
	"02-Jan-06",  // DD-Mon-YY
	"2-Jan-06",   // D-Mon-YY
	"02-Jan-2006",
	"Jan 2, 2006", // Mon D, YYYY
	"January 2, 2006",
	"Jan 2 2006",
	IsoDate,
	"2006/01/02",
}

// NormalizeDate converts the human date formats found in exports to
// YYYY-MM-DD. Trailing time-of-day text ("Mar 14, 2024 10:22:01 AM PDT") is
// ignored.
func NormalizeDate(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", fmt.Errorf("empty date string")
	}

	candidates := []string{cleaned}
	if fields := strings.Fields(cleaned); len(fields) > 1 {
		if len(fields) >= 3 {
			candidates = append(candidates, strings.Join(fields[:3], " "))
		}
		candidates = append(candidates, fields[0])
	}

	for _, candidate := range candidates {
		for _, layout := range dateLayouts {
			if date, err := time.Parse(layout, candidate); err == nil {
				return date.Format(IsoDate), nil
			}
		}
	}

	return "", fmt.Errorf("unable to parse date: %s", text)
}
