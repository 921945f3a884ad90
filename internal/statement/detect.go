// Package statement turns third-party export files into normalized rows:
// a field-respecting splitter, date and amount normalization, one parser per
// supported export, and a signature-based format detector.
package statement

import (
	"bufio"
	"strings"
)

// Format identifies a supported export family.
type Format string

const (
	// FormatProcessorLedger is a payment-processor activity export.
	FormatProcessorLedger Format = "processor-ledger"
	// FormatMarketplaceEarnings is the current marketplace order-earnings report.
	FormatMarketplaceEarnings Format = "marketplace-earnings"
	// FormatMarketplaceLegacy is the older wide marketplace transaction report.
	FormatMarketplaceLegacy Format = "marketplace-legacy"
)

// IsMarketplace reports whether f is one of the marketplace report layouts.
func (f Format) IsMarketplace() bool {
	return f == FormatMarketplaceEarnings || f == FormatMarketplaceLegacy
}

// signature is a header fragment that identifies a format.
type signature struct {
	format   Format
	fragment string
	prefix   bool // fragment must start the line rather than appear anywhere
}

// signatures in priority order: newest marketplace layout first, then the
// legacy layout, then the processor ledger.
var signatures = []signature{
	{format: FormatMarketplaceEarnings, fragment: "Order creation date,Order number,Item ID", prefix: true},
	{format: FormatMarketplaceLegacy, fragment: "Transaction creation date,Type,Order number", prefix: true},
	{format: FormatProcessorLedger, fragment: "Date,Time,TimeZone,Name"},
}

// maxDetectLines bounds how far into the file detection looks. Legacy
// marketplace reports carry a short preamble before the header.
const maxDetectLines = 20

// Detect selects the format of raw export text.
func Detect(text string) (Format, error) {
	lines := leadingLines(text, maxDetectLines)
	for _, sig := range signatures {
		for _, line := range lines {
			if sig.matches(line) {
				return sig.format, nil
			}
		}
	}
	return "", ErrUnrecognizedFormat
}

func (s signature) matches(line string) bool {
	normalized := normalizeHeader(line)
	if s.prefix {
		return strings.HasPrefix(normalized, s.fragment)
	}
	return strings.Contains(normalized, s.fragment)
}

// normalizeHeader drops quotes and the spaces around delimiters so quoted and
// unquoted headers compare the same.
func normalizeHeader(line string) string {
	line = strings.ReplaceAll(line, `"`, "")
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ",")
}

// leadingLines returns up to n non-empty lines after stripping a BOM.
func leadingLines(text string, n int) []string {
	scanner := bufio.NewScanner(strings.NewReader(StripBOM(text)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() && len(lines) < n {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// findHeader returns the index of the first record whose normalized text
// matches the format's signature, or -1.
func findHeader(records []Record, format Format) int {
	for _, sig := range signatures {
		if sig.format != format {
			continue
		}
		for i, record := range records {
			if sig.matches(strings.Join(record.Fields, ",")) {
				return i
			}
		}
	}
	return -1
}
