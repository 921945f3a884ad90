package statement

import (
	"strings"

	"github.com/rs/zerolog"

	"shopledger/internal/logger"
	"shopledger/internal/money"
)

// Processor ledger columns (zero-indexed).
const (
	procDate          = 0
	procTime          = 1
	procName          = 3
	procType          = 4
	procStatus        = 5
	procAmount        = 7
	procFee           = 8
	procFromEmail     = 10
	procAddress       = 12
	procTransactionID = 13
	procItemTitle     = 14
	procMinFields     = 15
)

// ProcessorRow is one completed incoming payment from a processor export.
type ProcessorRow struct {
	Line          int    // 1-based file line the row starts on
	Date          string // YYYY-MM-DD
	Time          string
	Name          string
	Email         string
	Type          string
	Status        string
	AmountCents   int64
	FeeCents      int64 // as exported, usually negative
	TransactionID string
	ItemTitle     string
	Address       string
}

// ProcessorParser reads processor ledger exports.
type ProcessorParser struct {
	log zerolog.Logger
}

// NewProcessorParser creates a processor ledger parser.
func NewProcessorParser() *ProcessorParser {
	return &ProcessorParser{log: logger.WithComponent("statement-processor")}
}

// Parse returns the rows with status "Completed", a buyer name and a
// positive amount, in file order.
func (p *ProcessorParser) Parse(text string) ([]ProcessorRow, error) {
	records, err := Records(text)
	if err != nil {
		return nil, &ParseError{Format: FormatProcessorLedger, Err: err}
	}

	header := findHeader(records, FormatProcessorLedger)
	if header < 0 {
		return nil, &ParseError{Format: FormatProcessorLedger, Err: ErrMissingHeader}
	}

	var rows []ProcessorRow
	filtered := 0
	for _, rec := range records[header+1:] {
		line, record := rec.Line, rec.Fields

		if len(record) < procMinFields {
			p.log.Warn().
				Int("line", line).
				Int("columns", len(record)).
				Msg("Skipping processor row with insufficient columns")
			filtered++
			continue
		}

		row, ok := p.parseRow(record, line)
		if !ok {
			filtered++
			continue
		}
		rows = append(rows, row)
	}

	p.log.Debug().
		Int("total_rows", len(records)-header-1).
		Int("usable_rows", len(rows)).
		Int("filtered_rows", filtered).
		Msg("Processor ledger parsed")

	if len(rows) == 0 {
		return nil, &ParseError{Format: FormatProcessorLedger, Err: ErrNoDataRows}
	}
	return rows, nil
}

func (p *ProcessorParser) parseRow(record []string, line int) (ProcessorRow, bool) {
	status := field(record, procStatus)
	name := field(record, procName)
	if !strings.EqualFold(status, "Completed") || name == "" {
		return ProcessorRow{}, false
	}

	amount, err := money.ParseCents(field(record, procAmount))
	if err != nil || amount <= 0 {
		return ProcessorRow{}, false
	}

	fee, err := money.ParseCents(field(record, procFee))
	if err != nil {
		p.log.Warn().Err(err).Int("line", line).Msg("Invalid fee amount, using 0")
		fee = 0
	}

	date, err := NormalizeDate(field(record, procDate))
	if err != nil {
		p.log.Warn().Err(err).Int("line", line).Msg("Skipping processor row with invalid date")
		return ProcessorRow{}, false
	}

	return ProcessorRow{
		Line:          line,
		Date:          date,
		Time:          field(record, procTime),
		Name:          name,
		Email:         field(record, procFromEmail),
		Type:          field(record, procType),
		Status:        status,
		AmountCents:   amount,
		FeeCents:      fee,
		TransactionID: field(record, procTransactionID),
		ItemTitle:     field(record, procItemTitle),
		Address:       field(record, procAddress),
	}, true
}
