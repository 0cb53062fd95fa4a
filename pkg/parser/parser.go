// Package parser decodes bank account statements from CSV, SWIFT MT940 and
// ISO 20022 CAMT.053 wire formats into the canonical models.Statement, and
// encodes statements back into any of the three. Codecs are stateless per
// call; a Parser may be shared between goroutines.
package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

// Format selects one of the supported wire formats.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatMT940   Format = "mt940"
	FormatCAMT053 Format = "camt053"
)

// ParseFormat maps a user-supplied format selector to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "mt940":
		return FormatMT940, nil
	case "camt053":
		return FormatCAMT053, nil
	default:
		return "", &InvalidFormatError{Format: s}
	}
}

// CSVLayout selects which of the two supported CSV layouts the encoder
// targets. The decoder detects the layout from the input itself.
type CSVLayout string

const (
	// LayoutSimple is the two-section header/data layout with named columns.
	LayoutSimple CSVLayout = "simple"
	// LayoutHeuristic is the fixed-position locale-specific bank export.
	LayoutHeuristic CSVLayout = "heuristic"
)

// ParseCSVLayout maps a user-supplied layout selector to a CSVLayout.
func ParseCSVLayout(s string) (CSVLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple":
		return LayoutSimple, nil
	case "heuristic":
		return LayoutHeuristic, nil
	default:
		return "", &InvalidFieldValueError{Field: "csv layout", Value: s}
	}
}

type Parser struct {
	logger    *log.Logger
	dialect   Dialect
	csvLayout CSVLayout
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger:    logger,
		dialect:   DefaultDialect(),
		csvLayout: LayoutSimple,
	}
}

// WithDialect overrides the heuristic CSV dialect profile.
func (p *Parser) WithDialect(d Dialect) *Parser {
	p.dialect = d
	return p
}

// WithCSVLayout selects the CSV layout targeted by Encode.
func (p *Parser) WithCSVLayout(layout CSVLayout) *Parser {
	p.csvLayout = layout
	return p
}

// Decode parses a complete statement document into the canonical model.
// The whole input is consumed before parsing begins; no partial result is
// ever returned.
func (p *Parser) Decode(data []byte, format Format) (*models.Statement, error) {
	switch format {
	case FormatCSV:
		return p.decodeCSV(data)
	case FormatMT940:
		return p.decodeMT940(data)
	case FormatCAMT053:
		return p.decodeCAMT053(data)
	default:
		return nil, &InvalidFormatError{Format: string(format)}
	}
}

// Encode renders a statement into the selected wire format. Encoders fail
// only on sink I/O errors; a constructed Statement is always encodable.
func (p *Parser) Encode(st *models.Statement, w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		if p.csvLayout == LayoutHeuristic {
			return p.encodeHeuristicCSV(st, w)
		}
		return p.encodeSimpleCSV(st, w)
	case FormatMT940:
		return p.encodeMT940(st, w)
	case FormatCAMT053:
		return p.encodeCAMT053(st, w)
	default:
		return &InvalidFormatError{Format: string(format)}
	}
}

// decodeCSV routes between the two CSV layouts. The simple layout announces
// itself with a named header row; everything else goes through the
// fixed-position heuristic path.
func (p *Parser) decodeCSV(data []byte) (*models.Statement, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, csvErrorf("empty input")
	}
	if looksLikeSimpleLayout(data) {
		p.logger.Debug("detected CSV layout", "layout", LayoutSimple)
		cs, err := p.decodeSimpleCSV(data)
		if err != nil {
			return nil, err
		}
		return cs.Statement()
	}
	p.logger.Debug("detected CSV layout", "layout", LayoutHeuristic)
	return p.decodeHeuristicCSV(data)
}

func looksLikeSimpleLayout(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return strings.HasPrefix(trimmed, "account_number")
	}
	return false
}
