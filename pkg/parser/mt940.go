package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

// MT940 codec. Decoding works on the text block ({4: ... -}) of a SWIFT
// customer statement message: tags are collected in order, continuation
// lines are joined to the preceding tag, and :61: statement lines pick up
// the positionally following :86: as their description.

const (
	mt940CenturyPivot = 50

	tagTransactionRef = "20"
	tagAccount        = "25"
	tagStatementNo    = "28C"
	tagOpeningFinal   = "60F"
	tagOpeningInterim = "60M"
	tagStatementLine  = "61"
	tagClosingFinal   = "62F"
	tagClosingInterim = "62M"
	tagInformation    = "86"
)

type mt940Field struct {
	tag   string
	value string
}

func (p *Parser) decodeMT940(data []byte) (*models.Statement, error) {
	fields := scanMT940Fields(textBlock(string(data)))
	if len(fields) == 0 {
		return nil, mt940Errorf("no SWIFT tags found")
	}

	st := &models.Statement{}
	haveOpening, haveClosing := false, false

	for i, field := range fields {
		switch field.tag {
		case tagAccount:
			st.AccountNumber = strings.TrimSpace(field.value)
		case tagOpeningFinal, tagOpeningInterim:
			balance, date, indicator, currency, err := parseMT940Balance(field.value)
			if err != nil {
				return nil, mt940Errorf("tag :%s: %v", field.tag, err)
			}
			st.OpeningBalance = balance
			st.OpeningDate = date
			st.OpeningIndicator = indicator
			st.Currency = currency
			haveOpening = true
		case tagClosingFinal, tagClosingInterim:
			balance, date, indicator, _, err := parseMT940Balance(field.value)
			if err != nil {
				return nil, mt940Errorf("tag :%s: %v", field.tag, err)
			}
			st.ClosingBalance = balance
			st.ClosingDate = date
			st.ClosingIndicator = indicator
			haveClosing = true
		case tagStatementLine:
			tx, err := parseMT940StatementLine(field.value)
			if err != nil {
				p.logger.Debug("skipping statement line", "error", err)
				continue
			}
			if i+1 < len(fields) && fields[i+1].tag == tagInformation {
				tx.Description = strings.TrimSpace(fields[i+1].value)
			}
			st.Transactions = append(st.Transactions, tx)
		}
	}

	if st.AccountNumber == "" {
		return nil, &MissingFieldError{Field: ":25: account identification"}
	}
	if !haveOpening {
		return nil, &MissingFieldError{Field: ":60F: opening balance"}
	}
	if !haveClosing {
		return nil, &MissingFieldError{Field: ":62F: closing balance"}
	}
	return st, nil
}

// textBlock returns the content between "{4:" and the trailing "-}" (or a
// bare "}"). When no block structure is present the whole input is treated
// as the text block.
func textBlock(input string) string {
	start := strings.Index(input, "{4:")
	if start < 0 {
		return input
	}
	rest := input[start+len("{4:"):]
	if end := strings.LastIndex(rest, "-}"); end >= 0 {
		return rest[:end]
	}
	trimmed := strings.TrimRight(rest, " \t\r\n")
	if strings.HasSuffix(trimmed, "}") {
		return trimmed[:len(trimmed)-1]
	}
	return rest
}

// scanMT940Fields splits the text block into ordered tag/value pairs. Lines
// that do not start a new tag continue the previous tag's value.
func scanMT940Fields(block string) []mt940Field {
	var fields []mt940Field

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		tag, value, ok := splitMT940Tag(line)
		if ok {
			fields = append(fields, mt940Field{tag: tag, value: value})
			continue
		}
		if len(fields) == 0 {
			continue // preamble before the first tag
		}
		last := &fields[len(fields)-1]
		last.value += "\n" + line
	}
	return fields
}

func splitMT940Tag(line string) (tag, value string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	end := strings.Index(line[1:], ":")
	if end < 0 {
		return "", "", false
	}
	tag = line[1 : 1+end]
	if tag == "" || len(tag) > 3 {
		return "", "", false
	}
	return tag, line[2+end:], true
}

// parseMT940Balance reads the balance grammar: indicator (C or D), YYMMDD
// date, three-letter currency, amount with a decimal comma.
func parseMT940Balance(value string) (float64, time.Time, models.BalanceType, string, error) {
	value = strings.TrimSpace(value)
	if len(value) < 11 {
		return 0, time.Time{}, "", "", fmt.Errorf("balance %q too short", value)
	}

	var indicator models.BalanceType
	switch value[0] {
	case 'C':
		indicator = models.BalanceCredit
	case 'D':
		indicator = models.BalanceDebit
	default:
		return 0, time.Time{}, "", "", &InvalidFieldValueError{Field: "balance indicator", Value: value[:1]}
	}

	date, err := parseMT940Date(value[1:7])
	if err != nil {
		return 0, time.Time{}, "", "", err
	}

	currency := value[7:10]
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return 0, time.Time{}, "", "", &InvalidFieldValueError{Field: "balance currency", Value: currency}
		}
	}

	amount, err := parseAmount(value[10:])
	if err != nil {
		return 0, time.Time{}, "", "", err
	}
	return amount, date, indicator, currency, nil
}

// parseMT940StatementLine reads a :61: line: YYMMDD booking date, optional
// MMDD entry date, C/D mark, amount, and a verbatim trailing reference.
func parseMT940StatementLine(value string) (models.Transaction, error) {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		value = value[:idx]
	}
	if len(value) < 8 {
		return models.Transaction{}, fmt.Errorf("statement line %q too short", value)
	}

	bookingDate, err := parseMT940Date(value[:6])
	if err != nil {
		return models.Transaction{}, err
	}
	rest := value[6:]

	// Entry date (MMDD) carries no year and is not kept.
	if len(rest) >= 5 && isDigits(rest[:4]) {
		rest = rest[4:]
	}

	var txType models.TransactionType
	switch {
	case strings.HasPrefix(rest, "C"):
		txType = models.TypeCredit
	case strings.HasPrefix(rest, "D"):
		txType = models.TypeDebit
	default:
		return models.Transaction{}, &InvalidFieldValueError{Field: "debit/credit mark", Value: rest}
	}
	rest = rest[1:]

	amountEnd := 0
	for amountEnd < len(rest) {
		c := rest[amountEnd]
		if (c < '0' || c > '9') && c != ',' && c != '.' {
			break
		}
		amountEnd++
	}
	if amountEnd == 0 {
		return models.Transaction{}, &MissingFieldError{Field: "statement line amount"}
	}
	amount, err := parseAmount(rest[:amountEnd])
	if err != nil {
		return models.Transaction{}, err
	}

	// The trailing type-code/reference run is kept verbatim; the NTRF-style
	// type code is part of it.
	return models.Transaction{
		BookingDate: bookingDate,
		Amount:      amount,
		Type:        txType,
		Reference:   strings.TrimSpace(rest[amountEnd:]),
	}, nil
}

// parseMT940Date reads a YYMMDD date. Two-digit years below 50 map to the
// 2000s, the rest to the 1900s. Dates that do not exist on the calendar are
// rejected.
func parseMT940Date(s string) (time.Time, error) {
	if len(s) != 6 || !isDigits(s) {
		return time.Time{}, &InvalidFieldValueError{Field: "date", Value: s}
	}
	yy, _ := strconv.Atoi(s[:2])
	month, _ := strconv.Atoi(s[2:4])
	day, _ := strconv.Atoi(s[4:6])

	year := 1900 + yy
	if yy < mt940CenturyPivot {
		year = 2000 + yy
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, &InvalidFieldValueError{Field: "date", Value: s}
	}
	return date, nil
}

// encodeMT940 renders the statement as a complete SWIFT message with a
// synthetic envelope. The envelope identifiers are placeholders carrying no
// statement data; only the text block round-trips.
func (p *Parser) encodeMT940(st *models.Statement, w io.Writer) error {
	var b strings.Builder

	b.WriteString("{1:F01BANKXXXXXX0000000000}{2:I940BANKXXXXXXN}{4:\n")
	fmt.Fprintf(&b, ":%s:STATEMENT\n", tagTransactionRef)
	fmt.Fprintf(&b, ":%s:%s\n", tagAccount, st.AccountNumber)
	fmt.Fprintf(&b, ":%s:1/1\n", tagStatementNo)
	fmt.Fprintf(&b, ":%s:%s\n", tagOpeningFinal, mt940Balance(st.OpeningIndicator, st.OpeningDate, st.Currency, st.OpeningBalance))

	for _, tx := range st.Transactions {
		mark := "C"
		if tx.Type == models.TypeDebit {
			mark = "D"
		}
		fmt.Fprintf(&b, ":%s:%s%s%sNTRF%s\n",
			tagStatementLine, tx.BookingDate.Format("060102"), mark, formatAmountComma(tx.Amount), tx.Reference)
		if tx.Description != "" {
			fmt.Fprintf(&b, ":%s:%s\n", tagInformation, mt940InfoLine(tx.Description))
		}
	}

	fmt.Fprintf(&b, ":%s:%s\n", tagClosingFinal, mt940Balance(st.ClosingIndicator, st.ClosingDate, st.Currency, st.ClosingBalance))
	b.WriteString("-}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

func mt940Balance(indicator models.BalanceType, date time.Time, currency string, amount float64) string {
	mark := "C"
	if indicator == models.BalanceDebit {
		mark = "D"
	}
	return mark + date.Format("060102") + currency + formatAmountComma(amount)
}

// mt940InfoLine flattens the description to a single line so it cannot be
// mistaken for a new tag on re-read.
func mt940InfoLine(desc string) string {
	return strings.Join(strings.Fields(desc), " ")
}
