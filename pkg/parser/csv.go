package parser

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

// CSVStatement is the wire model of the simple CSV layout. Unlike the
// canonical model its dates stay as plain text, because the layout carries
// calendar dates with no time component; Statement() normalizes them.
type CSVStatement struct {
	AccountNumber    string
	Currency         string
	OpeningBalance   float64
	OpeningDate      string
	OpeningIndicator models.BalanceType
	ClosingBalance   float64
	ClosingDate      string
	ClosingIndicator models.BalanceType
	Transactions     []CSVTransaction
}

// CSVTransaction mirrors models.Transaction with string-typed dates.
type CSVTransaction struct {
	BookingDate         string
	ValueDate           string
	Amount              float64
	Type                models.TransactionType
	Description         string
	Reference           string
	CounterpartyName    string
	CounterpartyAccount string
}

var statementColumns = []string{
	"account_number", "currency",
	"opening_balance", "opening_date", "opening_indicator",
	"closing_balance", "closing_date", "closing_indicator",
}

var transactionColumns = []string{
	"booking_date", "value_date", "amount", "transaction_type",
	"description", "reference", "counterparty_name", "counterparty_account",
}

// decodeSimpleCSV parses the two-section layout: a statement header row plus
// one metadata row, then a transaction header row plus zero or more rows.
func (p *Parser) decodeSimpleCSV(data []byte) (*CSVStatement, error) {
	lines := strings.Split(string(data), "\n")

	txHeaderIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "booking_date") {
			txHeaderIdx = i
			break
		}
	}
	if txHeaderIdx < 0 {
		return nil, csvErrorf("missing transaction header row (must start with 'booking_date')")
	}

	statement, err := p.parseStatementSection(strings.Join(lines[:txHeaderIdx], "\n"))
	if err != nil {
		return nil, err
	}

	transactions, err := p.parseTransactionSection(strings.Join(lines[txHeaderIdx:], "\n"))
	if err != nil {
		return nil, err
	}
	statement.Transactions = transactions

	return statement, nil
}

func (p *Parser) parseStatementSection(section string) (*CSVStatement, error) {
	records, err := readRecords(section)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, csvErrorf("missing statement metadata row")
	}

	columns := headerIndex(records[0])
	row := records[1]
	field := func(name string) (string, error) {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return "", &MissingFieldError{Field: name}
		}
		return strings.TrimSpace(row[idx]), nil
	}

	statement := &CSVStatement{}
	for _, name := range statementColumns {
		value, err := field(name)
		if err != nil {
			return nil, err
		}

		switch name {
		case "account_number":
			statement.AccountNumber = value
		case "currency":
			statement.Currency = value
		case "opening_date":
			statement.OpeningDate = value
		case "closing_date":
			statement.ClosingDate = value
		case "opening_balance", "closing_balance":
			amount, err := parseAmount(value)
			if err != nil {
				return nil, &InvalidFieldValueError{Field: name, Value: value}
			}
			if name == "opening_balance" {
				statement.OpeningBalance = amount
			} else {
				statement.ClosingBalance = amount
			}
		case "opening_indicator", "closing_indicator":
			indicator, err := parseBalanceType(value)
			if err != nil {
				return nil, err
			}
			if name == "opening_indicator" {
				statement.OpeningIndicator = indicator
			} else {
				statement.ClosingIndicator = indicator
			}
		}
	}

	return statement, nil
}

func (p *Parser) parseTransactionSection(section string) ([]CSVTransaction, error) {
	records, err := readRecords(section)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, csvErrorf("missing transaction header row")
	}

	columns := headerIndex(records[0])
	var transactions []CSVTransaction
	for i, row := range records[1:] {
		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		amount, err := parseAmount(field("amount"))
		if err != nil {
			p.logger.Debug("skipping transaction row with bad amount", "row", i+1, "value", field("amount"))
			continue
		}
		txType, err := parseTransactionType(field("transaction_type"))
		if err != nil {
			p.logger.Debug("skipping transaction row with bad type", "row", i+1, "value", field("transaction_type"))
			continue
		}
		if field("booking_date") == "" {
			p.logger.Debug("skipping transaction row without booking date", "row", i+1)
			continue
		}

		transactions = append(transactions, CSVTransaction{
			BookingDate:         field("booking_date"),
			ValueDate:           field("value_date"),
			Amount:              amount,
			Type:                txType,
			Description:         field("description"),
			Reference:           field("reference"),
			CounterpartyName:    field("counterparty_name"),
			CounterpartyAccount: field("counterparty_account"),
		})
	}

	return transactions, nil
}

// encodeSimpleCSV writes both sections with their fixed header rows. The
// transaction header is emitted even for an empty statement so decode can
// locate the section boundary.
func (p *Parser) encodeSimpleCSV(st *models.Statement, w io.Writer) error {
	cs := NewCSVStatement(st)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(statementColumns); err != nil {
		return csvErrorf("writing statement header: %v", err)
	}
	if err := writer.Write([]string{
		cs.AccountNumber,
		cs.Currency,
		formatAmount(cs.OpeningBalance),
		cs.OpeningDate,
		string(cs.OpeningIndicator),
		formatAmount(cs.ClosingBalance),
		cs.ClosingDate,
		string(cs.ClosingIndicator),
	}); err != nil {
		return csvErrorf("writing statement row: %v", err)
	}

	if err := writer.Write(transactionColumns); err != nil {
		return csvErrorf("writing transaction header: %v", err)
	}
	for _, tx := range cs.Transactions {
		if err := writer.Write([]string{
			tx.BookingDate,
			tx.ValueDate,
			formatAmount(tx.Amount),
			string(tx.Type),
			tx.Description,
			tx.Reference,
			tx.CounterpartyName,
			tx.CounterpartyAccount,
		}); err != nil {
			return csvErrorf("writing transaction row: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return csvErrorf("flushing output: %v", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

func readRecords(section string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(section))
	reader.FieldsPerRecord = -1 // column counts vary between sections

	records, err := reader.ReadAll()
	if err != nil {
		return nil, csvErrorf("reading records: %v", err)
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func parseBalanceType(s string) (models.BalanceType, error) {
	switch s {
	case string(models.BalanceCredit):
		return models.BalanceCredit, nil
	case string(models.BalanceDebit):
		return models.BalanceDebit, nil
	default:
		return "", &InvalidFieldValueError{Field: "balance_indicator", Value: s}
	}
}

func parseTransactionType(s string) (models.TransactionType, error) {
	switch s {
	case string(models.TypeCredit):
		return models.TypeCredit, nil
	case string(models.TypeDebit):
		return models.TypeDebit, nil
	default:
		return "", &InvalidFieldValueError{Field: "transaction_type", Value: s}
	}
}
