package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

// Heuristic CSV codec for fixed-position bank exports with no reliable
// column headers. Sections are located by scanning for locale marker
// strings; fields are read from the column offsets in the Dialect.

const (
	// minBalanceAmount filters exact-zero placeholder cells during the
	// footer balance scan.
	minBalanceAmount = 0.01

	// Footer dates are recovered year-only from labels like "... 2024 г.".
	minFooterDateLength  = 10
	yearDigits           = 4
	minFooterYear        = 2000
	maxFooterYear        = 2100
	heuristicDateLayout  = "02.01.2006"
	balanceAmountColumn  = 6
	balanceDateColumn    = 18
	debitCountColumn     = 6
	creditCountColumn    = 9
	accountHeaderColumn  = 11
	currencyHeaderColumn = 2
)

func (p *Parser) decodeHeuristicCSV(data []byte) (*models.Statement, error) {
	d := p.dialect

	records, err := readRecords(string(data))
	if err != nil {
		return nil, err
	}
	if len(records) < d.MinLines {
		return nil, csvErrorf("input too short: %d rows, need at least %d", len(records), d.MinLines)
	}

	account, err := findAccountNumber(records, d)
	if err != nil {
		return nil, err
	}
	currency := findCurrency(records, d)

	txStart, footerStart, err := findSections(records, d)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	for i, record := range records[txStart:footerStart] {
		if rowEmpty(record) {
			continue
		}
		tx, err := parseHeuristicRow(record, d)
		if err != nil {
			p.logger.Debug("skipping transaction row", "row", txStart+i, "error", err)
			continue
		}
		transactions = append(transactions, tx)
	}

	openingBalance, openingDate, openingIndicator, err := findBalance(records[footerStart:], d, d.OpeningBalanceLabel)
	if err != nil {
		return nil, csvErrorf("opening balance not found")
	}
	closingBalance, closingDate, closingIndicator, err := findBalance(records[footerStart:], d, d.ClosingBalanceLabel)
	if err != nil {
		return nil, csvErrorf("closing balance not found")
	}

	return &models.Statement{
		AccountNumber:    account,
		Currency:         currency,
		OpeningBalance:   openingBalance,
		OpeningDate:      openingDate,
		OpeningIndicator: openingIndicator,
		ClosingBalance:   closingBalance,
		ClosingDate:      closingDate,
		ClosingIndicator: closingIndicator,
		Transactions:     transactions,
	}, nil
}

// findAccountNumber scans the header rows for the first token made of
// exactly AccountNumberLength consecutive digits.
func findAccountNumber(records [][]string, d Dialect) (string, error) {
	limit := len(records)
	if limit > d.AccountSearchLines {
		limit = d.AccountSearchLines
	}
	for _, record := range records[:limit] {
		for _, field := range record {
			trimmed := strings.TrimSpace(field)
			if len(trimmed) == d.AccountNumberLength && isDigits(trimmed) {
				return trimmed, nil
			}
		}
	}
	return "", csvErrorf("account number not found in header")
}

// findCurrency reads the fixed currency row and matches locale wording.
func findCurrency(records [][]string, d Dialect) string {
	if d.CurrencyLine >= len(records) {
		return d.DefaultCurrency
	}
	for _, field := range records[d.CurrencyLine] {
		lowered := strings.ToLower(strings.TrimSpace(field))
		for _, cw := range d.CurrencyWords {
			if strings.Contains(lowered, cw.Word) {
				return cw.Code
			}
		}
	}
	return d.DefaultCurrency
}

func findSections(records [][]string, d Dialect) (txStart, footerStart int, err error) {
	txStart = -1
	for i, record := range records {
		if rowContains(record, d.TransactionMarker) {
			txStart = i + d.TransactionHeaderSkip
			break
		}
	}
	if txStart < 0 {
		return 0, 0, csvErrorf("transaction section not found (missing %q)", d.TransactionMarker)
	}
	if txStart > len(records) {
		return 0, 0, csvErrorf("transaction section starts past end of input")
	}

	footerStart = len(records)
	for i := txStart; i < len(records); i++ {
		if rowContains(records[i], d.FooterMarker) {
			footerStart = i
			break
		}
	}
	return txStart, footerStart, nil
}

// parseHeuristicRow reads one transaction from fixed column offsets. Debit
// takes precedence over credit when both columns are non-empty.
func parseHeuristicRow(record []string, d Dialect) (models.Transaction, error) {
	field := func(idx int) string {
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	dateStr := field(d.DateColumn)
	if dateStr == "" {
		return models.Transaction{}, fmt.Errorf("empty date field")
	}
	bookingDate, err := parseDate(dateStr)
	if err != nil {
		return models.Transaction{}, err
	}

	debit, err := parseAmount(field(d.DebitColumn))
	if err != nil {
		return models.Transaction{}, err
	}
	credit, err := parseAmount(field(d.CreditColumn))
	if err != nil {
		return models.Transaction{}, err
	}

	var amount float64
	var txType models.TransactionType
	switch {
	case debit > 0:
		amount, txType = debit, models.TypeDebit
	case credit > 0:
		amount, txType = credit, models.TypeCredit
	default:
		return models.Transaction{}, fmt.Errorf("transaction has no amount")
	}

	description := ""
	for i := d.DescriptionSearchStart; i < len(record); i++ {
		if f := field(i); f != "" {
			description = f
			break
		}
	}

	return models.Transaction{
		BookingDate: bookingDate,
		Amount:      amount,
		Type:        txType,
		Description: description,
		Reference:   field(d.ReferenceColumn),
	}, nil
}

// findBalance locates the footer row carrying the label, then scans a
// bounded window of following cells for the first non-zero amount. The sign
// of that cell determines the indicator; the stored magnitude is absolute.
func findBalance(footer [][]string, d Dialect, label string) (float64, time.Time, models.BalanceType, error) {
	for _, record := range footer {
		for i, field := range record {
			if !strings.Contains(strings.ToLower(field), label) {
				continue
			}
			for offset := 1; offset < d.BalanceSearchOffset; offset++ {
				if i+offset >= len(record) {
					break
				}
				amount, err := parseAmount(record[i+offset])
				if err != nil {
					continue
				}
				if amount > -minBalanceAmount && amount < minBalanceAmount {
					continue // placeholder cell
				}

				indicator := models.BalanceCredit
				if amount < 0 {
					indicator = models.BalanceDebit
					amount = -amount
				}

				date, err := footerDate(record, d)
				if err != nil {
					return 0, time.Time{}, "", err
				}
				return amount, date, indicator, nil
			}
		}
	}
	return 0, time.Time{}, "", fmt.Errorf("label %q not found", label)
}

// footerDate recovers a year-resolution date from the locale year suffix
// ("... 2024 г."), searching the row right to left.
func footerDate(record []string, d Dialect) (time.Time, error) {
	for i := len(record) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(record[i])
		if len(trimmed) <= minFooterDateLength || !strings.Contains(strings.ToLower(trimmed), d.YearSuffix) {
			continue
		}

		lastDigit := strings.LastIndexFunc(trimmed, func(r rune) bool { return r >= '0' && r <= '9' })
		if lastDigit < yearDigits-1 {
			continue
		}
		year, err := strconv.Atoi(trimmed[lastDigit-yearDigits+1 : lastDigit+1])
		if err != nil || year < minFooterYear || year > maxFooterYear {
			continue
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("date not found")
}

// encodeHeuristicCSV re-renders the fixed-position layout byte-stable:
// fixed column positions, decimal-comma amounts, locale label text. The
// header is padded so the currency row lands on the dialect's fixed index
// and the first transaction row lands right past the marker skip.
func (p *Parser) encodeHeuristicCSV(st *models.Statement, w io.Writer) error {
	d := p.dialect

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	write := func(record []string) error {
		return writer.Write(record)
	}

	currencyRow := make([]string, currencyHeaderColumn+1)
	currencyRow[currencyHeaderColumn] = st.Currency

	titleRow := make([]string, accountHeaderColumn+1)
	titleRow[1] = d.StatementTitle
	titleRow[accountHeaderColumn] = st.AccountNumber

	header := [][]string{
		{"", d.BankNameShort},
		{"", d.BankNameFull},
		{""},
		titleRow,
		{""},
		{""},
		{""},
		{""},
		currencyRow,
		{""},
		headerColumnsRow(d),
		{"", "", "", "", "Дебет", "", "", "", "Кредит"},
	}
	for _, record := range header {
		if err := write(record); err != nil {
			return csvErrorf("writing header: %v", err)
		}
	}

	for _, tx := range st.Transactions {
		row := rowSized(d.OutputColumns, d.DateColumn, d.DebitColumn, d.CreditColumn, d.ReferenceColumn, d.DescriptionColumn)
		row[d.DateColumn] = tx.BookingDate.Format(heuristicDateLayout)
		switch tx.Type {
		case models.TypeDebit:
			row[d.DebitColumn] = formatAmountComma(tx.Amount)
		case models.TypeCredit:
			row[d.CreditColumn] = formatAmountComma(tx.Amount)
		}
		row[d.ReferenceColumn] = tx.Reference
		row[d.DescriptionColumn] = tx.Description
		if err := write(row); err != nil {
			return csvErrorf("writing transaction row: %v", err)
		}
	}

	debitCount, creditCount := 0, 0
	for _, tx := range st.Transactions {
		if tx.Type == models.TypeDebit {
			debitCount++
		} else {
			creditCount++
		}
	}

	countsRow := make([]string, creditCountColumn+1)
	countsRow[1] = "Количество операций"
	countsRow[debitCountColumn] = strconv.Itoa(debitCount)
	countsRow[creditCountColumn] = strconv.Itoa(creditCount)

	footer := [][]string{
		{""},
		{"", d.FooterMarker},
		countsRow,
		balanceRow(d, d.OpeningBalanceLabel, st.OpeningBalance, st.OpeningIndicator, st.OpeningDate),
		balanceRow(d, d.ClosingBalanceLabel, st.ClosingBalance, st.ClosingIndicator, st.ClosingDate),
	}
	for _, record := range footer {
		if err := write(record); err != nil {
			return csvErrorf("writing footer: %v", err)
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

// rowSized allocates a record long enough for every column a profile may
// place, so a dialect with an undersized OutputColumns cannot make the
// encoder index past the end.
func rowSized(minLen int, cols ...int) []string {
	size := minLen
	for _, c := range cols {
		if c+1 > size {
			size = c + 1
		}
	}
	return make([]string, size)
}

func headerColumnsRow(d Dialect) []string {
	row := rowSized(d.OutputColumns, d.DateColumn, 4, d.DebitColumn, d.CreditColumn, d.ReferenceColumn, 16, 17, d.DescriptionColumn)
	row[d.DateColumn] = "Дата проводки"
	row[4] = "Счет"
	row[d.DebitColumn] = "Сумма по дебету"
	row[d.CreditColumn] = "Сумма по кредиту"
	row[d.ReferenceColumn] = "№ документа"
	row[16] = "ВО"
	row[17] = "Банк"
	row[d.DescriptionColumn] = "Назначение платежа"
	return row
}

func balanceRow(d Dialect, label string, amount float64, indicator models.BalanceType, date time.Time) []string {
	row := make([]string, balanceDateColumn+1)
	row[1] = label

	sign := ""
	if indicator == models.BalanceDebit {
		sign = "-"
	}
	row[balanceAmountColumn] = sign + formatAmountComma(amount)
	// Year-suffixed so the decoder's footer date scan can recover the year.
	row[balanceDateColumn] = date.Format(heuristicDateLayout) + " " + d.YearSuffix
	return row
}

func rowEmpty(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func rowContains(record []string, marker string) bool {
	for _, field := range record {
		if strings.Contains(strings.ToLower(field), marker) {
			return true
		}
	}
	return false
}
