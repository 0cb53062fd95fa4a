package parser

import (
	"time"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

// Conversions between the canonical model and the CSV wire model. All three
// formats share the canonical shape, so MT940 and CAMT.053 decode straight
// into models.Statement; only the CSV layout keeps string-typed dates and
// needs normalizing. Every conversion copies field for field: indicators are
// never recomputed from amount signs, amounts and currencies are never
// transformed.

const csvDateLayout = "2006-01-02"

// NewCSVStatement builds the CSV wire model from a canonical statement.
// Dates are rendered as plain calendar dates; the time component is dropped.
func NewCSVStatement(st *models.Statement) *CSVStatement {
	cs := &CSVStatement{
		AccountNumber:    st.AccountNumber,
		Currency:         st.Currency,
		OpeningBalance:   st.OpeningBalance,
		OpeningDate:      st.OpeningDate.Format(csvDateLayout),
		OpeningIndicator: st.OpeningIndicator,
		ClosingBalance:   st.ClosingBalance,
		ClosingDate:      st.ClosingDate.Format(csvDateLayout),
		ClosingIndicator: st.ClosingIndicator,
	}

	for _, tx := range st.Transactions {
		cs.Transactions = append(cs.Transactions, CSVTransaction{
			BookingDate:         tx.BookingDate.Format(csvDateLayout),
			ValueDate:           tx.ValueDate,
			Amount:              tx.Amount,
			Type:                tx.Type,
			Description:         tx.Description,
			Reference:           tx.Reference,
			CounterpartyName:    tx.CounterpartyName,
			CounterpartyAccount: tx.CounterpartyAccount,
		})
	}

	return cs
}

// Statement normalizes the wire model into the canonical one, parsing the
// string-typed dates. Statement-level dates are mandatory; a transaction
// with an unparseable booking date is dropped, matching per-entry tolerance
// everywhere else.
func (cs *CSVStatement) Statement() (*models.Statement, error) {
	openingDate, err := parseDate(cs.OpeningDate)
	if err != nil {
		return nil, &InvalidFieldValueError{Field: "opening_date", Value: cs.OpeningDate}
	}
	closingDate, err := parseDate(cs.ClosingDate)
	if err != nil {
		return nil, &InvalidFieldValueError{Field: "closing_date", Value: cs.ClosingDate}
	}

	st := &models.Statement{
		AccountNumber:    cs.AccountNumber,
		Currency:         cs.Currency,
		OpeningBalance:   cs.OpeningBalance,
		OpeningDate:      openingDate,
		OpeningIndicator: cs.OpeningIndicator,
		ClosingBalance:   cs.ClosingBalance,
		ClosingDate:      closingDate,
		ClosingIndicator: cs.ClosingIndicator,
	}

	for _, tx := range cs.Transactions {
		bookingDate, err := parseDate(tx.BookingDate)
		if err != nil {
			continue
		}
		st.Transactions = append(st.Transactions, models.Transaction{
			BookingDate:         bookingDate,
			ValueDate:           tx.ValueDate,
			Amount:              tx.Amount,
			Type:                tx.Type,
			Description:         tx.Description,
			Reference:           tx.Reference,
			CounterpartyName:    tx.CounterpartyName,
			CounterpartyAccount: tx.CounterpartyAccount,
		})
	}

	return st, nil
}

// truncateToDay drops the time component, the precision every wire format
// here actually carries.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
