package parser

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

const simpleCSVSample = `account_number,currency,opening_balance,opening_date,opening_indicator,closing_balance,closing_date,closing_indicator
40702810900000005897,RUB,1000.50,2024-01-01,Credit,2500.00,2024-01-31,Credit
booking_date,value_date,amount,transaction_type,description,reference,counterparty_name,counterparty_account
2024-01-15,2024-01-16,1499.50,Credit,Payment for services,REF-1,ACME LLC,40702810123450101230
2024-01-20,,750.00,Debit,Office rent,REF-2,Landlord Ltd,40702810999990005555
`

func TestDecodeSimpleCSV(t *testing.T) {
	p := New(log.Default())

	st, err := p.Decode([]byte(simpleCSVSample), FormatCSV)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if st.AccountNumber != "40702810900000005897" {
		t.Errorf("account = %q, want 40702810900000005897", st.AccountNumber)
	}
	if st.Currency != "RUB" {
		t.Errorf("currency = %q, want RUB", st.Currency)
	}
	if st.OpeningBalance != 1000.50 || st.OpeningIndicator != models.BalanceCredit {
		t.Errorf("opening balance = %.2f %s, want 1000.50 Credit", st.OpeningBalance, st.OpeningIndicator)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !st.OpeningDate.Equal(want) {
		t.Errorf("opening date = %v, want %v", st.OpeningDate, want)
	}
	if st.ClosingBalance != 2500.00 {
		t.Errorf("closing balance = %.2f, want 2500.00", st.ClosingBalance)
	}

	if len(st.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(st.Transactions))
	}

	tx := st.Transactions[0]
	if tx.Amount != 1499.50 || tx.Type != models.TypeCredit {
		t.Errorf("tx[0] = %.2f %s, want 1499.50 Credit", tx.Amount, tx.Type)
	}
	if tx.ValueDate != "2024-01-16" {
		t.Errorf("tx[0] value date = %q, want 2024-01-16", tx.ValueDate)
	}
	if tx.Description != "Payment for services" || tx.Reference != "REF-1" {
		t.Errorf("tx[0] description/reference = %q/%q", tx.Description, tx.Reference)
	}
	if tx.CounterpartyName != "ACME LLC" || tx.CounterpartyAccount != "40702810123450101230" {
		t.Errorf("tx[0] counterparty = %q/%q", tx.CounterpartyName, tx.CounterpartyAccount)
	}

	if st.Transactions[1].ValueDate != "" {
		t.Errorf("tx[1] value date = %q, want empty", st.Transactions[1].ValueDate)
	}
	if st.Transactions[1].Type != models.TypeDebit {
		t.Errorf("tx[1] type = %s, want Debit", st.Transactions[1].Type)
	}
}

func TestDecodeSimpleCSVErrors(t *testing.T) {
	p := New(log.Default())

	if _, err := p.Decode([]byte(""), FormatCSV); err == nil {
		t.Error("expected error for empty input")
	}

	noTxHeader := `account_number,currency,opening_balance,opening_date,opening_indicator,closing_balance,closing_date,closing_indicator
ACC1,EUR,0.00,2024-01-01,Credit,0.00,2024-01-31,Credit
`
	if _, err := p.Decode([]byte(noTxHeader), FormatCSV); err == nil {
		t.Error("expected error when transaction header row is missing")
	}

	badIndicator := strings.Replace(simpleCSVSample, "2024-01-01,Credit", "2024-01-01,CREDITED", 1)
	if _, err := p.Decode([]byte(badIndicator), FormatCSV); err == nil {
		t.Error("expected error for invalid balance indicator")
	}
}

func TestDecodeSimpleCSVSkipsBadRows(t *testing.T) {
	input := simpleCSVSample + "2024-01-25,,not-a-number,Credit,Broken row,REF-3,,\n"

	p := New(log.Default())
	st, err := p.Decode([]byte(input), FormatCSV)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(st.Transactions) != 2 {
		t.Errorf("got %d transactions, want 2 (bad row skipped)", len(st.Transactions))
	}
}

func TestSimpleCSVRoundTrip(t *testing.T) {
	p := New(log.Default())

	st, err := p.Decode([]byte(simpleCSVSample), FormatCSV)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var buf bytes.Buffer
	if err := p.Encode(st, &buf, FormatCSV); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	again, err := p.Decode(buf.Bytes(), FormatCSV)
	if err != nil {
		t.Fatalf("Decode of encoded output failed: %v", err)
	}
	if diff := cmp.Diff(st, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	var second bytes.Buffer
	if err := p.Encode(again, &second, FormatCSV); err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}
	if buf.String() != second.String() {
		t.Error("encoding is not byte-stable")
	}
}

func TestEncodeSimpleCSVEmptyStatement(t *testing.T) {
	st := &models.Statement{
		AccountNumber:    "ACC1",
		Currency:         "EUR",
		OpeningDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		OpeningIndicator: models.BalanceCredit,
		ClosingDate:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		ClosingIndicator: models.BalanceCredit,
	}

	p := New(log.Default())
	var buf bytes.Buffer
	if err := p.Encode(st, &buf, FormatCSV); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !strings.Contains(buf.String(), "booking_date,value_date") {
		t.Error("transaction header row missing for empty statement")
	}

	again, err := p.Decode(buf.Bytes(), FormatCSV)
	if err != nil {
		t.Fatalf("Decode of empty statement failed: %v", err)
	}
	if len(again.Transactions) != 0 {
		t.Errorf("got %d transactions, want 0", len(again.Transactions))
	}
}
