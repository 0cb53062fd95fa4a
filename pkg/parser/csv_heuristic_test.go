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

const heuristicCSVSample = `,СберБизнес
,ПАО СБЕРБАНК
""
,ВЫПИСКА ОПЕРАЦИЙ ПО ЛИЦЕВОМУ СЧЕТУ,,,,,,,,,,40702810900000005897
""
""
""
""
,,Российский рубль
""
,Дата проводки,,,Счет,,,,,Сумма по дебету,,,,Сумма по кредиту,№ документа,,ВО,Банк,,,Назначение платежа
,,,,Дебет,,,,Кредит
,15.01.2024,,,,,,,,"1499,50",,,,,401,,,,,,Оплата по договору 1
,20.01.2024,,,,,,,,,,,,"2500,00",402,,,,,,Поступление средств
""
,б/с
,Количество операций,,,,,1,,,1
,Входящий остаток,,,,,"1000,50",,,,,,,,,,,,01 января 2024 г.
,Исходящий остаток,,,,,"2000,00",,,,,,,,,,,,31 января 2024 г.
`

func TestDecodeHeuristicCSV(t *testing.T) {
	p := New(log.Default())

	st, err := p.Decode([]byte(heuristicCSVSample), FormatCSV)
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
		t.Errorf("opening = %.2f %s, want 1000.50 Credit", st.OpeningBalance, st.OpeningIndicator)
	}
	if st.ClosingBalance != 2000.00 {
		t.Errorf("closing = %.2f, want 2000.00", st.ClosingBalance)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !st.OpeningDate.Equal(want) {
		t.Errorf("opening date = %v, want %v (year-only recovery)", st.OpeningDate, want)
	}

	if len(st.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(st.Transactions))
	}

	tx := st.Transactions[0]
	if tx.Type != models.TypeDebit || tx.Amount != 1499.50 {
		t.Errorf("tx[0] = %s %.2f, want Debit 1499.50", tx.Type, tx.Amount)
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !tx.BookingDate.Equal(want) {
		t.Errorf("tx[0] booking date = %v, want %v", tx.BookingDate, want)
	}
	if tx.Reference != "401" || tx.Description != "Оплата по договору 1" {
		t.Errorf("tx[0] reference/description = %q/%q", tx.Reference, tx.Description)
	}

	if st.Transactions[1].Type != models.TypeCredit || st.Transactions[1].Amount != 2500.00 {
		t.Errorf("tx[1] = %s %.2f, want Credit 2500.00",
			st.Transactions[1].Type, st.Transactions[1].Amount)
	}
}

func TestDecodeHeuristicCSVTooShort(t *testing.T) {
	p := New(log.Default())
	if _, err := p.Decode([]byte("a,b\nc,d\n"), FormatCSV); err == nil {
		t.Error("expected error for input below the minimum row count")
	}
}

func TestDecodeHeuristicCSVDebitPrecedence(t *testing.T) {
	// Both amount columns filled: the debit column wins.
	row := `,15.01.2024,,,,,,,,"100,00",,,,"200,00",403,,,,,,Спорная строка`
	input := strings.Replace(heuristicCSVSample, "\n,б/с", "\n"+row+"\n,б/с", 1)

	p := New(log.Default())
	st, err := p.Decode([]byte(input), FormatCSV)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	last := st.Transactions[len(st.Transactions)-1]
	if last.Type != models.TypeDebit || last.Amount != 100.00 {
		t.Errorf("ambiguous row = %s %.2f, want Debit 100.00", last.Type, last.Amount)
	}
}

func TestHeuristicCSVRoundTrip(t *testing.T) {
	p := New(log.Default()).WithCSVLayout(LayoutHeuristic)

	st, err := p.Decode([]byte(heuristicCSVSample), FormatCSV)
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
		t.Error("heuristic encoding is not byte-stable")
	}
}

// A profile may declare fewer output columns than the fixed column offsets
// need; the encoder has to widen rows instead of indexing out of range.
func TestEncodeHeuristicCSVNarrowProfile(t *testing.T) {
	d := DefaultDialect()
	d.OutputColumns = 10

	p := New(log.Default()).WithCSVLayout(LayoutHeuristic).WithDialect(d)

	st, err := New(log.Default()).WithCSVLayout(LayoutHeuristic).Decode([]byte(heuristicCSVSample), FormatCSV)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var buf bytes.Buffer
	if err := p.Encode(st, &buf, FormatCSV); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}
