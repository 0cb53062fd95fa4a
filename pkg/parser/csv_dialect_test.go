package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDialect(t *testing.T) {
	d := DefaultDialect()

	if d.MinLines != 12 || d.AccountNumberLength != 20 {
		t.Errorf("structure = %d/%d, want 12/20", d.MinLines, d.AccountNumberLength)
	}
	if d.DebitColumn != 9 || d.CreditColumn != 13 {
		t.Errorf("amount columns = %d/%d, want 9/13", d.DebitColumn, d.CreditColumn)
	}
	if d.DefaultCurrency != "RUB" {
		t.Errorf("default currency = %q, want RUB", d.DefaultCurrency)
	}
	if d.TransactionMarker != "дата проводки" {
		t.Errorf("transaction marker = %q", d.TransactionMarker)
	}
}

func TestLoadDialect(t *testing.T) {
	profile := `account_number_length: 22
default_currency: KZT
bank_name_short: Halyk
`
	path := filepath.Join(t.TempDir(), "halyk.yaml")
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDialect(path)
	if err != nil {
		t.Fatalf("LoadDialect failed: %v", err)
	}

	if d.AccountNumberLength != 22 || d.DefaultCurrency != "KZT" || d.BankNameShort != "Halyk" {
		t.Errorf("overrides not applied: %d/%q/%q",
			d.AccountNumberLength, d.DefaultCurrency, d.BankNameShort)
	}
	// Fields absent from the profile keep their defaults.
	if d.MinLines != 12 || d.DebitColumn != 9 {
		t.Errorf("defaults lost: %d/%d", d.MinLines, d.DebitColumn)
	}
}

func TestLoadDialectErrors(t *testing.T) {
	if _, err := LoadDialect(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing profile")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("min_lines: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDialect(path); err == nil {
		t.Error("expected error for malformed profile")
	}
}
