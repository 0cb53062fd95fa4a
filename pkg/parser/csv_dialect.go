package parser

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dialect describes the fixed-position bank export the heuristic CSV codec
// reads and writes. The offsets and marker strings encode an external
// contract with no schema behind it, so they live here as data: the default
// profile matches the Sberbank business export, and an alternate bank's
// dialect can be loaded from a YAML profile instead of a code change.
type Dialect struct {
	// MinLines is the minimum record count for a structurally valid export.
	MinLines int `yaml:"min_lines"`
	// AccountSearchLines bounds the header scan for the account number.
	AccountSearchLines int `yaml:"account_search_lines"`
	// AccountNumberLength is the exact digit count of an account token.
	AccountNumberLength int `yaml:"account_number_length"`
	// CurrencyLine is the 0-based header row holding the currency wording.
	CurrencyLine int `yaml:"currency_line"`
	// TransactionHeaderSkip is how many rows to skip past the section marker
	// (the header row plus its sub-header).
	TransactionHeaderSkip int `yaml:"transaction_header_skip"`

	// Column offsets within a transaction row.
	DateColumn             int `yaml:"date_column"`
	DebitColumn            int `yaml:"debit_column"`
	CreditColumn           int `yaml:"credit_column"`
	ReferenceColumn        int `yaml:"reference_column"`
	DescriptionSearchStart int `yaml:"description_search_start"`
	DescriptionColumn      int `yaml:"description_column"`
	OutputColumns          int `yaml:"output_columns"`

	// BalanceSearchOffset bounds the forward scan from a balance label to
	// its amount cell.
	BalanceSearchOffset int `yaml:"balance_search_offset"`

	// Locale marker strings, matched case-insensitively as substrings.
	TransactionMarker   string `yaml:"transaction_marker"`
	FooterMarker        string `yaml:"footer_marker"`
	OpeningBalanceLabel string `yaml:"opening_balance_label"`
	ClosingBalanceLabel string `yaml:"closing_balance_label"`
	YearSuffix          string `yaml:"year_suffix"`

	// CurrencyWords maps locale wording substrings to ISO 4217 codes,
	// checked in order. DefaultCurrency applies when no word matches.
	CurrencyWords   []CurrencyWord `yaml:"currency_words"`
	DefaultCurrency string         `yaml:"default_currency"`

	// Output header text, needed to re-render the layout byte-stable.
	BankNameShort  string `yaml:"bank_name_short"`
	BankNameFull   string `yaml:"bank_name_full"`
	StatementTitle string `yaml:"statement_title"`
}

type CurrencyWord struct {
	Word string `yaml:"word"`
	Code string `yaml:"code"`
}

// DefaultDialect is the Sberbank business-account CSV export profile.
func DefaultDialect() Dialect {
	return Dialect{
		MinLines:              12,
		AccountSearchLines:    10,
		AccountNumberLength:   20,
		CurrencyLine:          8,
		TransactionHeaderSkip: 2,

		DateColumn:             1,
		DebitColumn:            9,
		CreditColumn:           13,
		ReferenceColumn:        14,
		DescriptionSearchStart: 18,
		DescriptionColumn:      20,
		OutputColumns:          21,

		BalanceSearchOffset: 15,

		TransactionMarker:   "дата проводки",
		FooterMarker:        "б/с",
		OpeningBalanceLabel: "входящий остаток",
		ClosingBalanceLabel: "исходящий остаток",
		YearSuffix:          "г.",

		CurrencyWords: []CurrencyWord{
			{Word: "российский рубль", Code: "RUB"},
			{Word: "рубль", Code: "RUB"},
			{Word: "доллар", Code: "USD"},
			{Word: "usd", Code: "USD"},
			{Word: "евро", Code: "EUR"},
			{Word: "eur", Code: "EUR"},
		},
		DefaultCurrency: "RUB",

		BankNameShort:  "СберБизнес",
		BankNameFull:   "ПАО СБЕРБАНК",
		StatementTitle: "ВЫПИСКА ОПЕРАЦИЙ ПО ЛИЦЕВОМУ СЧЕТУ",
	}
}

// LoadDialect reads a YAML profile over the default dialect, so a profile
// only needs to name the fields it changes.
func LoadDialect(path string) (Dialect, error) {
	dialect := DefaultDialect()

	data, err := os.ReadFile(path)
	if err != nil {
		return dialect, fmt.Errorf("reading dialect profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &dialect); err != nil {
		return dialect, fmt.Errorf("parsing dialect profile %s: %w", path, err)
	}
	return dialect, nil
}
