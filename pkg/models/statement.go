package models

import "time"

// BalanceType marks whether a balance is a credit (positive) or debit
// (negative) position. The amount itself is always a non-negative magnitude;
// the sign lives here and only here.
type BalanceType string

const (
	BalanceCredit BalanceType = "Credit"
	BalanceDebit  BalanceType = "Debit"
)

// TransactionType marks the direction of a transaction. Incoming money is
// Credit, outgoing is Debit. Transaction amounts are never signed.
type TransactionType string

const (
	TypeCredit TransactionType = "Credit"
	TypeDebit  TransactionType = "Debit"
)

// Transaction is a single statement entry shared by every format.
// Optional fields are zero-valued when the source format does not carry them.
type Transaction struct {
	// BookingDate is when the transaction was posted to the account.
	BookingDate time.Time
	// ValueDate is kept as the source's own text because its format varies
	// per bank export; empty when the source never populates it.
	ValueDate string
	// Amount is always non-negative; direction is Type.
	Amount float64
	Type   TransactionType
	// Description may be the concatenation of several narrative sub-fields.
	Description string
	Reference   string
	// CounterpartyName and CounterpartyAccount are populated only when the
	// source carries related-party data.
	CounterpartyName    string
	CounterpartyAccount string
}

// Statement is the canonical in-memory form of a bank account statement.
// Decoders construct it whole; encoders consume it whole. Transactions keep
// source document order.
type Statement struct {
	// AccountNumber is the bank-assigned identifier; IBAN, local account
	// number or raw digit string depending on the source.
	AccountNumber string
	// Currency is a three-letter ISO 4217 code.
	Currency string

	OpeningBalance   float64
	OpeningDate      time.Time
	OpeningIndicator BalanceType

	ClosingBalance   float64
	ClosingDate      time.Time
	ClosingIndicator BalanceType

	Transactions []Transaction
}
