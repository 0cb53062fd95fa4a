package parser

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

const camt053Namespace = "urn:iso:std:iso:20022:tech:xsd:camt.053.001.02"

const camtDateLayout = "2006-01-02"

// encodeCAMT053 writes the statement as a bank-to-customer statement
// document. Element order is fixed and optional groups are omitted
// entirely, so the same statement always renders the same bytes.
func (p *Parser) encodeCAMT053(st *models.Statement, w io.Writer) error {
	x := &camtWriter{enc: xml.NewEncoder(w)}
	x.enc.Indent("", "  ")

	x.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)})

	doc := xml.StartElement{
		Name: xml.Name{Local: "Document"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: camt053Namespace}},
	}
	x.start(doc)
	x.open("BkToCstmrStmt")

	x.open("GrpHdr")
	x.leaf("MsgId", "STMT-"+st.AccountNumber)
	x.leaf("CreDtTm", st.ClosingDate.Format("2006-01-02T15:04:05"))
	x.close("GrpHdr")

	x.open("Stmt")
	x.leaf("Id", "STMT-"+st.AccountNumber)

	x.open("Acct")
	x.open("Id")
	if looksLikeIBAN(st.AccountNumber) {
		x.leaf("IBAN", st.AccountNumber)
	} else {
		x.open("Othr")
		x.leaf("Id", st.AccountNumber)
		x.close("Othr")
	}
	x.close("Id")
	if st.Currency != "" {
		x.leaf("Ccy", st.Currency)
	}
	x.close("Acct")

	x.balance(st, "OPBD", st.OpeningBalance, st.OpeningIndicator, st.OpeningDate)
	x.balance(st, "CLBD", st.ClosingBalance, st.ClosingIndicator, st.ClosingDate)

	for _, tx := range st.Transactions {
		x.entry(st, tx)
	}

	x.close("Stmt")
	x.close("BkToCstmrStmt")
	x.end(doc)

	if x.err != nil {
		return &IOError{Err: x.err}
	}
	if err := x.enc.Flush(); err != nil {
		return &IOError{Err: err}
	}
	// Encoder indentation leaves no trailing newline.
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

type camtWriter struct {
	enc *xml.Encoder
	err error
}

func (x *camtWriter) token(tok xml.Token) {
	if x.err == nil {
		x.err = x.enc.EncodeToken(tok)
	}
}

func (x *camtWriter) start(el xml.StartElement) { x.token(el) }
func (x *camtWriter) end(el xml.StartElement)   { x.token(el.End()) }

func (x *camtWriter) open(name string) {
	x.token(xml.StartElement{Name: xml.Name{Local: name}})
}

func (x *camtWriter) close(name string) {
	x.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (x *camtWriter) leaf(name, value string) {
	x.open(name)
	x.token(xml.CharData(value))
	x.close(name)
}

func (x *camtWriter) amt(currency, value string) {
	el := xml.StartElement{Name: xml.Name{Local: "Amt"}}
	if currency != "" {
		el.Attr = []xml.Attr{{Name: xml.Name{Local: "Ccy"}, Value: currency}}
	}
	x.start(el)
	x.token(xml.CharData(value))
	x.end(el)
}

func (x *camtWriter) balance(st *models.Statement, code string, amount float64, indicator models.BalanceType, date time.Time) {
	x.open("Bal")
	x.open("Tp")
	x.open("CdOrPrtry")
	x.leaf("Cd", code)
	x.close("CdOrPrtry")
	x.close("Tp")
	x.amt(st.Currency, formatAmount(amount))
	x.leaf("CdtDbtInd", camtIndicator(indicator == models.BalanceCredit))
	x.open("Dt")
	x.leaf("Dt", date.Format(camtDateLayout))
	x.close("Dt")
	x.close("Bal")
}

func (x *camtWriter) entry(st *models.Statement, tx models.Transaction) {
	x.open("Ntry")
	if tx.Reference != "" {
		x.leaf("NtryRef", tx.Reference)
	}
	x.amt(st.Currency, formatAmount(tx.Amount))
	x.leaf("CdtDbtInd", camtIndicator(tx.Type == models.TypeCredit))
	x.open("BookgDt")
	x.leaf("Dt", tx.BookingDate.Format(camtDateLayout))
	x.close("BookgDt")
	if tx.ValueDate != "" {
		x.open("ValDt")
		x.leaf("Dt", tx.ValueDate)
		x.close("ValDt")
	}

	hasParty := tx.CounterpartyName != "" || tx.CounterpartyAccount != ""
	if tx.Reference == "" && tx.Description == "" && !hasParty {
		x.close("Ntry")
		return
	}

	x.open("NtryDtls")
	x.open("TxDtls")
	if tx.Reference != "" {
		x.open("Refs")
		x.leaf("TxId", tx.Reference)
		x.close("Refs")
	}
	if hasParty {
		x.party(tx)
	}
	if tx.Description != "" {
		x.open("RmtInf")
		x.leaf("Ustrd", tx.Description)
		x.close("RmtInf")
	}
	x.close("TxDtls")
	x.close("NtryDtls")
	x.close("Ntry")
}

// party writes the counterparty on the side money came from: the debtor for
// a credit entry, the creditor for a debit entry.
func (x *camtWriter) party(tx models.Transaction) {
	partyName, acctName := "Dbtr", "DbtrAcct"
	if tx.Type == models.TypeDebit {
		partyName, acctName = "Cdtr", "CdtrAcct"
	}

	x.open("RltdPties")
	if tx.CounterpartyName != "" {
		x.open(partyName)
		x.leaf("Nm", tx.CounterpartyName)
		x.close(partyName)
	}
	if tx.CounterpartyAccount != "" {
		x.open(acctName)
		x.open("Id")
		if looksLikeIBAN(tx.CounterpartyAccount) {
			x.leaf("IBAN", tx.CounterpartyAccount)
		} else {
			x.open("Othr")
			x.leaf("Id", tx.CounterpartyAccount)
			x.close("Othr")
		}
		x.close("Id")
		x.close(acctName)
	}
	x.close("RltdPties")
}

func camtIndicator(credit bool) string {
	if credit {
		return "CRDT"
	}
	return "DBIT"
}

// looksLikeIBAN is a shape check only: two letters, two digits, then at
// least eleven more characters.
func looksLikeIBAN(s string) bool {
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return s[2] >= '0' && s[2] <= '9' && s[3] >= '0' && s[3] <= '9'
}
