package parser

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/nimec77/ledger-bridge/pkg/models"
)

// CAMT.053 decoder. The document is walked with a streaming token decoder
// and a path stack; fields are matched by path suffix so namespace prefixes
// and schema-version differences in ancestry do not matter. Balances and
// entries are accumulated in scratch records and committed when their
// element closes.

const (
	camtBalanceOpening = "opbd"
	camtBalanceClosing = "clbd"
	camtCredit         = "crdt"
	camtDebit          = "dbit"
)

type balanceScratch struct {
	code      string
	amount    string
	indicator string
	date      string
}

type entryScratch struct {
	amount       string
	indicator    string
	bookingDate  string
	valueDate    string
	entryRef     string
	txID         string
	unstructured []string
	additional   []string
	structured   string
	debtorName   string
	debtorAcct   string
	creditorName string
	creditorAcct string
}

type camtDecoder struct {
	parser *Parser
	st     *models.Statement
	path   []string
	text   strings.Builder
	bal    *balanceScratch
	entry  *entryScratch

	haveOpening bool
	haveClosing bool
}

func (p *Parser) decodeCAMT053(data []byte) (*models.Statement, error) {
	d := &camtDecoder{parser: p, st: &models.Statement{}}

	dec := xml.NewDecoder(bytes.NewReader(data))
	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, camt053Errorf("malformed XML: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawElement = true
			d.open(t)
		case xml.CharData:
			d.text.Write(t)
		case xml.EndElement:
			d.close()
		}
	}
	if !sawElement {
		return nil, camt053Errorf("no XML content")
	}

	if d.st.AccountNumber == "" {
		return nil, &MissingFieldError{Field: "Stmt/Acct/Id"}
	}
	if d.st.Currency == "" {
		return nil, &MissingFieldError{Field: "Stmt/Acct/Ccy"}
	}
	if !d.haveOpening {
		return nil, &MissingFieldError{Field: "Stmt/Bal[OPBD]"}
	}
	if !d.haveClosing {
		return nil, &MissingFieldError{Field: "Stmt/Bal[CLBD]"}
	}
	return d.st, nil
}

func (d *camtDecoder) open(t xml.StartElement) {
	name := strings.ToLower(t.Name.Local)
	d.path = append(d.path, name)
	d.text.Reset()

	switch name {
	case "bal":
		d.bal = &balanceScratch{}
	case "ntry":
		d.entry = &entryScratch{}
	case "amt":
		for _, attr := range t.Attr {
			if strings.EqualFold(attr.Name.Local, "ccy") {
				d.setCurrency(attr.Value)
			}
		}
	}
}

func (d *camtDecoder) close() {
	value := strings.TrimSpace(d.text.String())
	d.dispatch(value)

	switch d.path[len(d.path)-1] {
	case "bal":
		d.commitBalance()
		d.bal = nil
	case "ntry":
		d.commitEntry()
		d.entry = nil
	}

	d.path = d.path[:len(d.path)-1]
	d.text.Reset()
}

// dispatch routes the closing element's character data by path suffix.
func (d *camtDecoder) dispatch(value string) {
	if value == "" {
		return
	}

	switch {
	case d.at("stmt", "acct", "id", "iban"), d.at("stmt", "acct", "id", "othr", "id"):
		if d.st.AccountNumber == "" {
			d.st.AccountNumber = value
		}
	case d.at("stmt", "acct", "ccy"):
		d.setCurrency(value)
	}

	if d.bal != nil {
		switch {
		case d.at("cdorprtry", "cd"):
			d.bal.code = strings.ToLower(value)
		case d.at("bal", "amt"):
			d.bal.amount = value
		case d.at("bal", "cdtdbtind"):
			d.bal.indicator = strings.ToLower(value)
		case d.at("bal", "dt", "dt"), d.at("bal", "dt", "dttm"):
			d.bal.date = value
		}
		return
	}

	if d.entry == nil {
		return
	}
	switch {
	case d.at("ntry", "amt"):
		d.entry.amount = value
	case d.at("ntry", "cdtdbtind"):
		d.entry.indicator = strings.ToLower(value)
	case d.at("bookgdt", "dt"), d.at("bookgdt", "dttm"):
		d.entry.bookingDate = value
	case d.at("valdt", "dt"), d.at("valdt", "dttm"):
		d.entry.valueDate = value
	case d.at("ntry", "ntryref"):
		d.entry.entryRef = value
	case d.at("refs", "txid"):
		if d.entry.txID == "" {
			d.entry.txID = value
		}
	case d.at("rmtinf", "ustrd"):
		d.entry.unstructured = append(d.entry.unstructured, value)
	case d.at("addtltxinf"):
		d.entry.additional = append(d.entry.additional, value)
	case d.at("strd", "cdtrrefinf", "ref"):
		if d.entry.structured == "" {
			d.entry.structured = value
		}
	case d.at("dbtr", "nm"):
		d.entry.debtorName = value
	case d.at("dbtracct", "id", "iban"), d.at("dbtracct", "id", "othr", "id"):
		d.entry.debtorAcct = value
	case d.at("cdtr", "nm"):
		d.entry.creditorName = value
	case d.at("cdtracct", "id", "iban"), d.at("cdtracct", "id", "othr", "id"):
		d.entry.creditorAcct = value
	}
}

// at reports whether the current path ends with the given suffix.
func (d *camtDecoder) at(suffix ...string) bool {
	if len(d.path) < len(suffix) {
		return false
	}
	offset := len(d.path) - len(suffix)
	for i, name := range suffix {
		if d.path[offset+i] != name {
			return false
		}
	}
	return true
}

// setCurrency keeps the first currency seen anywhere in the document.
func (d *camtDecoder) setCurrency(ccy string) {
	if d.st.Currency == "" && ccy != "" {
		d.st.Currency = strings.ToUpper(ccy)
	}
}

// commitBalance keeps only booked opening and closing balances; interim and
// available balance types are dropped.
func (d *camtDecoder) commitBalance() {
	b := d.bal
	if b.code != camtBalanceOpening && b.code != camtBalanceClosing {
		return
	}

	amount, err := parseAmount(b.amount)
	if err != nil {
		d.parser.logger.Debug("skipping balance", "code", b.code, "error", err)
		return
	}
	date, err := parseDate(b.date)
	if err != nil {
		d.parser.logger.Debug("skipping balance", "code", b.code, "error", err)
		return
	}
	indicator := models.BalanceCredit
	if b.indicator == camtDebit {
		indicator = models.BalanceDebit
	}

	if b.code == camtBalanceOpening {
		d.st.OpeningBalance = amount
		d.st.OpeningDate = date
		d.st.OpeningIndicator = indicator
		d.haveOpening = true
	} else {
		d.st.ClosingBalance = amount
		d.st.ClosingDate = date
		d.st.ClosingIndicator = indicator
		d.haveClosing = true
	}
}

// commitEntry converts the scratch entry to a transaction. Entries missing
// an amount, an indicator, or a booking date are dropped; the rest of the
// statement still parses.
func (d *camtDecoder) commitEntry() {
	e := d.entry
	if e.amount == "" || e.indicator == "" || e.bookingDate == "" {
		d.parser.logger.Debug("skipping incomplete entry", "ref", e.entryRef)
		return
	}

	amount, err := parseAmount(e.amount)
	if err != nil {
		d.parser.logger.Debug("skipping entry", "ref", e.entryRef, "error", err)
		return
	}
	bookingDate, err := parseDate(e.bookingDate)
	if err != nil {
		d.parser.logger.Debug("skipping entry", "ref", e.entryRef, "error", err)
		return
	}

	txType := models.TypeCredit
	if e.indicator == camtDebit {
		txType = models.TypeDebit
	}

	reference := e.txID
	if reference == "" {
		reference = e.entryRef
	}

	parts := append(append([]string{}, e.unstructured...), e.additional...)
	description := strings.Join(parts, " ")
	if description == "" {
		description = e.structured
	}

	// The money's origin names the counterparty: the debtor for money
	// received, the creditor for money paid out. Fall back to the other
	// party when the preferred one is absent.
	name, account := e.debtorName, e.debtorAcct
	other, otherAcct := e.creditorName, e.creditorAcct
	if txType == models.TypeDebit {
		name, account, other, otherAcct = other, otherAcct, name, account
	}
	if name == "" && account == "" {
		name, account = other, otherAcct
	}

	d.st.Transactions = append(d.st.Transactions, models.Transaction{
		BookingDate:         bookingDate,
		ValueDate:           e.valueDate,
		Amount:              amount,
		Type:                txType,
		Description:         description,
		Reference:           reference,
		CounterpartyName:    name,
		CounterpartyAccount: account,
	})
}
