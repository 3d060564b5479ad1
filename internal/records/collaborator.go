package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gstbook-dev/gstbook/internal/id"
	"github.com/gstbook-dev/gstbook/internal/model"
)

// jsonText accepts a JSON string, number or null.
type jsonText string

func (t *jsonText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = jsonText(s)
		return nil
	}
	*t = jsonText(b)
	return nil
}

// jsonAmount accepts a JSON number, numeric string, empty string or null.
type jsonAmount struct {
	decimal.Decimal
	Valid bool
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	var s jsonText
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*a = jsonAmount{}
		return nil
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return fmt.Errorf("amount %q: %w", str, err)
	}
	*a = jsonAmount{Decimal: d, Valid: true}
	return nil
}

var jsonDateFormats = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseJSONDate(s jsonText) (time.Time, error) {
	str := strings.TrimSpace(string(s))
	if str == "" {
		return time.Time{}, nil
	}
	for _, layout := range jsonDateFormats {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", str)
}

type invoiceRecord struct {
	ID            jsonText   `json:"id"`
	BuyerName     jsonText   `json:"buyer_name"`
	BuyerGST      jsonText   `json:"buyer_gst"`
	ConsigneeName jsonText   `json:"consignee_name"`
	ConsigneeGST  jsonText   `json:"consignee_gst"`
	InvoiceNumber jsonText   `json:"invoice_number"`
	InvoiceDate   jsonText   `json:"invoice_date"`
	Country       jsonText   `json:"country"`
	State         jsonText   `json:"state"`
	Currency      jsonText   `json:"currency"`
	HSNCode       jsonText   `json:"hsn_code"`
	Remark        jsonText   `json:"remark"`
	BaseAmount    jsonAmount `json:"base_amount"`
	CGST          jsonAmount `json:"cgst"`
	SGST          jsonAmount `json:"sgst"`
	IGST          jsonAmount `json:"igst"`
	TaxTotal      jsonAmount `json:"taxtotal"`
	TotalWithGST  jsonAmount `json:"total_with_gst"`
}

// DecodeInvoicesJSON reads a JSON array of invoice records as exported by
// the invoicing backend.
func DecodeInvoicesJSON(r io.Reader) ([]model.Invoice, error) {
	var recs []invoiceRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decoding invoices JSON: %w", err)
	}

	out := make([]model.Invoice, 0, len(recs))
	for i, rec := range recs {
		date, err := parseJSONDate(rec.InvoiceDate)
		if err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i, err)
		}

		inv := model.Invoice{
			ID:        string(rec.ID),
			Number:    string(rec.InvoiceNumber),
			Date:      date,
			Buyer:     model.Party{Name: strings.TrimSpace(string(rec.BuyerName)), TaxID: string(rec.BuyerGST)},
			Consignee: model.Party{Name: strings.TrimSpace(string(rec.ConsigneeName)), TaxID: string(rec.ConsigneeGST)},
			Country:   string(rec.Country),
			State:     string(rec.State),
			Currency:  string(rec.Currency),
			HSNCode:   string(rec.HSNCode),
			Base:      rec.BaseAmount.Decimal,
			Tax: model.TaxBreakdown{
				Central:      rec.CGST.Decimal,
				State:        rec.SGST.Decimal,
				Integrated:   rec.IGST.Decimal,
				TotalTax:     rec.TaxTotal.Decimal,
				TotalWithTax: rec.TotalWithGST.Decimal,
			},
			Remark: string(rec.Remark),
		}
		if _, fy, err := id.ParseInvoiceNumber(inv.Number); err == nil {
			inv.FinancialYear = fy
		}
		if !inv.IsDomestic() && inv.Tax.TotalTax.IsZero() {
			inv.Tax.LUT = true
		}
		if !rec.TotalWithGST.Valid {
			inv.Tax.TotalWithTax = model.RoundUnits(inv.Base.Add(inv.Tax.TotalTax))
		}
		out = append(out, inv)
	}
	return out, nil
}

type transactionRecord struct {
	ID              jsonText   `json:"id"`
	BuyerName       jsonText   `json:"buyer_name"`
	BuyerGST        jsonText   `json:"buyer_gst"`
	DepositAmount   jsonAmount `json:"deposit_amount"`
	OtherType       jsonText   `json:"other_type"`
	OtherNotice     jsonText   `json:"other_notice"`
	OtherName       jsonText   `json:"name"`
	OtherAmount     jsonAmount `json:"other_amount"`
	OtherDate       jsonText   `json:"other_date"`
	CompanyName     jsonText   `json:"company_name"`
	Amount          jsonAmount `json:"amount"`
	TransactionType jsonText   `json:"transaction_type"`
	TransactionDate jsonText   `json:"transaction_date"`
	Notice          jsonText   `json:"notice"`
}

// DecodeTransactionsJSON reads a JSON array mixing buyer deposits,
// other-type and company transactions. The variant is picked from the
// fields present: deposit_amount, other_type or company_name.
func DecodeTransactionsJSON(r io.Reader) ([]model.Transaction, error) {
	var recs []transactionRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decoding transactions JSON: %w", err)
	}

	out := make([]model.Transaction, 0, len(recs))
	for i, rec := range recs {
		t, err := rec.transaction()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (rec transactionRecord) transaction() (model.Transaction, error) {
	t := model.Transaction{
		ID:        string(rec.ID),
		Direction: model.Direction(strings.ToLower(strings.TrimSpace(string(rec.TransactionType)))),
		Note:      string(rec.Notice),
	}

	dateText := rec.TransactionDate
	switch {
	case rec.DepositAmount.Valid:
		t.Kind = model.KindDeposit
		t.Direction = model.DirectionCredit
		t.Counterparty = model.Party{Name: string(rec.BuyerName), TaxID: string(rec.BuyerGST)}
		t.Amount = rec.DepositAmount.Decimal
	case rec.OtherType != "":
		t.Kind = model.KindOther
		t.Category = string(rec.OtherType)
		// the notice names the partner, lender or asset
		name := rec.OtherNotice
		if name == "" {
			name = rec.OtherName
		}
		t.Counterparty = model.Party{Name: string(name)}
		t.Amount = rec.OtherAmount.Decimal
		if !rec.OtherAmount.Valid {
			t.Amount = rec.Amount.Decimal
		}
		if rec.OtherDate != "" {
			dateText = rec.OtherDate
		}
	case rec.CompanyName != "":
		t.Kind = model.KindCompany
		t.Counterparty = model.Party{Name: string(rec.CompanyName)}
		t.Amount = rec.Amount.Decimal
	default:
		return model.Transaction{}, fmt.Errorf("record %q has none of deposit_amount, other_type, company_name", rec.ID)
	}

	date, err := parseJSONDate(dateText)
	if err != nil {
		return model.Transaction{}, err
	}
	t.Date = date
	t.Amount = t.Amount.Abs()
	t = NormalizeTransaction(t)
	if err := CheckTransaction(t); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}
