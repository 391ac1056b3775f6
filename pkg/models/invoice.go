package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusDraft      = "DRAFT"
	InvoiceStatusSubmitted  = "SUBMITTED"
	InvoiceStatusAuthorised = "AUTHORISED"
	InvoiceStatusPaid       = "PAID"
	InvoiceStatusVoided     = "VOIDED"
	InvoiceStatusDeleted    = "DELETED"
)

// InvoiceCollection is the invoices payload exactly as the accounting system
// returned it.
type InvoiceCollection struct {
	raw json.RawMessage
}

// NewInvoiceCollection wraps a response body, rejecting anything that is not a
// JSON object.
func NewInvoiceCollection(body []byte) (*InvoiceCollection, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse invoices payload: %w", err)
	}
	return &InvoiceCollection{raw: json.RawMessage(body)}, nil
}

// Raw returns the payload bytes.
func (c *InvoiceCollection) Raw() json.RawMessage {
	return c.raw
}

func (c *InvoiceCollection) MarshalJSON() ([]byte, error) {
	if c == nil || c.raw == nil {
		return []byte("null"), nil
	}
	return c.raw, nil
}

type invoicesEnvelope struct {
	Invoices []Invoice `json:"Invoices"`
}

// Invoices decodes the typed view of every invoice in the payload.
func (c *InvoiceCollection) Invoices() ([]Invoice, error) {
	var env invoicesEnvelope
	if err := json.Unmarshal(c.raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	if env.Invoices == nil {
		return []Invoice{}, nil
	}
	return env.Invoices, nil
}

// Invoice is a typed view over an accounting invoice.
type Invoice struct {
	InvoiceID     string          `json:"InvoiceID"`
	InvoiceNumber string          `json:"InvoiceNumber"`
	Type          string          `json:"Type"`
	Status        string          `json:"Status"`
	Reference     string          `json:"Reference"`
	Contact       Contact         `json:"Contact"`
	CurrencyCode  string          `json:"CurrencyCode"`
	Total         decimal.Decimal `json:"Total"`
	AmountDue     decimal.Decimal `json:"AmountDue"`
	AmountPaid    decimal.Decimal `json:"AmountPaid"`
	Date          XeroDate        `json:"Date"`
	DueDate       XeroDate        `json:"DueDate"`
}

type Contact struct {
	ContactID string `json:"ContactID"`
	Name      string `json:"Name"`
}

func (i Invoice) TotalAmount() Amount {
	return AmountFromDecimal(i.Total, i.CurrencyCode)
}

func (i Invoice) DueAmount() Amount {
	return AmountFromDecimal(i.AmountDue, i.CurrencyCode)
}

// IsOutstanding reports whether the invoice still expects a payment.
func (i Invoice) IsOutstanding() bool {
	switch i.Status {
	case InvoiceStatusPaid, InvoiceStatusVoided, InvoiceStatusDeleted, InvoiceStatusDraft:
		return false
	case InvoiceStatusAuthorised, InvoiceStatusSubmitted:
		return true
	}
	return i.AmountDue.IsPositive()
}

var xeroDatePattern = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// XeroDate decodes both the "/Date(1518685950940+0000)/" form and plain
// ISO timestamps without a zone.
type XeroDate struct {
	time.Time
}

func (d *XeroDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}

	if m := xeroDatePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		loc := time.UTC
		if m[2] != "" && m[2] != "+0000" {
			offset, err := parseZoneOffset(m[2])
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", s, err)
			}
			loc = time.FixedZone(m[2], offset)
		}
		d.Time = time.UnixMilli(ms).In(loc)
		return nil
	}

	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognised date %q", s)
}

func (d XeroDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// parseZoneOffset turns "+1300" into seconds east of UTC.
func parseZoneOffset(z string) (int, error) {
	hours, err := strconv.Atoi(z[1:3])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(z[3:5])
	if err != nil {
		return 0, err
	}
	offset := hours*3600 + minutes*60
	if z[0] == '-' {
		offset = -offset
	}
	return offset, nil
}
