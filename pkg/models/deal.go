package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DealRecord is a deal exactly as the CRM returned it.
type DealRecord = json.RawMessage

// Deal is a typed view over the properties requested from the CRM.
type Deal struct {
	ID         string         `json:"id"`
	Properties DealProperties `json:"properties"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Archived   bool           `json:"archived"`
}

type DealProperties struct {
	DealName   string `json:"dealname"`
	Amount     string `json:"amount"`
	CloseDate  string `json:"closedate"`
	DealStage  string `json:"dealstage"`
	Pipeline   string `json:"pipeline"`
	CreateDate string `json:"createdate"`
}

// ParseDeal decodes the typed view of a deal record.
func ParseDeal(rec DealRecord) (*Deal, error) {
	var d Deal
	if err := json.Unmarshal(rec, &d); err != nil {
		return nil, fmt.Errorf("failed to parse deal: %w", err)
	}
	return &d, nil
}

// Amount returns the deal amount in the given currency. HubSpot stores deal
// amounts as strings without a currency, so the caller supplies it.
func (d *Deal) Amount(currency string) (Amount, error) {
	if d.Properties.Amount == "" {
		return Amount{Currency: currency}, nil
	}
	v, err := decimal.NewFromString(d.Properties.Amount)
	if err != nil {
		return Amount{}, fmt.Errorf("deal %s has invalid amount %q: %w", d.ID, d.Properties.Amount, err)
	}
	return AmountFromDecimal(v, currency), nil
}

// CloseDate parses the close date, returning nil when it is unset.
func (d *Deal) CloseDate() (*time.Time, error) {
	if d.Properties.CloseDate == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, d.Properties.CloseDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse closedate '%s': %w", d.Properties.CloseDate, err)
	}
	return &t, nil
}
