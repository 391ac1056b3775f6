package models

import (
	"testing"
	"time"
)

func TestParseDeal(t *testing.T) {
	rec := DealRecord(`{
		"id": "101",
		"properties": {
			"dealname": "Annual renewal",
			"amount": "4500.5",
			"closedate": "2025-06-30T00:00:00Z",
			"dealstage": "contractsent",
			"pipeline": "default",
			"createdate": "2025-01-10T09:00:00Z"
		},
		"archived": false
	}`)

	deal, err := ParseDeal(rec)
	if err != nil {
		t.Fatalf("Failed to parse deal: %v", err)
	}
	if deal.ID != "101" {
		t.Errorf("Expected id '101', got '%s'", deal.ID)
	}
	if deal.Properties.DealStage != "contractsent" {
		t.Errorf("Expected stage 'contractsent', got '%s'", deal.Properties.DealStage)
	}

	amount, err := deal.Amount("USD")
	if err != nil {
		t.Fatalf("Failed to get amount: %v", err)
	}
	if amount.Value != "4500.50" {
		t.Errorf("Expected amount '4500.50', got '%s'", amount.Value)
	}

	closeDate, err := deal.CloseDate()
	if err != nil {
		t.Fatalf("Failed to get close date: %v", err)
	}
	if !closeDate.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected close date %v", closeDate)
	}
}

func TestParseDealNullProperties(t *testing.T) {
	deal, err := ParseDeal(DealRecord(`{"id":"7","properties":{"amount":null,"closedate":null}}`))
	if err != nil {
		t.Fatalf("Failed to parse deal: %v", err)
	}

	amount, err := deal.Amount("USD")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !amount.IsZero() {
		t.Errorf("Expected zero amount, got '%s'", amount.Value)
	}

	closeDate, err := deal.CloseDate()
	if err != nil || closeDate != nil {
		t.Errorf("Expected nil close date, got %v (%v)", closeDate, err)
	}
}

func TestParseDealInvalid(t *testing.T) {
	if _, err := ParseDeal(DealRecord(`"nope"`)); err == nil {
		t.Errorf("Expected error for non-object deal")
	}

	deal, err := ParseDeal(DealRecord(`{"id":"8","properties":{"amount":"ten"}}`))
	if err != nil {
		t.Fatalf("Failed to parse deal: %v", err)
	}
	if _, err := deal.Amount("USD"); err == nil {
		t.Errorf("Expected error for invalid amount")
	}
}
