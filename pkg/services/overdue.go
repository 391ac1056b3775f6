package services

import (
	"slices"
	"sort"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/samber/lo"
	"github.com/vpnda/billing-sync/pkg/models"
)

const (
	// Invoices overdue by more than this many days need escalation
	UrgentAfterDays = 21
	// Invoices overdue by at least this many days need a firm reminder
	ModerateFromDays = 8
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type OverdueInvoice struct {
	models.Invoice
	DaysOverdue int `json:"DaysOverdue"`
}

type OverdueReport struct {
	Overdue  []OverdueInvoice `json:"overdue"`
	Urgent   []OverdueInvoice `json:"urgent"`
	Moderate []OverdueInvoice `json:"moderate"`
	Recent   []OverdueInvoice `json:"recent"`
	// Outstanding amount due on overdue invoices, one entry per currency
	Totals []*money.Money `json:"totals"`
}

// DaysOverdue returns whole days past the due date, never negative. Invoices
// without a due date are never overdue.
func DaysOverdue(inv models.Invoice, now time.Time) int {
	if inv.DueDate.IsZero() || !now.After(inv.DueDate.Time) {
		return 0
	}
	return int(now.Sub(inv.DueDate.Time) / (24 * time.Hour))
}

func isOverdue(inv models.Invoice, now time.Time) bool {
	return inv.IsOutstanding() && DaysOverdue(inv, now) > 0
}

// AnalyzeOverdue picks the outstanding invoices past their due date, most
// overdue first, and buckets them by urgency.
func AnalyzeOverdue(invoices []models.Invoice, now time.Time) (OverdueReport, error) {
	overdue := lo.FilterMap(invoices, func(inv models.Invoice, _ int) (OverdueInvoice, bool) {
		if !isOverdue(inv, now) {
			return OverdueInvoice{}, false
		}
		return OverdueInvoice{Invoice: inv, DaysOverdue: DaysOverdue(inv, now)}, true
	})
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DaysOverdue > overdue[j].DaysOverdue
	})

	totals, err := SumAmounts(lo.Map(overdue, func(o OverdueInvoice, _ int) models.Amount {
		return o.DueAmount()
	}))
	if err != nil {
		return OverdueReport{}, err
	}

	return OverdueReport{
		Overdue: overdue,
		Urgent: lo.Filter(overdue, func(o OverdueInvoice, _ int) bool {
			return o.DaysOverdue > UrgentAfterDays
		}),
		Moderate: lo.Filter(overdue, func(o OverdueInvoice, _ int) bool {
			return o.DaysOverdue >= ModerateFromDays && o.DaysOverdue <= UrgentAfterDays
		}),
		Recent: lo.Filter(overdue, func(o OverdueInvoice, _ int) bool {
			return o.DaysOverdue < ModerateFromDays
		}),
		Totals: totals,
	}, nil
}

type CustomerHistory struct {
	Contact         string         `json:"contact"`
	TotalInvoices   int            `json:"totalInvoices"`
	PaidInvoices    int            `json:"paidInvoices"`
	OverdueInvoices int            `json:"overdueInvoices"`
	PaymentRate     float64        `json:"paymentRate"`
	Risk            RiskLevel      `json:"risk"`
	Totals          []*money.Money `json:"totals"`
	OverdueTotals   []*money.Money `json:"overdueTotals"`
}

// CustomerRisk summarises one contact's payment behaviour. More than two
// overdue invoices is high risk, any overdue invoice is medium.
func CustomerRisk(invoices []models.Invoice, contact string, now time.Time) (CustomerHistory, error) {
	mine := lo.Filter(invoices, func(inv models.Invoice, _ int) bool {
		return inv.Contact.Name == contact || (inv.Contact.ContactID != "" && inv.Contact.ContactID == contact)
	})
	history := CustomerHistory{
		Contact:       contact,
		TotalInvoices: len(mine),
		Risk:          RiskLow,
	}
	if len(mine) == 0 {
		return history, nil
	}

	overdue := lo.Filter(mine, func(inv models.Invoice, _ int) bool {
		return isOverdue(inv, now)
	})
	history.OverdueInvoices = len(overdue)
	history.PaidInvoices = lo.CountBy(mine, func(inv models.Invoice) bool {
		return inv.Status == models.InvoiceStatusPaid
	})
	history.PaymentRate = float64(history.PaidInvoices) / float64(history.TotalInvoices)

	switch {
	case history.OverdueInvoices > 2:
		history.Risk = RiskHigh
	case history.OverdueInvoices > 0:
		history.Risk = RiskMedium
	}

	var err error
	history.Totals, err = SumAmounts(lo.Map(mine, func(inv models.Invoice, _ int) models.Amount {
		return inv.TotalAmount()
	}))
	if err != nil {
		return CustomerHistory{}, err
	}
	history.OverdueTotals, err = SumAmounts(lo.Map(overdue, func(inv models.Invoice, _ int) models.Amount {
		return inv.DueAmount()
	}))
	if err != nil {
		return CustomerHistory{}, err
	}
	return history, nil
}

// SumAmounts adds amounts per currency, ordered by currency code.
func SumAmounts(amounts []models.Amount) ([]*money.Money, error) {
	byCurrency := lo.GroupBy(amounts, func(a models.Amount) string {
		return a.Currency
	})
	codes := lo.Keys(byCurrency)
	slices.Sort(codes)

	totals := make([]*money.Money, 0, len(codes))
	for _, code := range codes {
		total := money.New(0, code)
		for _, a := range byCurrency[code] {
			m, err := a.ToMoney()
			if err != nil {
				return nil, err
			}
			if total, err = total.Add(m); err != nil {
				return nil, err
			}
		}
		totals = append(totals, total)
	}
	return totals, nil
}
