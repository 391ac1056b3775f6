package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vpnda/billing-sync/pkg/config"
	fetchhttp "github.com/vpnda/billing-sync/pkg/http"
	"github.com/vpnda/billing-sync/pkg/http/hubspot"
	"github.com/vpnda/billing-sync/pkg/http/xero"
	"github.com/vpnda/billing-sync/pkg/models"
	"github.com/vpnda/billing-sync/pkg/services"
	"github.com/vpnda/billing-sync/pkg/utils"
)

// errNoInvoices is returned by the CLI only. The invoice fetcher has already
// logged the cause.
var errNoInvoices = errors.New("invoice fetch produced no result, see log for details")

const defaultDealCurrency = "USD"

func newDealsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deals",
		Short: "Fetch deals from HubSpot",
		RunE: func(cmd *cobra.Command, args []string) error {
			hsOpts, err := config.GetHubSpotOptions()
			if err != nil {
				return err
			}
			client := hubspot.NewClient(hsOpts, hubspot.WithHTTPClient(fetchhttp.NewClient(opts.debugHTTP)))

			recorder, closeDB := openRecorder(opts)
			defer closeDB()

			deals, err := recorder.Deals(cmd.Context(), client)
			if err != nil {
				return err
			}
			log.Info().Int("deals", len(deals)).Msg("Deals fetched from HubSpot")

			currency := lo.Ternary(hsOpts.Currency != "", hsOpts.Currency, defaultDealCurrency)
			return render(cmd.OutOrStdout(), opts.output, deals, func(w io.Writer) error {
				return printDeals(w, deals, currency)
			})
		},
	}
}

func printDeals(w io.Writer, records []models.DealRecord, currency string) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No deals found")
		return nil
	}

	fmt.Fprintf(w, "Found %d deals:\n\n", len(records))
	fmt.Fprintf(w, "%-12s %-30s %-22s %15s %-12s\n", "ID", "Deal Name", "Stage", "Amount", "Close Date")
	rule(w, 95)
	for _, rec := range records {
		deal, err := models.ParseDeal(rec)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping deal that could not be displayed")
			continue
		}

		amount := "-"
		if a, err := deal.Amount(currency); err != nil {
			log.Warn().Err(err).Str("deal", deal.ID).Msg("Invalid deal amount")
		} else {
			amount = a.Display()
		}

		closeDate := "-"
		if t, err := deal.CloseDate(); err != nil {
			log.Warn().Err(err).Str("deal", deal.ID).Msg("Invalid close date")
		} else if t != nil {
			closeDate = t.Format(time.DateOnly)
		}

		fmt.Fprintf(w, "%-12s %-30s %-22s %15s %-12s\n",
			utils.Truncate(deal.ID, 12),
			utils.Truncate(deal.Properties.DealName, 30),
			utils.Truncate(utils.Humanize(deal.Properties.DealStage), 22),
			amount,
			closeDate)
	}
	return nil
}

func newXeroClient(opts *rootOptions) (*xero.Client, error) {
	xeroOpts, err := config.GetXeroOptions()
	if err != nil {
		return nil, err
	}
	return xero.NewClient(xeroOpts, xero.WithHTTPClient(fetchhttp.NewClient(opts.debugHTTP))), nil
}

func newInvoicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invoices",
		Short: "Fetch invoices from Xero",
		Long: `Fetch invoices from Xero.

The fetch authenticates with client credentials, resolves the first connected
tenant and lists that tenant's invoices. Failures are logged and the command
exits with an error without printing a partial result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newXeroClient(opts)
			if err != nil {
				return err
			}

			recorder, closeDB := openRecorder(opts)
			defer closeDB()

			collection := recorder.Invoices(cmd.Context(), client)
			if collection == nil {
				return errNoInvoices
			}

			return render(cmd.OutOrStdout(), opts.output, collection, func(w io.Writer) error {
				invoices, err := collection.Invoices()
				if err != nil {
					return err
				}
				printInvoices(w, invoices)
				return nil
			})
		},
	}
}

func formatDate(d models.XeroDate) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(time.DateOnly)
}

func printInvoices(w io.Writer, invoices []models.Invoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(w, "No invoices found")
		return
	}

	fmt.Fprintf(w, "Found %d invoices:\n\n", len(invoices))
	fmt.Fprintf(w, "%-14s %-28s %-12s %-12s %15s %15s\n", "Number", "Contact", "Status", "Due Date", "Total", "Amount Due")
	rule(w, 101)
	for _, inv := range invoices {
		fmt.Fprintf(w, "%-14s %-28s %-12s %-12s %15s %15s\n",
			utils.Truncate(inv.InvoiceNumber, 14),
			utils.Truncate(inv.Contact.Name, 28),
			utils.Humanize(inv.Status),
			formatDate(inv.DueDate),
			inv.TotalAmount().Display(),
			inv.DueAmount().Display())
	}
}

func newOverdueCmd(opts *rootOptions) *cobra.Command {
	var customer string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Analyze overdue invoices from Xero",
		Long: `Fetch invoices from Xero and group the overdue ones by urgency:
urgent (more than 21 days), moderate (8 to 21 days) and recent (up to 7 days).

With --customer, show the payment history and risk level of one contact instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newXeroClient(opts)
			if err != nil {
				return err
			}

			recorder, closeDB := openRecorder(opts)
			defer closeDB()

			collection := recorder.Invoices(cmd.Context(), client)
			if collection == nil {
				return errNoInvoices
			}
			invoices, err := collection.Invoices()
			if err != nil {
				return err
			}

			now := time.Now()
			if customer != "" {
				history, err := services.CustomerRisk(invoices, customer, now)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, history, func(w io.Writer) error {
					printCustomerHistory(w, history)
					return nil
				})
			}

			report, err := services.AnalyzeOverdue(invoices, now)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, report, func(w io.Writer) error {
				printOverdueReport(w, report)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "Contact name or ID to assess")
	return cmd
}

func printOverdueReport(w io.Writer, report services.OverdueReport) {
	if len(report.Overdue) == 0 {
		fmt.Fprintln(w, "No overdue invoices")
		return
	}

	fmt.Fprintf(w, "Found %d overdue invoices\n", len(report.Overdue))
	for _, bucket := range []struct {
		title    string
		invoices []services.OverdueInvoice
	}{
		{"Urgent (more than 21 days)", report.Urgent},
		{"Moderate (8-21 days)", report.Moderate},
		{"Recent (up to 7 days)", report.Recent},
	} {
		if len(bucket.invoices) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", bucket.title)
		fmt.Fprintf(w, "%-14s %-28s %-12s %6s %15s\n", "Number", "Contact", "Due Date", "Days", "Amount Due")
		rule(w, 79)
		for _, inv := range bucket.invoices {
			fmt.Fprintf(w, "%-14s %-28s %-12s %6d %15s\n",
				utils.Truncate(inv.InvoiceNumber, 14),
				utils.Truncate(inv.Contact.Name, 28),
				formatDate(inv.DueDate),
				inv.DaysOverdue,
				inv.DueAmount().Display())
		}
	}

	fmt.Fprintln(w)
	for _, total := range report.Totals {
		fmt.Fprintf(w, "Total overdue %s: %s\n", total.Currency().Code, total.Display())
	}
}

func printCustomerHistory(w io.Writer, h services.CustomerHistory) {
	if h.TotalInvoices == 0 {
		fmt.Fprintf(w, "No invoices found for %s\n", h.Contact)
		return
	}

	fmt.Fprintf(w, "Customer:         %s\n", h.Contact)
	fmt.Fprintf(w, "Risk level:       %s\n", h.Risk)
	fmt.Fprintf(w, "Invoices:         %d\n", h.TotalInvoices)
	fmt.Fprintf(w, "Paid:             %d (%.0f%%)\n", h.PaidInvoices, h.PaymentRate*100)
	fmt.Fprintf(w, "Overdue:          %d\n", h.OverdueInvoices)
	for _, total := range h.Totals {
		fmt.Fprintf(w, "Invoiced %s:     %s\n", total.Currency().Code, total.Display())
	}
	for _, total := range h.OverdueTotals {
		fmt.Fprintf(w, "Overdue %s:      %s\n", total.Currency().Code, total.Display())
	}
}
