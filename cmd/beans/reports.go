package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/beansapp/beans/internal/core/services"
	"github.com/beansapp/beans/internal/export"
	"github.com/google/subcommands"
)

// reportRange parses the shared -start/-end flags into a [start, end) range.
func reportRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-start and -end are required")
	}
	s, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", start)
	}
	e, err := time.ParseInLocation(dateLayout, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", end)
	}
	return s, e, nil
}

// reporting builds a reporting service over the opened ledger. A converter
// is only wired in when a target currency will be used.
func (a *app) reporting(ledger ports.LedgerSvc, targetCurrency string) ports.ReportingSvc {
	if targetCurrency == "" {
		return services.NewReportingService(ledger)
	}
	return services.NewReportingService(ledger, services.WithConverter(a.converter()))
}

type summaryCmd struct {
	app *app

	ledger   string
	start    string
	end      string
	currency string
	tags     string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "income, expense, and net totals for a period" }
func (*summaryCmd) Usage() string {
	return `summary -start YYYY-MM-DD -end YYYY-MM-DD [-currency <code>] [-tags a,b]

  Sums income and expenses over [start, end). With -currency, amounts are
  normalized into that currency via the exchange rate source.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.start, "start", "", "Period start, inclusive (required)")
	f.StringVar(&c.end, "end", "", "Period end, exclusive (required)")
	f.StringVar(&c.currency, "currency", "", "Normalize totals into this currency")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags; entries must carry all of them")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := reportRange(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	ledger, err := c.app.openLedger(c.ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer ledger.Close()

	opts := domain.ReportOptions{TargetCurrencyCode: c.currency}
	if c.tags != "" {
		opts.Tags = strings.Split(c.tags, ",")
	}

	summary, err := c.app.reporting(ledger, c.currency).PeriodSummary(ctx, start, end, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("income:   %s %s\n", summary.Income, summary.CurrencyCode)
	fmt.Printf("expenses: %s %s\n", summary.Expenses, summary.CurrencyCode)
	fmt.Printf("net:      %s %s\n", summary.Net, summary.CurrencyCode)
	return subcommands.ExitSuccess
}

type reportCmd struct {
	app *app

	ledger      string
	start       string
	end         string
	granularity string
	currency    string
	tags        string
	format      string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "time-bucketed income/expense report" }
func (*reportCmd) Usage() string {
	return `report -start YYYY-MM-DD -end YYYY-MM-DD [-granularity daily|weekly|monthly|yearly] [-currency <code>] [-format text|csv|json]

  Partitions [start, end) into equal buckets and reports totals per bucket.
  Empty buckets appear with zero totals.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.start, "start", "", "Period start, inclusive (required)")
	f.StringVar(&c.end, "end", "", "Period end, exclusive (required)")
	f.StringVar(&c.granularity, "granularity", "monthly", "Bucket width: daily, weekly, monthly, or yearly")
	f.StringVar(&c.currency, "currency", "", "Normalize totals into this currency")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags; entries must carry all of them")
	f.StringVar(&c.format, "format", "text", "Output format: text, csv, or json")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := reportRange(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	granularity, err := domain.ParseGranularity(c.granularity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	ledger, err := c.app.openLedger(c.ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer ledger.Close()

	opts := domain.ReportOptions{TargetCurrencyCode: c.currency}
	if c.tags != "" {
		opts.Tags = strings.Split(c.tags, ",")
	}

	report, err := c.app.reporting(ledger, c.currency).IncomeExpenseReport(ctx, start, end, granularity, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	switch c.format {
	case "csv":
		err = export.WriteIncomeExpenseReportCSV(os.Stdout, report)
	case "json":
		err = export.WriteIncomeExpenseReportJSON(os.Stdout, report)
	default:
		for _, bucket := range report.Buckets {
			fmt.Printf("%s  income=%s expenses=%s net=%s\n",
				bucket.PeriodStart.Format(dateLayout), bucket.Income, bucket.Expenses, bucket.Net)
		}
		fmt.Printf("total       income=%s expenses=%s net=%s\n",
			report.Summary.Income, report.Summary.Expenses, report.Summary.Net)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type tagsCmd struct {
	app *app

	ledger   string
	start    string
	end      string
	currency string
	format   string
}

func (*tagsCmd) Name() string     { return "tags" }
func (*tagsCmd) Synopsis() string { return "per-tag income and expense totals" }
func (*tagsCmd) Usage() string {
	return `tags -start YYYY-MM-DD -end YYYY-MM-DD [-currency <code>] [-format text|csv|json]

  Groups totals by tag. An entry with several tags counts fully toward each
  of them, so rows do not sum to the overall totals.
`
}

func (c *tagsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.start, "start", "", "Period start, inclusive (required)")
	f.StringVar(&c.end, "end", "", "Period end, exclusive (required)")
	f.StringVar(&c.currency, "currency", "", "Normalize totals into this currency")
	f.StringVar(&c.format, "format", "text", "Output format: text, csv, or json")
}

func (c *tagsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := reportRange(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	ledger, err := c.app.openLedger(c.ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer ledger.Close()

	opts := domain.ReportOptions{TargetCurrencyCode: c.currency}
	report, err := c.app.reporting(ledger, c.currency).TaggedReport(ctx, start, end, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	switch c.format {
	case "csv":
		err = export.WriteTaggedReportCSV(os.Stdout, report)
	case "json":
		err = export.WriteTaggedReportJSON(os.Stdout, report)
	default:
		for _, row := range report.Rows {
			fmt.Printf("%-20s income=%s expenses=%s entries=%d\n", row.Tag, row.Income, row.Expenses, row.EntryCount)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
