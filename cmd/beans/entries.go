package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/export"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type addCmd struct {
	app *app

	ledger      string
	name        string
	amount      string
	currency    string
	entryType   string
	date        string
	description string
	tags        string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an income or expense entry to the ledger" }
func (*addCmd) Usage() string {
	return `add -name <name> -amount <amount> -currency <code> -type <income|expense> [-date YYYY-MM-DD] [-desc <text>] [-tags a,b]

  Adds a new entry. The date defaults to today; tags are comma-separated.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.name, "name", "", "Entry name (required)")
	f.StringVar(&c.amount, "amount", "", "Entry amount, a non-negative decimal (required)")
	f.StringVar(&c.currency, "currency", "", "3-letter currency code (required)")
	f.StringVar(&c.entryType, "type", "", "Entry type: income or expense (required)")
	f.StringVar(&c.date, "date", "", "Entry date, YYYY-MM-DD (defaults to today)")
	f.StringVar(&c.description, "desc", "", "Optional description")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}
	entryType, err := domain.ParseEntryType(c.entryType)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	builder := domain.NewEntryBuilder().
		WithName(c.name).
		WithAmount(amount).
		WithCurrency(c.currency).
		WithEntryType(entryType).
		WithDescription(c.description)
	if c.date != "" {
		date, err := time.ParseInLocation(dateLayout, c.date, time.UTC)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q, expected YYYY-MM-DD\n", c.date)
			return subcommands.ExitUsageError
		}
		builder = builder.WithDate(date)
	}
	if c.tags != "" {
		builder = builder.WithTags(strings.Split(c.tags, ",")...)
	}

	entry, err := builder.Build()
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

	id, err := ledger.AddEntry(ctx, entry)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Println(id)
	return subcommands.ExitSuccess
}

type listCmd struct {
	app *app

	ledger    string
	entryType string
	currency  string
	tags      string
	start     string
	end       string
	format    string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list entries matching a filter" }
func (*listCmd) Usage() string {
	return `list [-type income|expense] [-currency <code>] [-tags a,b] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-format text|csv|json]

  Lists entries in date order. Multiple tags must all match.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.entryType, "type", "", "Restrict to one entry type")
	f.StringVar(&c.currency, "currency", "", "Restrict to one currency code")
	f.StringVar(&c.tags, "tags", "", "Comma-separated tags; entries must carry all of them")
	f.StringVar(&c.start, "start", "", "Earliest date, inclusive (YYYY-MM-DD)")
	f.StringVar(&c.end, "end", "", "Latest date, exclusive (YYYY-MM-DD)")
	f.StringVar(&c.format, "format", "text", "Output format: text, csv, or json")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter := domain.EntryFilter{}
	if c.entryType != "" {
		entryType, err := domain.ParseEntryType(c.entryType)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		filter.EntryType = &entryType
	}
	filter.CurrencyCode = c.currency
	if c.tags != "" {
		filter.Tags = strings.Split(c.tags, ",")
	}
	if c.start != "" {
		start, err := time.ParseInLocation(dateLayout, c.start, time.UTC)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid start date %q\n", c.start)
			return subcommands.ExitUsageError
		}
		filter.StartDate = &start
	}
	if c.end != "" {
		end, err := time.ParseInLocation(dateLayout, c.end, time.UTC)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid end date %q\n", c.end)
			return subcommands.ExitUsageError
		}
		filter.EndDate = &end
	}

	ledger, err := c.app.openLedger(c.ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer ledger.Close()

	entries, err := ledger.ListEntries(ctx, filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	switch c.format {
	case "csv":
		err = export.WriteEntriesCSV(os.Stdout, entries)
	case "json":
		err = export.WriteEntriesJSON(os.Stdout, entries)
	default:
		for _, entry := range entries {
			fmt.Printf("%s  %s\n", entry.ID, entry.Summary())
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type updateCmd struct {
	app *app

	ledger      string
	id          string
	name        string
	amount      string
	currency    string
	entryType   string
	date        string
	description string
	tags        string
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "modify fields of an existing entry" }
func (*updateCmd) Usage() string {
	return `update -id <entry-id> [-name <name>] [-amount <amount>] [-currency <code>] [-type <income|expense>] [-date YYYY-MM-DD] [-desc <text>] [-tags a,b]

  Replaces the given fields of an entry. Omitted flags keep their stored
  value; -tags replaces the whole tag set.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.id, "id", "", "Entry id (required)")
	f.StringVar(&c.name, "name", "", "New entry name")
	f.StringVar(&c.amount, "amount", "", "New amount")
	f.StringVar(&c.currency, "currency", "", "New currency code")
	f.StringVar(&c.entryType, "type", "", "New entry type")
	f.StringVar(&c.date, "date", "", "New date, YYYY-MM-DD")
	f.StringVar(&c.description, "desc", "", "New description")
	f.StringVar(&c.tags, "tags", "", "Comma-separated replacement tag set")
}

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}

	ledger, err := c.app.openLedger(c.ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer ledger.Close()

	current, err := ledger.GetEntry(ctx, c.id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	builder := domain.BuilderFromEntry(*current)
	if c.name != "" {
		builder = builder.WithName(c.name)
	}
	if c.amount != "" {
		amount, err := decimal.NewFromString(c.amount)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.amount, err)
			return subcommands.ExitUsageError
		}
		builder = builder.WithAmount(amount)
	}
	if c.currency != "" {
		builder = builder.WithCurrency(c.currency)
	}
	if c.entryType != "" {
		entryType, err := domain.ParseEntryType(c.entryType)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		builder = builder.WithEntryType(entryType)
	}
	if c.date != "" {
		date, err := time.ParseInLocation(dateLayout, c.date, time.UTC)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q, expected YYYY-MM-DD\n", c.date)
			return subcommands.ExitUsageError
		}
		builder = builder.WithDate(date)
	}
	if c.description != "" {
		builder = builder.WithDescription(c.description)
	}
	if c.tags != "" {
		builder = builder.WithTags(strings.Split(c.tags, ",")...)
	}

	entry, err := builder.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	if err := ledger.UpdateEntry(ctx, entry); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	app *app

	ledger string
	id     string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an entry by id" }
func (*deleteCmd) Usage() string {
	return `delete -id <entry-id>

  Removes an entry and its tag associations.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "Path to the ledger store (defaults to BEANS_LEDGER_PATH)")
	f.StringVar(&c.id, "id", "", "Entry id (required)")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}

	ledger, err := c.app.openLedger(c.ledger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer ledger.Close()

	if err := ledger.DeleteEntry(ctx, c.id); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
