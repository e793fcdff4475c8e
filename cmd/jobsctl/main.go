package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/sitelayout/internal/app"
)

const usage = `usage: jobsctl <command> [flags]

commands:
  trigger <task-type>   enqueue sitemap:quotation-sync or catalog:refresh
  stats                 show default queue counters
  archived              list tasks that exhausted their retries
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	cli := NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer cli.Close()

	switch args[0] {
	case "trigger":
		fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
		fs.SetOutput(stderr)
		var targs TriggerArgs
		fs.StringVar(&targs.SiteMapID, "site-map", "", "site map id for quotation sync")
		fs.StringVar(&targs.QuotationID, "quotation", "", "quotation id for quotation sync")
		fs.StringVar(&targs.Reason, "reason", "", "reason recorded for catalog refresh")
		if len(args) < 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		info, err := cli.Trigger(ctx, args[1], targs)
		if err != nil {
			fmt.Fprintf(stderr, "trigger: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "enqueued %s (%s)\n", info.ID, info.Type)
	case "stats":
		stats, err := cli.InspectQueue()
		if err != nil {
			fmt.Fprintf(stderr, "stats: %v\n", err)
			return 1
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED")
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		_ = tw.Flush()
	case "archived":
		tasks, err := cli.ListArchived(20)
		if err != nil {
			fmt.Fprintf(stderr, "archived: %v\n", err)
			return 1
		}
		for _, t := range tasks {
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", t.ID, t.Type, t.LastErr)
		}
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
	return 0
}
