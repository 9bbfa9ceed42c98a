// Package cli holds operator subcommands of the logistics binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/odyssey-erp/odyssey-logistics/internal/app"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

// ErrUsage is returned for unknown or incomplete commands.
var ErrUsage = errors.New(`usage:
  logistics seed check <file>
  logistics numbers
  logistics jobs trigger reconcile [branch]
  logistics jobs stats`)

// Run executes one subcommand. args excludes the program name.
func Run(ctx context.Context, args []string, cfg *app.Config, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	switch args[0] {
	case "seed":
		if len(args) != 3 || args[1] != "check" {
			return ErrUsage
		}
		report, err := CheckSeed(ctx, args[2])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "ok: %d branches, %d legal entities, %d trucks, %d trailers\n",
			report.Branches, report.LegalEntities, report.Trucks, report.Trailers)
		return err
	case "numbers":
		adapter, err := kv.Open(ctx, cfg.StoreConfig())
		if err != nil {
			return err
		}
		defer adapter.Close()
		store := logistics.NewStore(ctx, adapter, logistics.Options{Location: cfg.Location()})
		return printNumbers(out, store.RunningNumbers())
	case "jobs":
		return runJobs(ctx, args[1:], cfg, out)
	}
	return ErrUsage
}

func runJobs(ctx context.Context, args []string, cfg *app.Config, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 || len(args) > 3 {
			return ErrUsage
		}
		var branchID *int64
		if len(args) == 3 {
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("branch must be a positive integer: %q", args[2])
			}
			branchID = &id
		}
		c := NewJobsCLI(cfg.RedisAddr)
		defer c.Close()
		info, err := c.Trigger(ctx, args[1], branchID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return err
	case "stats":
		c := NewJobsCLI(cfg.RedisAddr)
		defer c.Close()
		stats, err := c.InspectQueue()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s: pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return err
	}
	return ErrUsage
}

func printNumbers(out io.Writer, counters map[numbering.DocType]numbering.Counter) error {
	types := make([]numbering.DocType, 0, len(counters))
	for t := range counters {
		types = append(types, t)
	}
	slices.Sort(types)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tPREFIX\tDATE\tLAST")
	for _, t := range types {
		c := counters[t]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t, c.Prefix, c.DateKey, c.LastSequence)
	}
	return tw.Flush()
}
