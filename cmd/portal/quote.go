package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"ProfitPortal/internal/engine"
	"ProfitPortal/internal/model"
	"ProfitPortal/internal/report"
)

type quoteCmd struct {
	shares string
	class  string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the price, change and one-year target of tickers" }
func (*quoteCmd) Usage() string {
	return `portal quote [-shares N] [-class STOCK] SYMBOL...

  Prints the valuation of each symbol. With -shares, prints a table of
  holdings of N shares each with their total value.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.shares, "shares", "", "number of shares held of each symbol")
	f.StringVar(&c.class, "class", string(model.AssetClassStock), "asset class of the symbols")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required")
		return subcommands.ExitUsageError
	}
	var shares decimal.Decimal
	if c.shares != "" {
		var err error
		if shares, err = decimal.NewFromString(c.shares); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -shares %q: %v\n", c.shares, err)
			return subcommands.ExitUsageError
		}
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if failed := quote(ctx, a.engine, os.Stdout, os.Stderr, f.Args(), model.AssetClass(c.class), c.shares != "", shares); failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// quote prints each symbol's valuation, or a holdings table when withShares,
// and returns how many symbols failed.
func quote(ctx context.Context, e *engine.Engine, out, errOut io.Writer, symbols []string, class model.AssetClass, withShares bool, shares decimal.Decimal) int {
	failed := 0
	var holdings []model.Holding
	for _, s := range symbols {
		if withShares {
			h, err := e.Position(ctx, s, class, shares)
			if err != nil {
				fmt.Fprintf(errOut, "%s: %s\n", s, report.ErrorMessage(err))
				failed++
				continue
			}
			holdings = append(holdings, h)
			continue
		}
		v, err := e.GetValuation(ctx, s, class)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %s\n", s, report.ErrorMessage(err))
			failed++
			continue
		}
		fmt.Fprintln(out, report.FormatValuation(v))
	}
	if len(holdings) > 0 {
		fmt.Fprint(out, report.FormatHoldings(holdings))
	}
	return failed
}
