package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/narayanprabad/InvestWise/internal/di"
	"github.com/narayanprabad/InvestWise/internal/domain/models"
)

func newAllocateCmd() *cobra.Command {
	var (
		risk      string
		condition string
		amount    string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Print the asset allocation for a risk profile and market condition",
		Long: `Allocate looks up the equity, debt, gold and cash split for a risk profile under a
market condition and optionally divides an amount across it.

Examples:
  investwise allocate --risk moderate --condition bearish
  investwise allocate --risk aggressive --condition bullish --amount 25000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseRiskProfile(risk)
			if err != nil {
				return err
			}
			c, err := models.ParseMarketCondition(condition)
			if err != nil {
				return err
			}
			opt, err := di.ProvideOptimizer()
			if err != nil {
				return err
			}
			alloc, err := opt.Allocate(r, c)
			if err != nil {
				return err
			}
			res := models.AllocationResult{Risk: r, Condition: c, Allocation: alloc}
			if amount != "" {
				amt, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("%w: %q", models.ErrInvalidAmount, amount)
				}
				split, err := alloc.Split(amt)
				if err != nil {
					return err
				}
				res.Amounts = &split
			}
			return printAllocation(cmd.OutOrStdout(), format, res)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&risk, "risk", "", "risk profile: conservative, moderate or aggressive")
	fl.StringVar(&condition, "condition", "", "market condition: bullish, neutral or bearish")
	fl.StringVar(&amount, "amount", "", "amount to split across the allocation")
	fl.StringVar(&format, "format", "table", "output format: table or json")
	_ = cmd.MarkFlagRequired("risk")
	_ = cmd.MarkFlagRequired("condition")
	return cmd
}

func printAllocation(w io.Writer, format string, res models.AllocationResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table":
		fmt.Fprintf(w, "%s / %s\n", res.Risk, res.Condition)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ASSET\tPERCENT\tAMOUNT")
		amounts := [4]string{"-", "-", "-", "-"}
		if a := res.Amounts; a != nil {
			amounts = [4]string{a.Equity.StringFixed(2), a.Debt.StringFixed(2), a.Gold.StringFixed(2), a.Cash.StringFixed(2)}
		}
		pcts := [4]int{res.Allocation.Equity, res.Allocation.Debt, res.Allocation.Gold, res.Allocation.Cash}
		for i, name := range [4]string{"equity", "debt", "gold", "cash"} {
			fmt.Fprintf(tw, "%s\t%d%%\t%s\n", name, pcts[i], amounts[i])
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
