package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "investwise",
		Short: "InvestWise market condition and allocation service",
		Long: `InvestWise classifies the market as bullish, neutral or bearish from volatility,
trend, sentiment and recent change, and turns the result into an asset allocation
for a risk profile.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(
		newServeCmd(&configPath),
		newClassifyCmd(&configPath),
		newAllocateCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
