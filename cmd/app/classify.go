package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/narayanprabad/InvestWise/internal/di"
	"github.com/narayanprabad/InvestWise/internal/domain/models"
	"github.com/narayanprabad/InvestWise/pkg/config"
)

type classifyFlags struct {
	vix                 float64
	change              float64
	trend               string
	trendConfidence     float64
	sentiment           float64
	sentimentConfidence float64
	format              string
}

func newClassifyCmd(configPath *string) *cobra.Command {
	f := &classifyFlags{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the market from explicit signal values",
		Long: `Classify runs the classifier offline on the given inputs. Without both --trend and
--sentiment it uses the volatility and recent change fallback.

Examples:
  investwise classify --vix 14 --change 1.2
  investwise classify --vix 22 --change -0.4 --trend down --trend-confidence 0.7 \
    --sentiment -2 --sentiment-confidence 0.6 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			in, err := f.inputs(cmd)
			if err != nil {
				return err
			}
			res := di.ProvideClassifier(cfg).Classify(in)
			return printClassification(cmd.OutOrStdout(), f.format, res)
		},
	}
	fl := cmd.Flags()
	fl.Float64Var(&f.vix, "vix", 0, "volatility index level")
	fl.Float64Var(&f.change, "change", 0, "benchmark recent change in percent")
	fl.StringVar(&f.trend, "trend", "", "predicted trend: up, down or sideways")
	fl.Float64Var(&f.trendConfidence, "trend-confidence", 0.5, "trend confidence in [0,1]")
	fl.Float64Var(&f.sentiment, "sentiment", 0, "sentiment score in [-5,5]")
	fl.Float64Var(&f.sentimentConfidence, "sentiment-confidence", 0.5, "sentiment confidence in [0,1]")
	fl.StringVar(&f.format, "format", "table", "output format: table or json")
	_ = cmd.MarkFlagRequired("vix")
	_ = cmd.MarkFlagRequired("change")
	return cmd
}

func (f *classifyFlags) inputs(cmd *cobra.Command) (models.ClassifierInputs, error) {
	in := models.ClassifierInputs{Volatility: f.vix, ChangePercent: f.change}
	if f.vix < 0 {
		return in, fmt.Errorf("--vix must not be negative")
	}
	if f.trend != "" {
		t, err := models.ParseTrend(f.trend)
		if err != nil {
			return in, err
		}
		if f.trendConfidence < 0 || f.trendConfidence > 1 {
			return in, fmt.Errorf("--trend-confidence must be within [0,1]")
		}
		in.Trend = &models.TrendPrediction{Trend: t, Confidence: f.trendConfidence}
	}
	if cmd.Flags().Changed("sentiment") {
		if f.sentiment < -5 || f.sentiment > 5 {
			return in, fmt.Errorf("--sentiment must be within [-5,5]")
		}
		if f.sentimentConfidence < 0 || f.sentimentConfidence > 1 {
			return in, fmt.Errorf("--sentiment-confidence must be within [0,1]")
		}
		in.Sentiment = &models.SentimentScore{Score: f.sentiment, Confidence: f.sentimentConfidence}
	}
	return in, nil
}

func printClassification(w io.Writer, format string, res models.Classification) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table":
		fmt.Fprintf(w, "condition: %s (%s)\n", res.Condition, res.Mode)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SIGNAL\tINPUT\tVOTE\tWEIGHT")
		for _, s := range res.Signals {
			fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.2f\n", s.Name, s.Input, s.Vote, s.Weight)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
