package main

import (
	"fmt"

	"heating_curve/internal/curve"

	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate the configured curve for one outdoor temperature",
	Example: `  heating-curve eval --at 2.5
  heating-curve eval --at -3 --min-flow 30 --max-flow 50 --plateau=false`,
	RunE: runEval,
}

func init() {
	f := evalCmd.Flags()
	f.Float64("at", 0, "outdoor temperature")
	f.Float64("min-flow", 0, "override curve.min_flow")
	f.Float64("max-flow", 0, "override curve.max_flow")
	f.Float64("min-outdoor", 0, "override curve.min_outdoor")
	f.Float64("max-outdoor", 0, "override curve.max_outdoor")
	f.Float64("plateau-start", 0, "override curve.plateau_start")
	f.Float64("plateau-end", 0, "override curve.plateau_end")
	f.Bool("plateau", true, "override curve.use_plateau")
	_ = evalCmd.MarkFlagRequired("at")
}

var evalFlagKeys = map[string]string{
	"min-flow":      "curve.min_flow",
	"max-flow":      "curve.max_flow",
	"min-outdoor":   "curve.min_outdoor",
	"max-outdoor":   "curve.max_outdoor",
	"plateau-start": "curve.plateau_start",
	"plateau-end":   "curve.plateau_end",
	"plateau":       "curve.use_plateau",
}

func runEval(cmd *cobra.Command, _ []string) error {
	loader := newLoader()
	for flag, key := range evalFlagKeys {
		if err := loader.Viper().BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	at, err := cmd.Flags().GetFloat64("at")
	if err != nil {
		return err
	}

	c := cfg.Curve
	var plateau *curve.Plateau
	if c.UsePlateau {
		plateau = &curve.Plateau{Start: c.PlateauStart, End: c.PlateauEnd}
	}
	vl := curve.Evaluate(at, c.MinFlow, c.MaxFlow, c.MinOutdoor, c.MaxOutdoor, plateau)
	fmt.Fprintf(cmd.OutOrStdout(), "%g\n", vl)
	return nil
}
