package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mquispe/planscope/internal/compare"
)

var compareCmd = &cobra.Command{
	Use:   "compare <party-slug-a> <party-slug-b>",
	Short: "Compare two candidates' plan aggregates",
	Long: `Builds the cross-candidate comparison payload for two party slugs
(e.g. peru-libre fuerza-popular) and prints it as JSON. Exits with status 2
when either side has no imported analysis yet.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	cmp, err := loadComparison(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	if cmp == nil {
		fmt.Fprintf(os.Stderr, "no comparison available for %s vs %s\n", args[0], args[1])
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cmp)
}

func loadComparison(cmd *cobra.Command, slugA, slugB string) (*compare.Comparison, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	agg := compare.NewAggregator(st, compare.ElectionRef{
		Year:    cfg.Election.Year,
		Type:    cfg.Election.Type,
		Country: cfg.Election.Country,
	}, logger)

	return agg.Compare(cmd.Context(), slugA, slugB)
}
