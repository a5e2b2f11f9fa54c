package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mquispe/planscope/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import-analysis <candidate-id> <document-id> [folder]",
	Short: "Import offline analysis artifacts for a document",
	Long: `Loads the three analysis artifacts (candidate-insights.json,
proposal-summary.json, proposal-typology.json) from the folder and upserts
the aggregate rows for the (candidate, document) pair. All three files must
parse before any row is written.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	candidateID, documentID := args[0], args[1]
	dir := cfg.Analysis.Dir
	if len(args) == 3 {
		dir = args[2]
	}

	artifacts, err := importer.LoadArtifacts(dir)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := importer.NewImporter(st, logger).Import(cmd.Context(), candidateID, documentID, artifacts)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d thematic rows and %d typology rows for %s/%s\n",
		res.Thematic, res.Typologies, candidateID, documentID)
	return nil
}
