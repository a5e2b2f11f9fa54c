package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/analysis"
	"github.com/mquispe/planscope/internal/config"
	"github.com/mquispe/planscope/internal/ingest"
	"github.com/mquispe/planscope/internal/llm"
)

var (
	ingestTitle  string
	ingestSource string
	ingestURL    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <text-file> <candidate-name>",
	Short: "Ingest a plan document for a candidate",
	Long: `Reads a plain-text government plan, splits it into sections, extracts
proposals with the configured language model, classifies them, and persists
the resulting document graph. Section-level model failures are skipped so a
partial run still stores what succeeded.`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "upload", "document source tag")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "document origin URL")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path, candidateName := args[0], args[1]

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", path, err)
	}

	gen, err := buildGenerator(cfg.Generation)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	orch := ingest.NewOrchestrator(st,
		analysis.NewExtractor(gen),
		analysis.NewClassifier(gen),
		ingest.ElectionRef{
			Year:    cfg.Election.Year,
			Type:    cfg.Election.Type,
			Country: cfg.Election.Country,
		},
		logger,
	)

	title := ingestTitle
	if title == "" {
		title = filepath.Base(path)
	}

	res, err := orch.Ingest(cmd.Context(), string(raw), candidateName, ingest.DocumentMeta{
		Title:  title,
		Source: ingestSource,
		URL:    ingestURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("document %s\n", res.DocumentID)
	fmt.Printf("  sections:        %d (%d failed)\n", res.SectionsCreated, res.SectionsFailed)
	fmt.Printf("  proposals:       %d\n", res.ProposalsCreated)
	fmt.Printf("  classifications: %d\n", res.ClassificationsCreated)
	return nil
}

// buildGenerator wires the model backend. An Anthropic key selects the
// primary backend with retries; otherwise the HTTP endpoint and subprocess
// command form a best-effort fallback chain.
func buildGenerator(gc config.GenerationConfig) (llm.Generator, error) {
	if gc.Anthropic.APIKey != "" || os.Getenv("ANTHROPIC_API_KEY") != "" {
		ag, err := llm.NewAnthropicGenerator(gc.Anthropic.APIKey, gc.Anthropic.Model)
		if err != nil {
			return nil, err
		}
		return llm.Retrying{Backend: ag}, nil
	}

	var backends []llm.Generator
	if gc.HTTP.Endpoint != "" {
		backends = append(backends, llm.Retrying{
			Backend: llm.NewHTTPGenerator(gc.HTTP.Endpoint, gc.HTTP.Model, gc.HTTP.APIKey),
		})
	}
	if gc.Subprocess.Command != "" {
		backends = append(backends, llm.NewSubprocessGenerator(gc.Subprocess.Command, gc.Subprocess.Args...))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no generation backend configured: set ANTHROPIC_API_KEY, an HTTP endpoint, or a subprocess command")
	}
	logger.Warn("no anthropic key, using degraded backend chain", zap.Int("backends", len(backends)))
	return llm.NewChain(logger, backends...), nil
}
