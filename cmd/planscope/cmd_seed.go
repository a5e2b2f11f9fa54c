package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/store"
)

const defaultIdeology = "Por definir"

type candidateSeed struct {
	Key      string
	Name     string
	Party    string
	Ideology string
	PhotoURL string
}

// candidateSeeds is the 2021 presidential roster.
var candidateSeeds = []candidateSeed{
	{Key: "andresAlcantara", Name: "Andrés Alcántara", Party: "Democracia Directa"},
	{Key: "ciroGalvez", Name: "Ciro Gálvez", Party: "Renacimiento Unido Nacional"},
	{Key: "danielSalaverry", Name: "Daniel Salaverry", Party: "Somos Perú"},
	{Key: "joseVega", Name: "José Vega", Party: "Unión por el Perú"},
	{Key: "julioGuzman", Name: "Julio Guzmán", Party: "Partido Morado"},
	{Key: "keikoFujimori", Name: "Keiko Fujimori", Party: "Fuerza Popular"},
	{Key: "marcoArana", Name: "Marco Arana", Party: "Frente Amplio"},
	{Key: "georgeForsyth", Name: "George Forsyth", Party: "Victoria Nacional"},
	{Key: "albertoBeingolea", Name: "Alberto Beingolea", Party: "Partido Popular Cristiano"},
	{Key: "pedroCastillo", Name: "Pedro Castillo", Party: "Perú Libre"},
	{Key: "rafaelLopezAliaga", Name: "Rafael López Aliaga", Party: "Renovación Popular"},
	{Key: "veronikaMendoza", Name: "Verónika Mendoza", Party: "Juntos por el Perú"},
	{Key: "yonhyLescano", Name: "Yonhy Lescano", Party: "Acción Popular"},
	{Key: "hernandoDeSoto", Name: "Hernando de Soto", Party: "Avanza País"},
	{Key: "ollantaHumala", Name: "Ollanta Humala", Party: "Partido Nacionalista Peruano"},
	{Key: "joseAlejandroNieto", Name: "José Alejandro Nieto", Party: "Frente de la Esperanza"},
	{Key: "danielUrresti", Name: "Daniel Urresti", Party: "Podemos Perú"},
	{Key: "rafaelSantos", Name: "Rafael Santos", Party: "Perú Patria Segura"},
	{Key: "cesarAcuna", Name: "César Acuña", Party: "Alianza para el Progreso"},
	{Key: "franciscoDiezCanseco", Name: "Francisco Diez Canseco", Party: "Perú Nación"},
	{Key: "joseLunaGalvez", Name: "José Luna Gálvez", Party: "Podemos Perú"},
	{Key: "wilmerRivera", Name: "Wilmer Rivera", Party: "Fe en el Perú"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the election and candidate roster",
	Long: `Upserts the configured election and its full candidate roster.
Safe to run repeatedly; existing rows are updated in place.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	election, err := st.UpsertElection(ctx, store.Election{
		Year:    cfg.Election.Year,
		Type:    cfg.Election.Type,
		Country: cfg.Election.Country,
		Name:    cfg.Election.Name,
	})
	if err != nil {
		return fmt.Errorf("upsert election: %w", err)
	}
	logger.Info("election ready", zap.String("id", election.ID), zap.Int("year", election.Year))

	for _, seed := range candidateSeeds {
		ideology := seed.Ideology
		if ideology == "" {
			ideology = defaultIdeology
		}
		position, err := json.Marshal(map[string]any{
			"ideology": ideology,
			"photoUrl": nilIfEmpty(seed.PhotoURL),
		})
		if err != nil {
			return err
		}
		c := store.Candidate{
			ID:         seed.Key,
			ElectionID: election.ID,
			Name:       seed.Name,
			Party:      seed.Party,
			Position:   string(position),
		}
		if err := st.UpsertCandidate(ctx, c); err != nil {
			return fmt.Errorf("upsert candidate %s: %w", seed.Key, err)
		}
	}

	fmt.Printf("seeded election %s with %d candidates\n", election.ID, len(candidateSeeds))
	return nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
