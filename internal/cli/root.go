package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o9nn/opencoq-sub001/internal/config"
	"github.com/o9nn/opencoq-sub001/internal/ecan"
)

var rootCmd = &cobra.Command{
	Use:   "atomspaced",
	Short: "Hypergraph knowledge store with economic attention allocation",
	Long:  "atomspaced holds a hypergraph of nodes and links whose attention currencies decide what survives, spreads, or is forgotten. Single Go binary.",
}

var (
	configPath string
	dbPath     string
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to yaml config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to snapshot database")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadConfig reads the config file and resolves the snapshot path from the
// --db flag, config, or default location, in that order.
func loadConfig() (config.Config, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, "", err
	}
	path := dbPath
	if path == "" {
		path = cfg.Snapshot.Path
	}
	if path == "" {
		path, err = config.DefaultDBPath()
		if err != nil {
			return cfg, "", fmt.Errorf("resolve db path: %w", err)
		}
	}
	return cfg, path, nil
}

// buildSpace wires a Space from config.
func buildSpace(cfg config.Config) (*ecan.Space, error) {
	bank := ecan.NewBank(cfg.Bank.TotalSTI, cfg.Bank.TotalLTI, cfg.Bank.MinimumSTI, cfg.Bank.MinimumLTI)
	return ecan.NewSpace(bank, ecan.Params{
		DecayFactor:         cfg.Cycle.DecayFactor,
		RentRate:            cfg.Cycle.RentRate,
		SpreadThreshold:     cfg.Cycle.SpreadThreshold,
		SpreadFraction:      cfg.Cycle.SpreadFraction,
		ForgettingThreshold: cfg.Cycle.ForgettingThreshold,
		FocusCapacity:       cfg.Cycle.FocusCapacity,
	}, cfg.Tensor.Heads, cfg.Tensor.TemporalDepth, ecan.TensorParams{
		LearningRate:     cfg.Tensor.LearningRate,
		Momentum:         cfg.Tensor.Momentum,
		GradientClipping: cfg.Tensor.GradientClipping,
		EconomicWeight:   cfg.Tensor.EconomicWeight,
	})
}
