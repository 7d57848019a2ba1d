// Package cli provides the cobra command tree driving the query engine.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TaoKevinKK/lilac/internal/adapters/driven/config/file"
	"github.com/TaoKevinKK/lilac/internal/adapters/driven/embedding/ollama"
	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
	"github.com/TaoKevinKK/lilac/internal/core/services"
	"github.com/TaoKevinKK/lilac/internal/logger"
	"github.com/TaoKevinKK/lilac/internal/signals"
)

var (
	verboseFlag bool
	configDir   string

	configStore *file.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "lilac",
	Short: "Query engine over nested document datasets",
	Long: `Lilac selects, filters and enriches rows of nested documents.
Columns address arbitrary nested paths (including wildcards over repeated
values) and can attach signals: text classifiers, splitters and
embedding-backed computations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verboseFlag)
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		configStore = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.lilac)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRegistry creates a session registry populated with the built-in
// signals. An Ollama-backed embedding signal is registered when enabled
// in configuration.
func newRegistry(cfg driven.ConfigStore) *services.SignalRegistry {
	registry := services.NewSignalRegistry()
	registry.Register(func() domain.Signal { return signals.NewSentenceSplitter() })
	registry.Register(func() domain.Signal { return signals.NewTextStatistics() })

	if cfg != nil && cfg.GetBool("embedding.enabled") {
		svc := ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		name := cfg.GetString("embedding.signal_name")
		if name == "" {
			name = "ollama_embedding"
		}
		registry.Register(func() domain.Signal { return signals.NewModelEmbedding(name, svc) })
		logger.Debug("Registered embedding signal %q (model %s)", name, svc.ModelName())
	}
	return registry
}
