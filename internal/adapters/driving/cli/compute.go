package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/services"
)

var (
	computeData    string
	computePath    string
	computeDataDir string
)

var computeCmd = &cobra.Command{
	Use:   "compute [signal]",
	Short: "Materialize a signal's outputs over a dataset",
	Long: `Computes a registered signal over every row at a path and persists
the outputs, making them visible to filters, split and embedding
dependencies, and the merged schema. Uses the sqlite store so outputs
survive across runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().StringVar(&computeData, "data", "", "JSONL file of rows to ingest first")
	computeCmd.Flags().StringVar(&computePath, "path", "", "dotted path to compute over")
	computeCmd.Flags().StringVar(&computeDataDir, "data-dir", "", "sqlite data directory (default ~/.lilac/data)")
	_ = computeCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	registry := newRegistry(configStore)
	defer registry.Clear()

	signal, err := registry.New(args[0])
	if err != nil {
		return err
	}

	rows, vectors, cleanup, err := openStores(ctx, "sqlite", computeData, computeDataDir)
	if err != nil {
		return err
	}
	defer cleanup()

	dataset := services.NewDatasetService(rows, vectors, registry)
	if err := dataset.ComputeSignal(ctx, signal, domain.ParsePath(computePath)); err != nil {
		return fmt.Errorf("compute signal: %w", err)
	}

	cmd.Printf("Materialized %s(%s)\n", signal.Name(), computePath)
	return nil
}
