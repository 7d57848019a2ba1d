package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TaoKevinKK/lilac/internal/adapters/driven/storage/memory"
	"github.com/TaoKevinKK/lilac/internal/adapters/driven/storage/sqlite"
	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driving"
	"github.com/TaoKevinKK/lilac/internal/core/services"
)

var (
	queryData    string
	queryCols    []string
	queryUDFs    []string
	queryFilters []string
	queryCombine bool
	queryStore   string
	queryDataDir string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Select, filter and enrich rows",
	Long: `Selects rows from a dataset, optionally filtered and enriched.

Columns are dotted paths; wildcards address repeated values:
  --col text --col meta.tags.*

UDF columns attach a registered signal to a path, with an optional alias:
  --udf text_statistics:text
  --udf text_statistics:text.*=stats

Filters compare a path against a literal:
  --filter "text = hello" --filter "meta.score > 0.5"`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryData, "data", "", "JSONL file of rows to load")
	queryCmd.Flags().StringArrayVar(&queryCols, "col", nil, "projection path (repeatable)")
	queryCmd.Flags().StringArrayVar(&queryUDFs, "udf", nil, "signal column as name:path[=alias] (repeatable)")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, `filter as "path op value" (repeatable)`)
	queryCmd.Flags().BoolVar(&queryCombine, "combine", false, "nest enrichment outputs back into row shape")
	queryCmd.Flags().StringVar(&queryStore, "store", "memory", "row store backend: memory or sqlite")
	queryCmd.Flags().StringVar(&queryDataDir, "data-dir", "", "sqlite data directory (default ~/.lilac/data)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	registry := newRegistry(configStore)
	defer registry.Clear()

	rows, vectors, cleanup, err := openStores(ctx, queryStore, queryData, queryDataDir)
	if err != nil {
		return err
	}
	defer cleanup()

	dataset := services.NewDatasetService(rows, vectors, registry)

	columns, err := buildColumns(registry, queryCols, queryUDFs)
	if err != nil {
		return err
	}
	filters, err := buildFilters(queryFilters)
	if err != nil {
		return err
	}

	it, err := dataset.SelectRows(ctx, columns, driving.SelectOptions{
		Filters:        filters,
		CombineColumns: queryCombine,
	})
	if err != nil {
		return fmt.Errorf("select rows: %w", err)
	}
	defer it.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	for it.Next() {
		if err := enc.Encode(it.Row()); err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("select rows: %w", err)
	}
	return nil
}

// openStores builds the row and vector stores for one command run.
// Memory stores require a data file; the sqlite store reuses persisted
// rows when none is given.
func openStores(ctx context.Context, backend, dataFile, dataDir string) (driven.RowStore, driven.VectorStore, func(), error) {
	switch backend {
	case "memory":
		items, err := loadJSONL(dataFile)
		if err != nil {
			return nil, nil, nil, err
		}
		return memory.NewRowStore(items, nil), memory.NewVectorStore(), func() {}, nil
	case "sqlite":
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		if dataFile != "" {
			items, err := loadJSONL(dataFile)
			if err != nil {
				store.Close()
				return nil, nil, nil, err
			}
			if err := store.IngestRows(ctx, items, nil); err != nil {
				store.Close()
				return nil, nil, nil, fmt.Errorf("ingesting rows: %w", err)
			}
		}
		return store, store, func() { store.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// loadJSONL reads one JSON object per line.
func loadJSONL(path string) ([]domain.Item, error) {
	if path == "" {
		return nil, fmt.Errorf("--data is required for this store backend")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	var items []domain.Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var item map[string]any
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	return items, nil
}

// buildColumns assembles projection and UDF columns from flag values.
func buildColumns(registry *services.SignalRegistry, cols, udfs []string) ([]domain.Column, error) {
	var columns []domain.Column
	for _, c := range cols {
		columns = append(columns, domain.NewColumn(c))
	}
	for _, u := range udfs {
		name, rest, ok := strings.Cut(u, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --udf %q, expected name:path[=alias]", u)
		}
		path, alias, _ := strings.Cut(rest, "=")
		sig, err := registry.New(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, domain.Column{
			Path:   domain.ParsePath(path),
			Signal: sig,
			Alias:  alias,
		})
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("at least one --col or --udf is required")
	}
	return columns, nil
}

var filterOps = map[string]domain.BinaryOp{
	"=":  domain.OpEquals,
	"==": domain.OpEquals,
	"!=": domain.OpNotEquals,
	"<":  domain.OpLessThan,
	"<=": domain.OpLessEqual,
	">":  domain.OpGreaterThan,
	">=": domain.OpGreaterEqual,
}

// buildFilters parses "path op value" flag values.
func buildFilters(specs []string) ([]domain.Filter, error) {
	var filters []domain.Filter
	for _, spec := range specs {
		parts := strings.SplitN(strings.TrimSpace(spec), " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --filter %q, expected \"path op value\"", spec)
		}
		op, ok := filterOps[parts[1]]
		if !ok {
			return nil, fmt.Errorf("invalid filter operator %q", parts[1])
		}
		filters = append(filters, domain.Filter{
			Path:  domain.ParsePath(parts[0]),
			Op:    op,
			Value: parseLiteral(parts[2]),
		})
	}
	return filters, nil
}

// parseLiteral interprets a filter value as bool, number or string.
func parseLiteral(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return strings.Trim(s, `"`)
}
