package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/docbatch/internal/config"
	"github.com/Sternrassler/docbatch/pkg/batch"
)

func newFetchCmd(cfg func() *config.Config) *cobra.Command {
	var (
		collection string
		ids        []string
		ordered    bool
		report     bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a batch of documents and print them as JSON",
		Example: `  # Fetch three products, keyed by id
  docbatch fetch --collection products --ids p1,p2,p3

  # Keep request order (duplicates and misses included) against Redis
  DOCBATCH_REDIS_ADDR=localhost:6379 docbatch fetch -C products --ids p2,p1,p2 --ordered`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if collection == "" {
				return fmt.Errorf("--collection is required")
			}
			ids = trimIDs(ids)
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}

			c := cfg()
			b, err := openBackend(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer b.close()

			f := b.fetcher(c)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if report {
				r := f.FetchReport(cmd.Context(), collection, ids)
				return enc.Encode(map[string]any{
					"documents": r.Records,
					"status":    r.Status,
				})
			}

			result := f.Fetch(cmd.Context(), collection, ids)
			if ordered {
				return enc.Encode(batch.Project(result, ids))
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "C", "", "collection to read from")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "comma separated document ids")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "print an array aligned with --ids (null for misses)")
	cmd.Flags().BoolVar(&report, "report", false, "include per-id status (found, not_found, failed)")
	return cmd
}

func trimIDs(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
