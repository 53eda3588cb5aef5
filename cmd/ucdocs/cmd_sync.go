package main

import (
	"context"
	"fmt"
	"path/filepath"

	"ucdocs/internal/store"

	"github.com/spf13/cobra"
)

// syncCmd refreshes the taxonomy database from the index
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the exercise taxonomy database from the current index",
	Long: `Rebuilds the index and replaces the taxonomy database content with
the current exercises and annotations, so they can be queried by category,
namespace, and language.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	e, err := openEnv()
	if err != nil {
		return err
	}

	result, idx, _, err := regenerate(ctx, e)
	if err != nil {
		return err
	}

	s, err := openTaxonomy(e)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := store.Sync(ctx, s, e.root, e.cfg, result, idx); err != nil {
		return err
	}

	fmt.Printf("synced %d annotations\n", len(idx.Entries))
	return nil
}

// openTaxonomy opens the workspace taxonomy database.
func openTaxonomy(e *env) (*store.TaxonomyStore, error) {
	dbPath := e.cfg.Taxonomy.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(e.root, filepath.FromSlash(dbPath))
	}
	return store.NewTaxonomyStore(dbPath)
}
