package main

import (
	"fmt"
	"os"
	"path/filepath"

	"ucdocs/internal/index"

	"github.com/spf13/cobra"
)

var cleanAll bool

// cleanCmd removes ucdocs caches
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the index and scan cache",
	Long: `Removes .ucdocs/index.yml and the scan cache manifest so the next
generate starts from scratch. With --all, also removes the taxonomy database
and log files. Generated READMEs are never touched.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Also remove the taxonomy database and logs")
}

func runClean(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}

	targets := []string{
		index.DefaultPath(e.root),
		filepath.Join(e.root, filepath.FromSlash(e.cfg.Scanner.CachePath)),
	}
	if cleanAll {
		targets = append(targets,
			filepath.Join(e.root, filepath.FromSlash(e.cfg.Taxonomy.DatabasePath)),
			filepath.Join(e.root, ".ucdocs", "logs"),
		)
	}

	removed := 0
	for _, t := range targets {
		if _, err := os.Stat(t); err != nil {
			continue
		}
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("failed to remove %s: %w", t, err)
		}
		fmt.Printf("removed %s\n", t)
		removed++
	}
	if removed == 0 {
		fmt.Println("nothing to clean")
	}
	return nil
}
