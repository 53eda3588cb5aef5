package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// scanCmd walks the workspace and reports what would be indexed
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the workspace and report files, languages, and changes",
	Long: `Walks the workspace, hashes source files, and reports per-language
counts plus which files changed since the last scan. Refreshes the file cache
but does not rebuild the index or touch any README.`,
	RunE: runScanCmd,
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	e, err := openEnv()
	if err != nil {
		return err
	}

	result, err := e.runScan(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d files in %d directories\n", result.FileCount, result.DirectoryCount)

	langs := make([]string, 0, len(result.Languages))
	for lang := range result.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Printf("  %-12s %d\n", lang, result.Languages[lang])
	}

	changed := result.Changed()
	if len(changed) == 0 {
		fmt.Println("no changes since last scan")
		return nil
	}
	fmt.Printf("%d changed:\n", len(changed))
	for _, f := range changed {
		fmt.Printf("  %s\n", f.Path)
	}
	return nil
}
