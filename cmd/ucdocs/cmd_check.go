package main

import (
	"context"
	"fmt"

	"ucdocs/internal/check"

	"github.com/spf13/cobra"
)

// checkCmd validates the workspace without writing anything
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate annotations, outlines, and README freshness",
	Long: `Validates the workspace and exits 1 when anything is wrong: malformed
or duplicate annotations, broken part sequences, unresolvable spans, outline
references to unknown ids, annotations no outline uses, missing attachments,
and READMEs that are stale against the current sources.

Sources, outlines, and READMEs are never modified.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	idx, problems, err := e.buildIndex(ctx, result, false)
	if err != nil {
		return err
	}

	report, err := check.Run(ctx, e.root, e.cfg, result, idx, problems)
	if err != nil {
		return err
	}

	if report.OK() {
		fmt.Println(okStyle.Render("ok") + fmt.Sprintf(": %d annotations across %d files", len(idx.Entries), len(idx.Files)))
		return nil
	}

	for _, f := range report.Findings {
		fmt.Println(errStyle.Render(f.String()))
	}
	fmt.Printf("%d findings\n", len(report.Findings))

	// Exit happens in main, after PersistentPostRun has flushed the logs
	exitCode = 1
	return nil
}
