package main

import (
	"fmt"

	"ucdocs/internal/store"

	"github.com/spf13/cobra"
)

var (
	queryCategory  string
	queryNamespace string
	queryLanguage  string
	queryExercise  string
)

// queryCmd queries the taxonomy database
var queryCmd = &cobra.Command{
	Use:   "query [annotation-id]",
	Short: "Query the exercise taxonomy",
	Long: `Queries the taxonomy database populated by sync.

Without arguments, lists exercises (filterable by category and namespace).
With --language or --exercise, lists matching annotations. With an
annotation id argument, shows that annotation.

Examples:
  ucdocs query --category memory-safety
  ucdocs query --language c
  ucdocs query use-after-free-intro`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryCategory, "category", "", "Filter exercises by category")
	queryCmd.Flags().StringVar(&queryNamespace, "namespace", "", "Filter exercises by namespace")
	queryCmd.Flags().StringVar(&queryLanguage, "language", "", "List annotations in a language")
	queryCmd.Flags().StringVar(&queryExercise, "exercise", "", "List annotations in an exercise directory")
}

func runQuery(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}

	s, err := openTaxonomy(e)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 1 {
		return queryOne(s, args[0])
	}

	if queryLanguage != "" || queryExercise != "" {
		rows, err := s.Annotations(store.AnnotationQuery{
			Exercise: queryExercise,
			Language: queryLanguage,
		})
		if err != nil {
			return err
		}
		for _, a := range rows {
			fmt.Printf("%-32s %-10s %s (%d parts)\n", a.ID, a.Language, a.Exercise, a.Parts)
		}
		fmt.Printf("%d annotations\n", len(rows))
		return nil
	}

	exercises, err := s.Exercises(store.ExerciseQuery{
		Category:  queryCategory,
		Namespace: queryNamespace,
	})
	if err != nil {
		return err
	}
	for _, ex := range exercises {
		fmt.Printf("%-40s %-20s %s\n", ex.Dir, ex.Category, ex.Title)
	}
	fmt.Printf("%d exercises\n", len(exercises))
	return nil
}

func queryOne(s *store.TaxonomyStore, id string) error {
	a, err := s.Annotation(id)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("annotation %q not found; run `ucdocs sync` first", id)
	}
	fmt.Printf("id:        %s\n", a.ID)
	fmt.Printf("title:     %s\n", a.Title)
	fmt.Printf("exercise:  %s\n", a.Exercise)
	fmt.Printf("language:  %s\n", a.Language)
	fmt.Printf("file:      %s (lines %d-%d)\n", a.File, a.StartLine, a.EndLine)
	fmt.Printf("parts:     %d\n", a.Parts)
	return nil
}
