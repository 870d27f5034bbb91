package cli

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"tably-service/internal/app"
	"tably-service/internal/domain"
	"tably-service/internal/infra/memory"
	"tably-service/internal/quiz"
)

// NewQuestionsCmd prints the question list a configuration produces.
func NewQuestionsCmd() *cobra.Command {
	var (
		mode    string
		tables  []int
		seconds int
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the questions generated for a configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			service := app.NewQuizService(app.Stores{Sessions: memory.NewSessionStore()})
			questions, err := service.Questions(domain.TestConfiguration{
				Mode:               domain.Mode(mode),
				SelectedTables:     tables,
				SecondsPerQuestion: seconds,
			})
			if err != nil {
				return err
			}
			if seed != 0 {
				quiz.Shuffle(questions, rand.New(rand.NewSource(seed)))
			}
			out := cmd.OutOrStdout()
			for i, q := range questions {
				fmt.Fprintf(out, "%3d. %d x %d = %d\n", i+1, q.FactorA, q.FactorB, q.ExpectedAnswer)
			}
			fmt.Fprintf(out, "%d questions\n", len(questions))
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeResumida), "resumida, completa or participar")
	cmd.Flags().IntSliceVar(&tables, "tables", []int{2}, "tables to practice")
	cmd.Flags().IntVar(&seconds, "seconds", 5, "seconds per question")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle with this seed (0 keeps generation order)")
	return cmd
}
