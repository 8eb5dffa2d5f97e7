package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/section-sniper/internal/attempts"
	"github.com/example/section-sniper/internal/db"
)

func newAttemptsCmd(a *app) *cobra.Command {
	var (
		studentID string
		limit     int
	)
	c := &cobra.Command{
		Use:   "attempts",
		Short: "List journaled attempts for a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return errors.New("database_url is not configured")
			}
			if studentID == "" {
				return errors.New("--student-id is required")
			}
			d, err := db.Open(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			list, err := attempts.NewRepo(d).ListByStudent(cmd.Context(), studentID, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attempts found.")
				return nil
			}
			renderAttempts(cmd.OutOrStdout(), list)
			return nil
		},
	}
	c.Flags().StringVar(&studentID, "student-id", "", "student id to list")
	c.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of attempts to show")
	return c
}
