package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/section-sniper/internal/config"
	"github.com/example/section-sniper/internal/enrollment"
	"github.com/example/section-sniper/internal/ucam"
)

func newCoursesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "courses <student_id> <password>",
		Short: "List preadvised courses and whether preferences cover them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentialsFromArgs(args[0], args[1], false)
			if err != nil {
				return err
			}
			sess, err := ucam.New(a.cfg.ClientOptions()).Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "session valid until %s\n", sess.ExpiresAt.Local().Format(time.DateTime))
			}
			courses, err := sess.PreadvisedCourses(cmd.Context())
			if err != nil {
				return err
			}
			if len(courses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No preadvised courses found.")
				return nil
			}
			renderCourses(cmd.OutOrStdout(), courses, optionalPreferences(a.cfg.Preferences))
			return nil
		},
	}
}

// optionalPreferences loads preferences for display only; a missing or broken file yields none.
func optionalPreferences(path string) enrollment.Preferences {
	prefs, err := config.LoadPreferences(path)
	if err != nil {
		return enrollment.NewPreferences(nil)
	}
	return prefs
}
