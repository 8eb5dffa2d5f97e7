package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/section-sniper/internal/enrollment"
	"github.com/example/section-sniper/internal/ucam"
)

func newSectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <student_id> <password> <course_code>",
		Short: "Show a live section snapshot for one course and what would be selected",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentialsFromArgs(args[0], args[1], false)
			if err != nil {
				return err
			}
			sess, err := ucam.New(a.cfg.ClientOptions()).Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			snap, err := sess.FetchSections(cmd.Context(), args[2], sess.UserID())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", snap.CourseCode, snap.CourseName)
			if len(snap.Sections) == 0 {
				fmt.Fprintln(out, "No sections returned.")
				return nil
			}
			renderSnapshot(out, snap)

			preferred := optionalPreferences(a.cfg.Preferences).For(args[2])
			outcome := enrollment.Select(snap, preferred)
			switch outcome.Decision {
			case enrollment.SectionChosen, enrollment.AlreadyEnrolled:
				fmt.Fprintf(out, "decision: %s (%s)\n", outcome.Decision, outcome.Section.Name)
			default:
				fmt.Fprintf(out, "decision: %s\n", outcome.Decision)
			}
			return nil
		},
	}
}
