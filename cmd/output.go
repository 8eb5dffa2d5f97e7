package cmd

import (
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/example/section-sniper/internal/attempts"
	"github.com/example/section-sniper/internal/coursetask"
	"github.com/example/section-sniper/internal/enrollment"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func statusText(r coursetask.Result) string {
	switch {
	case !r.OK():
		return color.RedString(r.Status.String())
	case r.Status == coursetask.StatusAlreadyEnrolled:
		return color.YellowString(r.Status.String())
	default:
		return color.GreenString(r.Status.String())
	}
}

func renderResults(w io.Writer, results []coursetask.Result) {
	table := newTable(w, []string{"Course", "Status", "Section", "Polls", "Error"})
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		table.Append([]string{r.CourseCode, statusText(r), r.SectionName, strconv.Itoa(r.Polls), errText})
	}
	table.Render()
}

func renderCourses(w io.Writer, courses []enrollment.Course, prefs enrollment.Preferences) {
	table := newTable(w, []string{"Code", "Name", "Credits", "Preferred"})
	for _, c := range courses {
		preferred := color.HiBlackString("-")
		if p := prefs.For(c.Code); len(p) > 0 {
			preferred = color.CyanString("%d", len(p))
		}
		table.Append([]string{c.Code, c.Name, strconv.Itoa(c.Credits), preferred})
	}
	table.Render()
}

func renderSnapshot(w io.Writer, snap enrollment.Snapshot) {
	table := newTable(w, []string{"ID", "Section", "Seats", "Faculty", "Enrolled"})
	for _, s := range snap.Sections {
		seats := strconv.Itoa(s.SeatsTaken) + "/" + strconv.Itoa(s.TotalSeats)
		if s.Open() {
			seats = color.GreenString(seats)
		} else {
			seats = color.RedString(seats)
		}
		enrolled := ""
		if s.Enrolled {
			enrolled = color.YellowString("yes")
		}
		table.Append([]string{strconv.FormatInt(s.ID, 10), s.Name, seats, s.FacultyName, enrolled})
	}
	table.Render()
}

func renderAttempts(w io.Writer, list []attempts.Attempt) {
	table := newTable(w, []string{"ID", "Cycle", "Course", "Status", "Section", "Polls", "At"})
	for _, a := range list {
		section := ""
		if a.SectionName != nil {
			section = *a.SectionName
		}
		table.Append([]string{
			strconv.FormatInt(a.ID, 10),
			a.CycleID.String()[:8],
			a.CourseCode,
			a.Status,
			section,
			strconv.Itoa(a.Polls),
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}
