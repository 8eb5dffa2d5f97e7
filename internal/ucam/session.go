package ucam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/example/section-sniper/internal/enrollment"
)

// Session is an authenticated handle. It holds no mutable state and is safe for
// concurrent use.
type Session struct {
	c      *Client
	userID string
	token  string

	ExpiresAt time.Time
}

var _ enrollment.Session = (*Session)(nil)

func (s *Session) UserID() string { return s.userID }

type preadvisedData struct {
	UserID         string `json:"user_id"`
	RunningSession string `json:"running_session"`
	Courses        []struct {
		CourseCode string `json:"course_code"`
		CourseName string `json:"course_name"`
		FormalCode string `json:"formal_code"`
		Credits    int    `json:"credits"`
	} `json:"courses"`
	TotalCourses int `json:"total_courses"`
	TotalCredits int `json:"total_credits"`
}

func (s *Session) PreadvisedCourses(ctx context.Context) ([]enrollment.Course, error) {
	var data preadvisedData
	if err := s.c.call(ctx, "preadvised", http.MethodGet, preadvisedPath, s.token, nil, nil, &data); err != nil {
		return nil, err
	}
	out := make([]enrollment.Course, 0, len(data.Courses))
	for _, c := range data.Courses {
		out = append(out, enrollment.Course{Code: c.CourseCode, Name: c.CourseName, Credits: c.Credits})
	}
	return out, nil
}

type sectionsData struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Sections   []struct {
		SectionID    int64  `json:"section_id"`
		SectionName  string `json:"section_name"`
		TotalSeats   int    `json:"total_seats"`
		SeatsTaken   int    `json:"seats_taken"`
		IsEnrolled   bool   `json:"is_enrolled"`
		FacultyName  string `json:"faculty_name"`
		FacultyEmail string `json:"faculty_email"`
	} `json:"sections"`
	SelectionOpen  bool    `json:"selection_open"`
	RunningSession string  `json:"running_session"`
	Credits        int     `json:"credits"`
	SelectionStart apiTime `json:"section_selection_start_time"`
	SelectionEnd   apiTime `json:"section_selection_end_time"`
}

func (s *Session) FetchSections(ctx context.Context, courseCode, userID string) (enrollment.Snapshot, error) {
	var data sectionsData
	q := url.Values{"student_id": {userID}}
	path := sectionsPath + "/" + url.PathEscape(courseCode)
	if err := s.c.call(ctx, "sections", http.MethodGet, path, s.token, q, nil, &data); err != nil {
		return enrollment.Snapshot{}, err
	}
	snap := enrollment.Snapshot{
		CourseCode:     data.CourseCode,
		CourseName:     data.CourseName,
		SelectionOpen:  data.SelectionOpen,
		SelectionStart: data.SelectionStart.Time,
		SelectionEnd:   data.SelectionEnd.Time,
		Sections:       make([]enrollment.Section, 0, len(data.Sections)),
	}
	if snap.CourseCode == "" {
		snap.CourseCode = courseCode
	}
	for _, sec := range data.Sections {
		snap.Sections = append(snap.Sections, enrollment.Section{
			ID:           sec.SectionID,
			Name:         sec.SectionName,
			TotalSeats:   sec.TotalSeats,
			SeatsTaken:   sec.SeatsTaken,
			Enrolled:     sec.IsEnrolled,
			FacultyName:  sec.FacultyName,
			FacultyEmail: sec.FacultyEmail,
		})
	}
	return snap, nil
}

type sectionAction struct {
	SectionID        int64  `json:"section_id"`
	Action           string `json:"action"`
	ParentCourseCode string `json:"parent_course_code"`
}

func (s *Session) SubmitSelection(ctx context.Context, courseCode string, sectionID int64) error {
	body, err := json.Marshal(sectionAction{SectionID: sectionID, Action: "select", ParentCourseCode: courseCode})
	if err != nil {
		return err
	}
	path := sectionsPath + "/" + url.PathEscape(courseCode) + "/select"
	return s.c.call(ctx, "select", http.MethodPost, path, s.token, nil, body, nil)
}

type service struct{ c *Client }

func (s service) Login(ctx context.Context, creds enrollment.Credentials) (enrollment.Session, error) {
	sess, err := s.c.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// AsService adapts the client to enrollment.Service.
func (c *Client) AsService() enrollment.Service { return service{c: c} }
