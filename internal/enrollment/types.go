package enrollment

import "time"

type Credentials struct {
	UserID   string
	Password string

	// LogoutOtherSessions asks the service to invalidate the user's other active sessions.
	LogoutOtherSessions bool
}

type Course struct {
	Code    string
	Name    string
	Credits int
}

type Section struct {
	ID         int64
	Name       string
	TotalSeats int
	SeatsTaken int
	Enrolled   bool

	FacultyName  string
	FacultyEmail string
}

// Open reports whether the section still has a free seat.
func (s Section) Open() bool {
	return s.SeatsTaken < s.TotalSeats
}

// Snapshot is the state of one course's sections at the time of a single poll.
// It is never cached across polls.
type Snapshot struct {
	CourseCode string
	CourseName string
	Sections   []Section

	SelectionOpen  bool
	SelectionStart time.Time
	SelectionEnd   time.Time
}
