// Package enrollmenttest provides scripted in-memory implementations of
// enrollment.Service and enrollment.Session for tests.
package enrollmenttest

import (
	"context"
	"errors"
	"sync"

	"github.com/example/section-sniper/internal/enrollment"
)

// FetchFunc answers the n-th (1-based) FetchSections call for one course.
type FetchFunc func(n int) (enrollment.Snapshot, error)

type Submission struct {
	CourseCode string
	SectionID  int64
}

type Session struct {
	User       string
	Courses    []enrollment.Course
	CoursesErr error
	Fetch      map[string]FetchFunc
	Submit     func(courseCode string, sectionID int64) error

	mu      sync.Mutex
	fetches map[string]int
	submits []Submission
}

func (s *Session) UserID() string { return s.User }

func (s *Session) PreadvisedCourses(ctx context.Context) ([]enrollment.Course, error) {
	if s.CoursesErr != nil {
		return nil, s.CoursesErr
	}
	return append([]enrollment.Course(nil), s.Courses...), nil
}

func (s *Session) FetchSections(ctx context.Context, courseCode, userID string) (enrollment.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return enrollment.Snapshot{}, err
	}
	s.mu.Lock()
	if s.fetches == nil {
		s.fetches = map[string]int{}
	}
	s.fetches[courseCode]++
	n := s.fetches[courseCode]
	f := s.Fetch[courseCode]
	s.mu.Unlock()

	if f == nil {
		return enrollment.Snapshot{CourseCode: courseCode}, nil
	}
	return f(n)
}

func (s *Session) SubmitSelection(ctx context.Context, courseCode string, sectionID int64) error {
	s.mu.Lock()
	s.submits = append(s.submits, Submission{CourseCode: courseCode, SectionID: sectionID})
	submit := s.Submit
	s.mu.Unlock()
	if submit == nil {
		return nil
	}
	return submit(courseCode, sectionID)
}

func (s *Session) Fetches(courseCode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[courseCode]
}

func (s *Session) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submits...)
}

// ErrNoSessions is returned by Service.Login when neither Sessions nor LoginErr is set.
var ErrNoSessions = errors.New("enrollmenttest: no sessions configured")

// Service hands out Sessions in order, one per Login. The last session is reused once
// the list is exhausted.
type Service struct {
	Sessions []*Session
	LoginErr error

	mu     sync.Mutex
	logins []enrollment.Credentials
}

func (s *Service) Login(ctx context.Context, creds enrollment.Credentials) (enrollment.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, creds)
	if s.LoginErr != nil {
		return nil, s.LoginErr
	}
	if len(s.Sessions) == 0 {
		return nil, ErrNoSessions
	}
	i := len(s.logins) - 1
	if i >= len(s.Sessions) {
		i = len(s.Sessions) - 1
	}
	return s.Sessions[i], nil
}

func (s *Service) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logins)
}

// Always returns a FetchFunc that answers every call with snap.
func Always(snap enrollment.Snapshot) FetchFunc {
	return func(int) (enrollment.Snapshot, error) { return snap, nil }
}

// Sequence answers call n with steps[n-1], repeating the last step afterwards.
func Sequence(steps ...FetchFunc) FetchFunc {
	return func(n int) (enrollment.Snapshot, error) {
		i := n - 1
		if i >= len(steps) {
			i = len(steps) - 1
		}
		return steps[i](n)
	}
}

func Fail(err error) FetchFunc {
	return func(int) (enrollment.Snapshot, error) { return enrollment.Snapshot{}, err }
}
