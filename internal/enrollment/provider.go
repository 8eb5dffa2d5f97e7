package enrollment

import "context"

// Service obtains authenticated sessions from the registration platform.
type Service interface {
	Login(ctx context.Context, creds Credentials) (Session, error)
}

// Session is an authenticated handle. It is read-only after Login and is shared by
// every course task of a cycle.
type Session interface {
	UserID() string
	PreadvisedCourses(ctx context.Context) ([]Course, error)
	FetchSections(ctx context.Context, courseCode, userID string) (Snapshot, error)
	SubmitSelection(ctx context.Context, courseCode string, sectionID int64) error
}
