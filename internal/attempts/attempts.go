package attempts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/section-sniper/internal/coursetask"
	"github.com/example/section-sniper/internal/db"
)

// Attempt is one journaled course task result.
type Attempt struct {
	ID          int64
	CycleID     uuid.UUID
	StudentID   string
	CourseCode  string
	CourseName  string
	Status      string
	SectionID   *int64
	SectionName *string
	Polls       int
	LastError   *string
	CreatedAt   time.Time
}

// FromResult converts a task result into its journal row.
func FromResult(cycleID uuid.UUID, studentID string, r coursetask.Result) Attempt {
	a := Attempt{
		CycleID:    cycleID,
		StudentID:  studentID,
		CourseCode: r.CourseCode,
		CourseName: r.CourseName,
		Status:     r.Status.String(),
		Polls:      r.Polls,
	}
	if r.SectionID != 0 {
		id, name := r.SectionID, r.SectionName
		a.SectionID, a.SectionName = &id, &name
	}
	if r.Err != nil {
		msg := r.Err.Error()
		a.LastError = &msg
	}
	return a
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

// Record implements orchestrator.ResultSink.
func (r *Repo) Record(ctx context.Context, cycleID uuid.UUID, studentID string, res coursetask.Result) error {
	_, err := r.Create(ctx, FromResult(cycleID, studentID, res))
	return err
}

func (r *Repo) Create(ctx context.Context, a Attempt) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO enrollment_attempts(cycle_id,student_id,course_code,course_name,status,section_id,section_name,polls,last_error)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		a.CycleID.String(), a.StudentID, a.CourseCode, a.CourseName, a.Status, a.SectionID, a.SectionName, a.Polls, a.LastError,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("attempts: insert %s: %w", a.CourseCode, err)
	}
	return id, nil
}

func (r *Repo) ListByStudent(ctx context.Context, studentID string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id,cycle_id::text,student_id,course_code,course_name,status,section_id,section_name,polls,last_error,created_at
FROM enrollment_attempts
WHERE student_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var cycle string
		if err := rows.Scan(&a.ID, &cycle, &a.StudentID, &a.CourseCode, &a.CourseName, &a.Status,
			&a.SectionID, &a.SectionName, &a.Polls, &a.LastError, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CycleID, err = uuid.Parse(cycle)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: cycle id: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
