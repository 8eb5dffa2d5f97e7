package coursetask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/section-sniper/internal/enrollment"
)

type Options struct {
	// RetryInterval is the pause after a transient fetch failure or an empty snapshot.
	RetryInterval time.Duration
	// WaitInterval is the pause when no preferred section has a free seat.
	WaitInterval time.Duration

	// MaxAttempts caps the number of polls. <=0 means unbounded.
	MaxAttempts int
	// Deadline caps the task's wall-clock lifetime. <=0 means unbounded.
	Deadline time.Duration
}

func (o Options) withDefaults() Options {
	if o.RetryInterval <= 0 {
		o.RetryInterval = time.Second
	}
	if o.WaitInterval <= 0 {
		o.WaitInterval = 10 * time.Second
	}
	return o
}

type Status int

const (
	StatusFailed Status = iota
	StatusSubmitted
	StatusAlreadyEnrolled
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusAlreadyEnrolled:
		return "already-enrolled"
	default:
		return "failed"
	}
}

// Result is the terminal outcome of one task.
type Result struct {
	CourseCode  string
	CourseName  string
	Status      Status
	SectionID   int64
	SectionName string
	Polls       int
	Err         error
}

func (r Result) OK() bool { return r.Err == nil }

type state int

const (
	statePolling state = iota
	stateDeciding
	stateSubmitting
	stateWaiting
)

// Task polls one course until it either submits a selection or finds the user already
// enrolled. It submits at most once.
type Task struct {
	Session     enrollment.Session
	Course      enrollment.Course
	UserID      string
	Preferences []string
	Options     Options
	Log         logrus.FieldLogger
}

func (t *Task) Run(ctx context.Context) Result {
	opts := t.Options.withDefaults()
	log := t.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("course", t.Course.Code)
	res := Result{CourseCode: t.Course.Code, CourseName: t.Course.Name, Status: StatusFailed}
	started := time.Now()

	var (
		snap   enrollment.Snapshot
		chosen enrollment.Section
		wait   time.Duration
	)

	log.WithField("preferences", t.Preferences).Info("started section selection")

	st := statePolling
	for {
		switch st {
		case statePolling:
			if opts.MaxAttempts > 0 && res.Polls >= opts.MaxAttempts {
				res.Err = fmt.Errorf("%w: %d polls", enrollment.ErrGaveUp, res.Polls)
				log.WithField("action", "give-up").Warn(res.Err)
				return res
			}
			if opts.Deadline > 0 && time.Since(started) >= opts.Deadline {
				res.Err = fmt.Errorf("%w: deadline %s passed", enrollment.ErrGaveUp, opts.Deadline)
				log.WithField("action", "give-up").Warn(res.Err)
				return res
			}

			res.Polls++
			var err error
			snap, err = t.Session.FetchSections(ctx, t.Course.Code, t.UserID)
			switch {
			case err != nil && ctx.Err() != nil:
				res.Err = ctx.Err()
				return res
			case err != nil && (enrollment.IsTokenExpired(err) || errors.Is(err, enrollment.ErrAuth)):
				res.Err = err
				log.WithField("action", "fetch").WithError(err).Error("session no longer valid")
				return res
			case err != nil:
				log.WithField("action", "fetch").WithError(err).Debug("sections not available yet")
				wait, st = opts.RetryInterval, stateWaiting
			case len(snap.Sections) == 0:
				log.WithField("action", "fetch").Debug("no sections listed yet")
				wait, st = opts.RetryInterval, stateWaiting
			default:
				if snap.CourseName != "" {
					res.CourseName = snap.CourseName
				}
				st = stateDeciding
			}

		case stateDeciding:
			out := enrollment.Select(snap, t.Preferences)
			switch out.Decision {
			case enrollment.AlreadyEnrolled:
				res.Status = StatusAlreadyEnrolled
				res.SectionID, res.SectionName = out.Section.ID, out.Section.Name
				log.WithFields(logrus.Fields{"action": "skip", "section": out.Section.Name}).
					Infof("already enrolled in %s, skipping", res.CourseName)
				return res
			case enrollment.SectionChosen:
				chosen, st = out.Section, stateSubmitting
			default:
				log.WithField("action", "wait").Debugf("no preferred section open, next poll in %s", opts.WaitInterval)
				wait, st = opts.WaitInterval, stateWaiting
			}

		case stateSubmitting:
			res.SectionID, res.SectionName = chosen.ID, chosen.Name
			err := t.Session.SubmitSelection(ctx, t.Course.Code, chosen.ID)
			entry := log.WithFields(logrus.Fields{"action": "submit", "section": chosen.Name, "section_id": chosen.ID})
			if err != nil {
				res.Err = err
				entry.WithField("result", "error").WithError(err).Error("section selection failed")
				return res
			}
			res.Status = StatusSubmitted
			entry.WithField("result", "ok").Info("section selected")
			return res

		case stateWaiting:
			if opts.Deadline > 0 {
				if left := opts.Deadline - time.Since(started); left < wait {
					wait = max(left, 0)
				}
			}
			if err := Sleep(ctx, wait); err != nil {
				res.Err = err
				return res
			}
			st = statePolling
		}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
