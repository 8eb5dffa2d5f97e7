package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/section-sniper/internal/coursetask"
	"github.com/example/section-sniper/internal/enrollment"
)

var ErrTooManyRestarts = errors.New("too many restarts")

// ResultSink receives every task result after a cycle's tasks have all finished.
type ResultSink interface {
	Record(ctx context.Context, cycleID uuid.UUID, userID string, r coursetask.Result) error
}

type Orchestrator struct {
	Service     enrollment.Service
	Credentials enrollment.Credentials
	Preferences enrollment.Preferences
	Task        coursetask.Options

	// MaxRestarts caps token-expiry restarts. <=0 means unbounded.
	MaxRestarts  int
	// RestartDelay is the pause before logging in again after a token expiry.
	// <=0 falls back to the task retry interval.
	RestartDelay time.Duration

	Sinks []ResultSink
	Log   logrus.FieldLogger
}

type CycleReport struct {
	ID      uuid.UUID
	Attempt int
	Results []coursetask.Result
	Skipped []string
	Restart bool
}

// Failures returns the results that ended with an error.
func (r CycleReport) Failures() []coursetask.Result {
	var out []coursetask.Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Run executes cycles until one finishes without a token expiry. It returns the report
// of the last cycle. Login failures end the run.
func (o *Orchestrator) Run(ctx context.Context) (CycleReport, error) {
	for attempt := 1; ; attempt++ {
		report, err := o.RunCycle(ctx, attempt)
		if err != nil {
			return report, err
		}
		if !report.Restart {
			return report, nil
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if o.MaxRestarts > 0 && attempt > o.MaxRestarts {
			return report, fmt.Errorf("%w: %d", ErrTooManyRestarts, o.MaxRestarts)
		}
		delay := o.restartDelay()
		o.logger().WithFields(logrus.Fields{"cycle": report.ID, "delay": delay}).Warn("restarting due to invalid token")
		if err := coursetask.Sleep(ctx, delay); err != nil {
			return report, err
		}
	}
}

// warnUnknownPreferences flags configured course codes that the service did not list,
// usually a typo in the preferences file.
func warnUnknownPreferences(log logrus.FieldLogger, prefs enrollment.Preferences, courses []enrollment.Course) {
	listed := make(map[string]bool, len(courses))
	for _, c := range courses {
		listed[c.Code] = true
	}
	for _, code := range prefs.Courses() {
		if !listed[code] {
			log.WithField("course", code).Warn("preferred course is not preadvised")
		}
	}
}

func (o *Orchestrator) restartDelay() time.Duration {
	if o.RestartDelay > 0 {
		return o.RestartDelay
	}
	if o.Task.RetryInterval > 0 {
		return o.Task.RetryInterval
	}
	return time.Second
}

// RunCycle performs one login, discover, spawn, join and restart-decision pass.
func (o *Orchestrator) RunCycle(ctx context.Context, attempt int) (CycleReport, error) {
	report := CycleReport{ID: uuid.New(), Attempt: attempt}
	log := o.logger().WithFields(logrus.Fields{"cycle": report.ID, "attempt": attempt})

	sess, err := o.Service.Login(ctx, o.Credentials)
	if err != nil {
		return report, fmt.Errorf("login: %w", err)
	}
	log.Info("logged in")

	courses, err := sess.PreadvisedCourses(ctx)
	if err != nil {
		if enrollment.IsTokenExpired(err) {
			log.WithError(err).Warn("preadvised courses rejected the session")
			report.Restart = true
			return report, nil
		}
		return report, fmt.Errorf("preadvised courses: %w", err)
	}
	log.Infof("preadvised courses: %d", len(courses))
	warnUnknownPreferences(log, o.Preferences, courses)

	var tasks []*coursetask.Task
	for _, c := range courses {
		prefs := o.Preferences.For(c.Code)
		if len(prefs) == 0 {
			log.WithField("course", c.Code).Info("no preferred sections configured, skipping")
			report.Skipped = append(report.Skipped, c.Code)
			continue
		}
		tasks = append(tasks, &coursetask.Task{
			Session:     sess,
			Course:      c,
			UserID:      o.Credentials.UserID,
			Preferences: prefs,
			Options:     o.Task,
			Log:         log,
		})
	}

	report.Results = make([]coursetask.Result, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t *coursetask.Task) {
			defer wg.Done()
			report.Results[i] = t.Run(ctx)
		}(i, t)
	}
	wg.Wait()

	for _, res := range report.Results {
		for _, s := range o.Sinks {
			if err := s.Record(ctx, report.ID, o.Credentials.UserID, res); err != nil {
				log.WithField("course", res.CourseCode).WithError(err).Warn("record result")
			}
		}
		if res.OK() {
			continue
		}
		log.WithField("course", res.CourseCode).WithError(res.Err).Error("course task failed")
		if enrollment.IsTokenExpired(res.Err) {
			report.Restart = true
		}
	}
	return report, nil
}

func (o *Orchestrator) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}
