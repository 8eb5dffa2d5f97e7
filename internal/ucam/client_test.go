package ucam_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/section-sniper/internal/enrollment"
	"github.com/example/section-sniper/internal/ucam"
)

const token = "tok-123"

type fakeAPI struct {
	t            *testing.T
	loginStatus  string
	sectionsBody string
	sectionsCode int
	selectBody   string
	lastSelect   map[string]any
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodPost, r.Method)
		var req map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		if f.loginStatus != "success" || req["password"] != "secret" {
			_, _ = io.WriteString(w, `{"status":"error","data":null,"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"access_token":"`+token+`","refresh_token":"r","access_token_expires_at":"2026-10-19T12:00:00Z","refresh_token_expires_at":"2026-10-20T12:00:00Z"}}`)
	})
	mux.HandleFunc("/v3/users/me/preadvice-courses", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"status":"error","message":"Invalid token"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"user_id":"011201001","running_session":"243","courses":[
			{"course_code":"1372-1-1","course_name":"Data Structures","formal_code":"CSE 2215","ucam_ref":9,"credits":3},
			{"course_code":"1393-1-1","course_name":"Discrete Mathematics","formal_code":"CSE 2213","ucam_ref":10,"credits":3}
		],"total_courses":2,"total_credits":6}}`)
	})
	mux.HandleFunc("/v3/courses/sections/1372-1-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "011201001", r.URL.Query().Get("student_id"))
		assert.Equal(f.t, "Bearer "+token, r.Header.Get("authorization"))
		assert.Equal(f.t, ucam.DefaultSiteOrigin, r.Header.Get("origin"))
		if f.sectionsCode != 0 {
			w.WriteHeader(f.sectionsCode)
		}
		_, _ = io.WriteString(w, f.sectionsBody)
	})
	mux.HandleFunc("/v3/courses/sections/1372-1-1/select", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodPost, r.Method)
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastSelect))
		_, _ = io.WriteString(w, f.selectBody)
	})
	return mux
}

func setup(t *testing.T, f *fakeAPI) *ucam.Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return ucam.New(ucam.Options{Origin: srv.URL, Timeout: 2 * time.Second})
}

func login(t *testing.T, c *ucam.Client) *ucam.Session {
	t.Helper()
	s, err := c.Login(context.Background(), enrollment.Credentials{UserID: "011201001", Password: "secret"})
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "success"})

	s := login(t, c)

	assert.Equal(t, "011201001", s.UserID())
	assert.Equal(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), s.ExpiresAt.UTC())
}

func TestLogin_Rejected(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "error"})

	_, err := c.Login(context.Background(), enrollment.Credentials{UserID: "011201001", Password: "wrong"})

	require.ErrorIs(t, err, enrollment.ErrAuth)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.False(t, enrollment.IsTokenExpired(err))
}

func TestLogin_Unreachable(t *testing.T) {
	c := ucam.New(ucam.Options{Origin: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := c.Login(context.Background(), enrollment.Credentials{UserID: "x", Password: "y"})

	require.ErrorIs(t, err, ucam.ErrTransport)
	assert.False(t, errors.Is(err, enrollment.ErrAuth))
}

func TestPreadvisedCourses(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "success"})
	s := login(t, c)

	courses, err := s.PreadvisedCourses(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []enrollment.Course{
		{Code: "1372-1-1", Name: "Data Structures", Credits: 3},
		{Code: "1393-1-1", Name: "Discrete Mathematics", Credits: 3},
	}, courses)
}

func TestFetchSections(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "success", sectionsBody: `{"status":"success","data":{
		"course_code":"1372-1-1","course_name":"Data Structures","selection_open":true,"running_session":"243","credits":3,
		"section_selection_start_time":"2026-10-19T03:00:00Z","section_selection_end_time":"not a time",
		"sections":[
			{"section_id":101,"section_name":"A","total_seats":40,"seats_taken":40,"is_enrolled":false,"faculty_name":"X","faculty_email":"x@uiu.ac.bd"},
			{"section_id":102,"section_name":"B","total_seats":40,"seats_taken":12,"is_enrolled":true,"faculty_name":"Y","faculty_email":"y@uiu.ac.bd"}
		]}}`})
	s := login(t, c)

	snap, err := s.FetchSections(context.Background(), "1372-1-1", "011201001")

	require.NoError(t, err)
	assert.Equal(t, "Data Structures", snap.CourseName)
	assert.True(t, snap.SelectionOpen)
	assert.True(t, snap.SelectionEnd.IsZero())
	require.Len(t, snap.Sections, 2)
	assert.Equal(t, enrollment.Section{ID: 102, Name: "B", TotalSeats: 40, SeatsTaken: 12, Enrolled: true, FacultyName: "Y", FacultyEmail: "y@uiu.ac.bd"}, snap.Sections[1])
	assert.False(t, snap.Sections[0].Open())
}

func TestFetchSections_InvalidToken(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "success", sectionsBody: `{"status":"error","data":null,"message":"Invalid token"}`})
	s := login(t, c)

	_, err := s.FetchSections(context.Background(), "1372-1-1", "011201001")

	require.ErrorIs(t, err, enrollment.ErrTokenExpired)
	assert.True(t, enrollment.IsTokenExpired(err))
}

func TestFetchSections_Unauthorized(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "success", sectionsCode: http.StatusUnauthorized, sectionsBody: `{"message":"Unauthorized"}`})
	s := login(t, c)

	_, err := s.FetchSections(context.Background(), "1372-1-1", "011201001")

	require.ErrorIs(t, err, enrollment.ErrTokenExpired)
}

func TestFetchSections_TransientFailures(t *testing.T) {
	for name, body := range map[string]string{
		"error status": `{"status":"error","message":"Selection window closed"}`,
		"no data":      `{"status":"success","data":null}`,
		"garbage":      `<html>bad gateway</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			c := setup(t, &fakeAPI{loginStatus: "success", sectionsBody: body})
			s := login(t, c)

			_, err := s.FetchSections(context.Background(), "1372-1-1", "011201001")

			require.ErrorIs(t, err, enrollment.ErrFetch)
			assert.False(t, enrollment.IsTokenExpired(err))
		})
	}
}

func TestSubmitSelection(t *testing.T) {
	f := &fakeAPI{loginStatus: "success", selectBody: `{"status":"success","data":{}}`}
	c := setup(t, f)
	s := login(t, c)

	err := s.SubmitSelection(context.Background(), "1372-1-1", 102)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"section_id": float64(102), "action": "select", "parent_course_code": "1372-1-1"}, f.lastSelect)
}

func TestSubmitSelection_Rejected(t *testing.T) {
	c := setup(t, &fakeAPI{loginStatus: "success", selectBody: `{"status":"error","message":"Section is full"}`})
	s := login(t, c)

	err := s.SubmitSelection(context.Background(), "1372-1-1", 102)

	require.ErrorIs(t, err, enrollment.ErrRejected)
	assert.Contains(t, err.Error(), "Section is full")
}

func TestRateLimit(t *testing.T) {
	f := &fakeAPI{loginStatus: "success", selectBody: `{"status":"success"}`}
	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c := ucam.New(ucam.Options{Origin: srv.URL, RateLimitRPS: 20})
	s := login(t, c)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SubmitSelection(context.Background(), "1372-1-1", 1))
	}
	// login + 3 submits at 20 rps with burst 1 needs at least 3 intervals of 50ms.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
