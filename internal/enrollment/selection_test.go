package enrollment_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/section-sniper/internal/enrollment"
)

func sec(id int64, name string, taken, total int) enrollment.Section {
	return enrollment.Section{ID: id, Name: name, SeatsTaken: taken, TotalSeats: total}
}

func enrolled(s enrollment.Section) enrollment.Section {
	s.Enrolled = true
	return s
}

func TestSelect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		sections []enrollment.Section
		prefs    []string
		want     enrollment.Decision
		wantID   int64
	}{
		{
			name:     "skips full section and picks open match",
			sections: []enrollment.Section{sec(1, "Sec-A", 30, 30), sec(2, "Sec-B", 10, 30)},
			prefs:    []string{"B"},
			want:     enrollment.SectionChosen,
			wantID:   2,
		},
		{
			name:     "only matching section is full",
			sections: []enrollment.Section{sec(2, "Sec-B", 30, 30)},
			prefs:    []string{"B"},
			want:     enrollment.NoneAvailable,
		},
		{
			name:     "earlier preference wins over snapshot order",
			sections: []enrollment.Section{sec(1, "K", 0, 40), sec(2, "B", 0, 40)},
			prefs:    []string{"B", "K"},
			want:     enrollment.SectionChosen,
			wantID:   2,
		},
		{
			name:     "falls back to later preference when earlier is full",
			sections: []enrollment.Section{sec(1, "K", 0, 40), sec(2, "B", 40, 40)},
			prefs:    []string{"B", "K"},
			want:     enrollment.SectionChosen,
			wantID:   1,
		},
		{
			name:     "ties go to first snapshot entry",
			sections: []enrollment.Section{sec(7, "Sec-B1", 1, 40), sec(8, "Sec-B2", 0, 40)},
			prefs:    []string{"b"},
			want:     enrollment.SectionChosen,
			wantID:   7,
		},
		{
			name:     "case insensitive match",
			sections: []enrollment.Section{sec(3, "sec-d", 0, 10)},
			prefs:    []string{"SEC-D"},
			want:     enrollment.SectionChosen,
			wantID:   3,
		},
		{
			name:     "already enrolled beats open sections",
			sections: []enrollment.Section{sec(1, "Sec-B", 0, 30), enrolled(sec(2, "Sec-K", 30, 30))},
			prefs:    []string{"B", "K"},
			want:     enrollment.AlreadyEnrolled,
			wantID:   2,
		},
		{
			name:     "enrolled in non preferred section is ignored",
			sections: []enrollment.Section{enrolled(sec(1, "Sec-A", 30, 30)), sec(2, "Sec-B", 3, 30)},
			prefs:    []string{"B"},
			want:     enrollment.SectionChosen,
			wantID:   2,
		},
		{
			name:     "blank preferences match nothing",
			sections: []enrollment.Section{sec(1, "Sec-A", 0, 30)},
			prefs:    []string{"", "  "},
			want:     enrollment.NoneAvailable,
		},
		{
			name:  "empty snapshot",
			prefs: []string{"A"},
			want:  enrollment.NoneAvailable,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := enrollment.Select(enrollment.Snapshot{CourseCode: "CSE101", Sections: tc.sections}, tc.prefs)
			assert.Equal(t, tc.want, got.Decision)
			if tc.want != enrollment.NoneAvailable {
				assert.Equal(t, tc.wantID, got.Section.ID)
			}
		})
	}
}

func TestSelect_Deterministic(t *testing.T) {
	t.Parallel()

	snap := enrollment.Snapshot{Sections: []enrollment.Section{
		sec(1, "A", 40, 40), sec(2, "AB", 10, 40), sec(3, "BA", 0, 40), sec(4, "B", 0, 40),
	}}
	first := enrollment.Select(snap, []string{"B"})
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, enrollment.Select(snap, []string{"B"}))
	}
	assert.Equal(t, int64(2), first.Section.ID)
}

func TestIsTokenExpired(t *testing.T) {
	t.Parallel()

	assert.False(t, enrollment.IsTokenExpired(nil))
	assert.True(t, enrollment.IsTokenExpired(enrollment.ErrTokenExpired))
	assert.True(t, enrollment.IsTokenExpired(fmt.Errorf("fetch CSE101: %w", enrollment.ErrTokenExpired)))
	assert.True(t, enrollment.IsTokenExpired(errors.New(`Fetch course routine failed: "Invalid Token"`)))
	assert.False(t, enrollment.IsTokenExpired(enrollment.ErrRejected))
	assert.False(t, enrollment.IsTokenExpired(errors.New("token invalidated")))
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	src := map[string][]string{
		"CSE101": {" B ", "", "K"},
		"CSE202": {},
		" ":      {"X"},
	}
	p := enrollment.NewPreferences(src)
	src["CSE101"][0] = "mutated"

	assert.Equal(t, []string{"B", "K"}, p.For("CSE101"))
	assert.Nil(t, p.For("CSE202"))
	assert.Nil(t, p.For("MAT101"))
	assert.Equal(t, []string{"CSE101", "CSE202"}, p.Courses())

	got := p.For("CSE101")
	got[0] = "Z"
	assert.Equal(t, []string{"B", "K"}, p.For("CSE101"))

	var zero enrollment.Preferences
	assert.Nil(t, zero.For("CSE101"))
	assert.Equal(t, 0, zero.Len())
}

func TestPreferences_MergesCodesEqualAfterTrim(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		p := enrollment.NewPreferences(map[string][]string{
			"CSE101":  {"K", "b"},
			" CSE101": {"B", "D"},
		})
		assert.Equal(t, []string{"B", "D", "K"}, p.For("CSE101"))
		assert.Equal(t, 1, p.Len())
	}
}
