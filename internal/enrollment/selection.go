package enrollment

import "strings"

type Decision int

const (
	NoneAvailable Decision = iota
	AlreadyEnrolled
	SectionChosen
)

func (d Decision) String() string {
	switch d {
	case AlreadyEnrolled:
		return "already-enrolled"
	case SectionChosen:
		return "section-chosen"
	default:
		return "none-available"
	}
}

type Outcome struct {
	Decision Decision
	// Section is the enrolled section for AlreadyEnrolled and the chosen one for SectionChosen.
	Section Section
}

// Select decides which section of snap to attempt given preferred, an ordered list of
// section name fragments (most preferred first). Matching is a case-insensitive
// substring test. An enrolled section matching any preference wins over everything;
// otherwise the first open section (in snapshot order) matching the earliest
// preference is chosen.
func Select(snap Snapshot, preferred []string) Outcome {
	prefs := make([]string, 0, len(preferred))
	for _, p := range preferred {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		prefs = append(prefs, p)
	}

	for _, s := range snap.Sections {
		if !s.Enrolled {
			continue
		}
		name := strings.ToLower(s.Name)
		for _, p := range prefs {
			if strings.Contains(name, p) {
				return Outcome{Decision: AlreadyEnrolled, Section: s}
			}
		}
	}

	for _, p := range prefs {
		for _, s := range snap.Sections {
			if s.Open() && strings.Contains(strings.ToLower(s.Name), p) {
				return Outcome{Decision: SectionChosen, Section: s}
			}
		}
	}
	return Outcome{Decision: NoneAvailable}
}
