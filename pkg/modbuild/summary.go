package modbuild

import "time"

// Status is the outcome of one skeleton.
type Status int

const (
	StatusPatched Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPatched:
		return "patched"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AnimationReport records one animation file.
type AnimationReport struct {
	Path  string
	Slots int
	Err   error
}

// SkeletonReport records what happened to one skeleton and the
// animations patched with its translation.
type SkeletonReport struct {
	Mod      string
	Path     string
	Status   Status
	Err      error
	Hint     string
	Warnings []string

	Bones      int
	Extras     int
	Gaps       int
	Animations []AnimationReport
	Removed    bool
}

// ModReport records one mod folder.
type ModReport struct {
	Name        string
	CookedFiles int
	Skeletons   []SkeletonReport
	Err         error
}

// Summary aggregates a batch run.
type Summary struct {
	Mods     []ModReport
	Duration time.Duration
}

// Totals counts skeleton and animation outcomes across every mod.
type Totals struct {
	Mods              int
	SkeletonsPatched  int
	SkeletonsSkipped  int
	SkeletonsFailed   int
	AnimationsPatched int
	AnimationsFailed  int
	Warnings          int
}

// Totals walks the reports and counts outcomes.
func (s *Summary) Totals() Totals {
	var t Totals
	t.Mods = len(s.Mods)
	for _, m := range s.Mods {
		for _, sk := range m.Skeletons {
			switch sk.Status {
			case StatusPatched:
				t.SkeletonsPatched++
			case StatusSkipped:
				t.SkeletonsSkipped++
			case StatusFailed:
				t.SkeletonsFailed++
			}
			t.Warnings += len(sk.Warnings)
			for _, a := range sk.Animations {
				if a.Err != nil {
					t.AnimationsFailed++
				} else {
					t.AnimationsPatched++
				}
			}
		}
	}
	return t
}

// Failed reports whether any mod or skeleton failed.
func (s *Summary) Failed() bool {
	for _, m := range s.Mods {
		if m.Err != nil {
			return true
		}
		for _, sk := range m.Skeletons {
			if sk.Status == StatusFailed {
				return true
			}
		}
	}
	return false
}
