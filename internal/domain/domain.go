package domain

import "time"

type Mode int

const (
	ModeSummary Mode = iota + 1
	ModeBulletPoints
)

func (m Mode) String() string {
	switch m {
	case ModeSummary:
		return "summary"
	case ModeBulletPoints:
		return "bullet_points"
	default:
		return "unknown"
	}
}

// Record is one stored text-in/text-out transformation. Exactly one of
// Summary and BulletPoints is set.
type Record struct {
	ID           int64
	OriginalText string
	Summary      *string
	BulletPoints *string
	CreatedAt    time.Time
}

// NewRecord puts output into the field owned by mode.
func NewRecord(mode Mode, originalText string, output string) Record {
	r := Record{OriginalText: originalText}

	switch mode {
	case ModeSummary:
		r.Summary = &output
	case ModeBulletPoints:
		r.BulletPoints = &output
	}

	return r
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
