package questionnaire

import (
	"math"
	"strings"
	"time"

	"github.com/rshade/greentrail/internal/greenops"
)

// Project is the event a participant answers the questionnaire for. It is
// supplied once per session by an external project service.
type Project struct {
	ID             string
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	WelcomeMessage string
	Activities     []greenops.ProjectActivity
}

// DefaultDays returns the number of days the project spans, rounded up and
// never negative. Unknown dates yield zero.
func (p Project) DefaultDays() int {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return 0
	}
	days := math.Ceil(p.EndDate.Sub(p.StartDate).Hours() / 24)
	if days < 0 || math.IsNaN(days) {
		return 0
	}
	return int(days)
}

// dateLayouts are the accepted project date formats, most specific first.
//
//nolint:gochecknoglobals // Constant lookup table.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate parses a project date. A value that matches no accepted layout
// yields the zero time, which DefaultDays treats as unknown.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
