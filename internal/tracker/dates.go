package tracker

import (
	"strings"
	"time"
)

const dateLayout = "Mon Jan 2"

// DateResolver turns the sportsbook's date labels into absolute calendar dates.
type DateResolver struct {
	// Cutoff is the local clock time from which "today" means tomorrow. The sportsbook labels
	// days in a zone behind the operator's, so late-evening polls see tomorrow's games as "today".
	Cutoff   time.Duration
	Location *time.Location
}

func NewDateResolver(cutoff time.Duration, loc *time.Location) DateResolver {
	if loc == nil {
		loc = time.Local
	}
	return DateResolver{Cutoff: cutoff, Location: loc}
}

// Resolve returns the date for token as e.g. "THU OCT 15", or "" if the token is unusable.
func (r DateResolver) Resolve(token string, now time.Time) string {
	token = strings.TrimSpace(token)
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	switch strings.ToLower(token) {
	case "":
		return ""
	case "today":
		day := now
		if sinceMidnight(now) >= r.Cutoff {
			day = now.AddDate(0, 0, 1)
		}
		return strings.ToUpper(day.Format(dateLayout))
	case "tomorrow":
		return strings.ToUpper(now.AddDate(0, 0, 1).Format(dateLayout))
	}

	// "Sat Sep 4th": drop the ordinal suffix
	if len(token) <= 2 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(token[:len(token)-2]))
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
