package impactservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

// ParseSince turns a history filter into a lower bound. "", "all" mean no
// bound; "week" and "month" step back from now; anything else is parsed as
// natural language ("3 days ago", "last monday") relative to now.
func ParseSince(filter string, now time.Time) (*time.Time, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))

	var since time.Time
	switch filter {
	case "", "all":
		return nil, nil
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, -1, 0)
	default:
		w := when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)

		r, err := w.Parse(filter, now)
		if err != nil || r == nil {
			return nil, &impactdomain.ValidationError{Field: "since", Reason: fmt.Sprintf("unrecognised filter %q", filter)}
		}
		since = r.Time
		if since.After(now) {
			return nil, &impactdomain.ValidationError{Field: "since", Reason: "must not be in the future"}
		}
	}
	return &since, nil
}
