package options

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOTime  = "2006-1-2 15:04"
	layoutISOShort = "1/2"
)

// DueOptions
type DueOptions struct {
	Due   string
	Clear bool
}

func AddDueArgs(cmd *cobra.Command, o *DueOptions) {
	cmd.Flags().StringVar(&o.Due, "due", "",
		`Due date, example: --due="2026-10-16", --due="2026-10-16 09:30", --due="10/16", --due=today.`)
}

func AddClearDueArgs(cmd *cobra.Command, o *DueOptions) {
	cmd.Flags().BoolVar(&o.Clear, "clear", false,
		"Clear the due date.")
}

// GetDue parses Due in loc relative to now. An empty value yields nil.
func (o *DueOptions) GetDue(now time.Time, loc *time.Location) (*time.Time, error) {
	return ParseDay(o.Due, now, loc)
}

// ParseDay parses a user supplied date. A month/day without a year is the
// next such day on or after now.
func ParseDay(v string, now time.Time, loc *time.Location) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	now = now.In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch strings.ToLower(v) {
	case "today":
		return &midnight, nil
	case "tomorrow":
		t := midnight.AddDate(0, 0, 1)
		return &t, nil
	case "yesterday":
		t := midnight.AddDate(0, 0, -1)
		return &t, nil
	}
	for _, layout := range []string{layoutISOTime, layoutISO} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return &t, nil
		}
	}
	t, err := time.ParseInLocation(layoutISOShort, v, loc)
	if err != nil {
		return nil, errors.New("unrecognized date " + `"` + v + `"`)
	}
	t = t.AddDate(now.Year(), 0, 0)
	// A month/day already behind us means next year.
	if t.Before(midnight) {
		t = t.AddDate(1, 0, 0)
	}
	return &t, nil
}
