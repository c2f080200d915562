package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronSpec is a parsed five-field cron expression:
//
//	minute hour day-of-month month day-of-week
//
// Each field accepts "*", a number, "a-b", "*/n", "a-b/n" and comma lists.
// When both day fields are restricted a day matches either of them.
type cronSpec struct {
	fields [5]map[int]bool
	// anyDom and anyDow record day fields written with a leading "*".
	anyDom, anyDow bool
}

var cronBounds = [5][2]int{
	{0, 59}, // minute
	{0, 23}, // hour
	{1, 31}, // day of month
	{1, 12}, // month
	{0, 6},  // day of week, Sunday = 0
}

func parseCron(expr string) (cronSpec, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return cronSpec{}, fmt.Errorf("cron: want 5 fields, got %d", len(parts))
	}
	var spec cronSpec
	for i, part := range parts {
		set, err := parseCronField(part, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return cronSpec{}, fmt.Errorf("cron: field %d %q: %w", i+1, part, err)
		}
		spec.fields[i] = set
	}
	spec.anyDom = strings.HasPrefix(parts[2], "*")
	spec.anyDow = strings.HasPrefix(parts[4], "*")
	return spec, nil
}

func parseCronField(field string, lo, hi int) (map[int]bool, error) {
	set := map[int]bool{}
	for _, term := range strings.Split(field, ",") {
		rng, step := term, 1
		if base, s, ok := strings.Cut(term, "/"); ok {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("bad step %q", s)
			}
			rng, step = base, n
		}

		from, to := lo, hi
		switch {
		case rng == "*":
		case strings.Contains(rng, "-"):
			a, b, _ := strings.Cut(rng, "-")
			var err error
			if from, err = strconv.Atoi(a); err != nil {
				return nil, fmt.Errorf("bad range start %q", a)
			}
			if to, err = strconv.Atoi(b); err != nil {
				return nil, fmt.Errorf("bad range end %q", b)
			}
		default:
			v, err := strconv.Atoi(rng)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", rng)
			}
			from, to = v, v
		}
		if from < lo || to > hi || from > to {
			return nil, fmt.Errorf("%d-%d outside %d-%d", from, to, lo, hi)
		}
		for v := from; v <= to; v += step {
			set[v] = true
		}
	}
	return set, nil
}

func (c cronSpec) matches(t time.Time) bool {
	if !c.fields[0][t.Minute()] || !c.fields[1][t.Hour()] || !c.fields[3][int(t.Month())] {
		return false
	}
	dom, dow := c.fields[2][t.Day()], c.fields[4][int(t.Weekday())]
	if c.anyDom || c.anyDow {
		return dom && dow
	}
	return dom || dow
}

// nextCronTime returns the first minute strictly after after that matches
// expr, searching at most one year ahead.
func nextCronTime(expr string, after time.Time) (time.Time, error) {
	spec, err := parseCron(expr)
	if err != nil {
		return time.Time{}, err
	}
	candidate := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(1, 0, 1)
	for candidate.Before(limit) {
		if spec.matches(candidate) {
			return candidate, nil
		}
		candidate = candidate.Add(time.Minute)
	}
	return time.Time{}, fmt.Errorf("cron: %q never fires within a year", expr)
}

// ValidateCron reports whether expr is a supported five-field schedule.
func ValidateCron(expr string) error {
	_, err := parseCron(expr)
	return err
}
