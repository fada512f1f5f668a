package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWeekday = errors.New("model: invalid weekday")

// Weekday numbers the days 1-7 with Sunday first, matching the on-disk
// task schema. time.Weekday (Sunday = 0) is only used at conversion
// boundaries.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func (d Weekday) IsValid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d-1]
}

// Time converts to the stdlib numbering (Sunday = 0).
func (d Weekday) Time() time.Weekday {
	return time.Weekday(int(d) - 1)
}

// CronDOW converts to the cron day-of-week field (Sunday = 0).
func (d Weekday) CronDOW() int {
	return int(d) - 1
}

// WeekdayOf converts from the stdlib numbering.
func WeekdayOf(wd time.Weekday) Weekday {
	return Weekday(int(wd) + 1)
}

// ParseWeekday accepts full names, three-letter abbreviations and 1-7 digits.
func ParseWeekday(raw string) (Weekday, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidWeekday)
	}
	if n, err := strconv.Atoi(s); err == nil {
		d := Weekday(n)
		if !d.IsValid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidWeekday, n)
		}
		return d, nil
	}
	lower := strings.ToLower(s)
	for i, name := range weekdayNames {
		if lower == strings.ToLower(name) || (len(lower) == 3 && lower == strings.ToLower(name[:3])) {
			return Weekday(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
}

// NormalizeWeekdays drops invalid entries, removes duplicates and sorts.
func NormalizeWeekdays(days []Weekday) []Weekday {
	seen := make(map[Weekday]bool, len(days))
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		if !d.IsValid() || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecodeWeekdaySet reads any of the historical on-disk encodings of a repeat
// day set: a JSON array of numbers, a JSON array of names, a JSON-encoded
// string containing either of those, or a bare comma-separated string.
func DecodeWeekdaySet(raw json.RawMessage) ([]Weekday, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var nums []int
	if err := json.Unmarshal(raw, &nums); err == nil {
		out := make([]Weekday, 0, len(nums))
		for _, n := range nums {
			out = append(out, Weekday(n))
		}
		return NormalizeWeekdays(out), nil
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return parseWeekdayStrings(names)
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return NormalizeWeekdays([]Weekday{Weekday(n)}), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		// Some revisions stored the set as a JSON array inside a string.
		if strings.HasPrefix(s, "[") {
			return DecodeWeekdaySet(json.RawMessage(s))
		}
		return parseWeekdayStrings(strings.Split(s, ","))
	}

	return nil, fmt.Errorf("%w: unsupported encoding %s", ErrInvalidWeekday, string(raw))
}

func parseWeekdayStrings(parts []string) ([]Weekday, error) {
	out := make([]Weekday, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		d, err := ParseWeekday(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return NormalizeWeekdays(out), nil
}
