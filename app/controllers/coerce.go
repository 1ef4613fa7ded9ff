package controllers

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var dueLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDue accepts RFC 3339 timestamps and the zone-less forms browsers send
// from date and time inputs. Zone-less values are read in local time.
func ParseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized due date " + strconv.Quote(s))
}

// CoerceIndex turns a decoded JSON value into a slot index. Anything that is
// not a non-negative integer yields nil.
func CoerceIndex(v any) *int {
	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x < 0 || x > math.MaxInt32 {
			return nil
		}
		n = int(x)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil || i < 0 {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}

// truncateFraction drops the fractional part of a numeric drop index, so a
// drag that lands at 2.7 means slot 2. Slot values stored on a task stay strict.
func truncateFraction(v any) any {
	if x, ok := v.(float64); ok {
		return math.Trunc(x)
	}
	return v
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return false
}

// idString accepts ids sent as JSON strings or numbers.
func idString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
	}
	return ""
}
