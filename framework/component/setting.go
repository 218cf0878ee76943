package component

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Value resolves the setting through r, falling back to the default when r
// is nil or has no value. Raw values of another type are converted to the
// type of the default (string, int, int64, bool, float64, time.Duration) so
// factories receive the type they declared. A bare number for a
// time.Duration default counts as seconds.
func (s SettingRef) Value(r ValueResolver) (any, error) {
	if r == nil {
		return s.Default, nil
	}
	raw, ok := r.Resolve(s.Key)
	if !ok {
		return s.Default, nil
	}
	if s.Default == nil || reflect.TypeOf(raw) == reflect.TypeOf(s.Default) {
		return raw, nil
	}
	str, isString := raw.(string)
	if !isString {
		str = fmt.Sprint(raw)
	}
	var (
		v   any
		err error
	)
	switch s.Default.(type) {
	case string:
		return str, nil
	case int:
		v, err = strconv.Atoi(str)
	case int64:
		v, err = strconv.ParseInt(str, 10, 64)
	case bool:
		v, err = strconv.ParseBool(str)
	case float64:
		v, err = strconv.ParseFloat(str, 64)
	case time.Duration:
		v, err = parseDuration(str)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", s.Key, err)
	}
	return v, nil
}

func parseDuration(str string) (time.Duration, error) {
	d, err := time.ParseDuration(str)
	if err == nil {
		return d, nil
	}
	if secs, ferr := strconv.ParseFloat(str, 64); ferr == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, err
}
