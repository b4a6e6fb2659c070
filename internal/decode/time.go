package decode

import (
	"strconv"
	"strings"
)

// ParseTimeString parses a seek target in any of the three forms the
// control layer may send: "HH:MM:SS[.mmm]", "MM:SS", or a bare decimal
// number of seconds.
func ParseTimeString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidTimeString
	}
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, ErrInvalidTimeString
		}
		return v, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrInvalidTimeString
	}

	var hours, minutes int
	var seconds float64
	var err error
	switch len(parts) {
	case 2:
		minutes, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, ErrInvalidTimeString
		}
		seconds, err = strconv.ParseFloat(parts[1], 64)
	case 3:
		hours, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, ErrInvalidTimeString
		}
		minutes, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, ErrInvalidTimeString
		}
		seconds, err = strconv.ParseFloat(parts[2], 64)
	}
	if err != nil {
		return 0, ErrInvalidTimeString
	}
	if minutes < 0 || minutes > 59 || seconds < 0 || seconds >= 60 {
		return 0, ErrInvalidTimeString
	}
	return float64(hours*3600+minutes*60) + seconds, nil
}

// FormatTimeString renders seconds as HH:MM:SS with integer seconds,
// the wire format the control layer expects for position/duration.
func FormatTimeString(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return padTwo(h) + ":" + padTwo(m) + ":" + padTwo(s)
}

func padTwo(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
