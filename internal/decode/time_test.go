package decode

import "testing"

func TestParseTimeString_Forms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"90", 90},
		{"90.5", 90.5},
		{"1:30", 90},
		{"01:01:30", 3690},
		{"0:00:00.5", 0.5},
	}
	for _, c := range cases {
		got, err := ParseTimeString(c.in)
		if err != nil {
			t.Fatalf("ParseTimeString(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseTimeString(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseTimeString_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "1:99"} {
		if _, err := ParseTimeString(in); err != ErrInvalidTimeString {
			t.Fatalf("ParseTimeString(%q) err = %v, want ErrInvalidTimeString", in, err)
		}
	}
}

func TestFormatTimeString(t *testing.T) {
	if got := FormatTimeString(3690); got != "01:01:30" {
		t.Fatalf("FormatTimeString(3690) = %q, want 01:01:30", got)
	}
	if got := FormatTimeString(0); got != "00:00:00" {
		t.Fatalf("FormatTimeString(0) = %q, want 00:00:00", got)
	}
}
