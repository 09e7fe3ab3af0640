package display

import (
	"strings"
	"testing"
)

func TestFormatVolume(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234567", "$1.23M"},
		{"2500000000", "$2.50B"},
		{"15000", "$15.00K"},
		{"999.99", "$999.99"},
		{"0", "$0.00"},
	}
	for _, c := range cases {
		if got := FormatVolume(c.in); got != c.want {
			t.Errorf("FormatVolume(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPoolPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1850.5", "$1850.5000"},
		{"1", "$1.0000"},
		{"0.004217", "$0.004217"},
		{"0.0001", "$0.000100"},
	}
	for _, c := range cases {
		if got := FormatPoolPrice(c.in); got != c.want {
			t.Errorf("FormatPoolPrice(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPoolPriceScientific(t *testing.T) {
	got := FormatPoolPrice("0.00000042")
	if got != "$4.2e-07" {
		t.Errorf("FormatPoolPrice sub-threshold = %q, want $4.2e-07", got)
	}
}

func TestFormatPercentageChange(t *testing.T) {
	if got := FormatPercentageChange("-3.4"); got != "-3.40%" {
		t.Errorf("negative change = %q, want -3.40%%", got)
	}
	if got := FormatPercentageChange("12.345"); got != "+12.35%" {
		t.Errorf("positive change = %q, want +12.35%%", got)
	}
	if got := FormatPercentageChange("0"); got != "+0.00%" {
		t.Errorf("zero change = %q, want +0.00%%", got)
	}
}

// Malformed and non-finite inputs must never surface as NaN/Inf in output.
func TestFormattersTotalOverGarbage(t *testing.T) {
	garbage := []string{"", "abc", "NaN", "Inf", "-Inf", "1e999", "--3"}
	for _, in := range garbage {
		for _, out := range []string{FormatVolume(in), FormatPoolPrice(in), FormatPercentageChange(in)} {
			if strings.Contains(out, "NaN") || strings.Contains(out, "Inf") {
				t.Errorf("input %q produced non-finite output %q", in, out)
			}
		}
	}
}
