package matching

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Madison Square Garden", "madison square garden"},
		{"Beyoncé", "beyonce"},
		{"Sigur Rós", "sigur ros"},
		{"AC/DC", "ac dc"},
		{"  The   Strokes  ", "the strokes"},
		{"Mötley Crüe!", "motley crue"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeName(tc.in); got != tc.want {
			t.Fatalf("normalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNamesMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Madison Square Garden", "madison square garden", true},
		{"Barclays Center", "Barclays", true},
		{"Barclays", "Barclays Center", true},
		{"MSG", "Madison Square Garden", false},
		{"Beyoncé", "beyonce", true},
		{"Phoenix", "Foals", false},
		{"", "Barclays", false},
		{"Barclays", "", false},
		// Too short for containment even though it is a substring.
		{"O2", "The O2 Arena", false},
	}
	for _, tc := range cases {
		if got := namesMatch(tc.a, tc.b); got != tc.want {
			t.Fatalf("namesMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
