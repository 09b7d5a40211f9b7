package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input string
		want  string
		valid bool
	}{
		{"090-1234-5678", "+819012345678", true},
		{"09012345678", "+819012345678", true},
		{"+81 90 1234 5678", "+819012345678", true},
		{"03-1234-5678", "+81312345678", true},
		{"  090-1234-5678  ", "+819012345678", true},
		{"", "", false},
		{"not a number", "", false},
		{"12345", "", false},
	}

	for _, tc := range cases {
		got, valid := NormalizeE164(tc.input)
		if valid != tc.valid {
			t.Errorf("NormalizeE164(%q) valid = %v, want %v", tc.input, valid, tc.valid)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
