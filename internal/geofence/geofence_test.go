package geofence

import "testing"

func TestCheckEmptyPrefixAllowsEverything(t *testing.T) {
	for _, address := range []string{"", "東京都新宿区西新宿2-8-1", "埼玉県さいたま市"} {
		decision := Check(address, "")
		if !decision.Allowed {
			t.Errorf("address %q rejected under empty prefix", address)
		}
	}
}

func TestCheckPrefixMatch(t *testing.T) {
	cases := []struct {
		address string
		allowed bool
	}{
		{"東京都新宿区西新宿2-8-1", true},
		{"東京都", true},
		{"埼玉県さいたま市浦和区", false},
		{"", false},
		{"新宿区東京都", false},
	}

	for _, tc := range cases {
		decision := Check(tc.address, "東京都")
		if decision.Allowed != tc.allowed {
			t.Errorf("Check(%q, 東京都) = %v, want %v", tc.address, decision.Allowed, tc.allowed)
		}
		if decision.Prefix != "東京都" {
			t.Errorf("decision prefix = %q", decision.Prefix)
		}
	}
}
