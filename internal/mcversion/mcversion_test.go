package mcversion

import "testing"

func TestCompareStrings(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int // sign only
	}{
		{"equal", "1.20.1", "1.20.1", 0},
		{"shorter_padded_equal", "1.2", "1.2.0", 0},
		{"patch_greater", "1.20.2", "1.20.1", 1},
		{"minor_less", "1.19", "1.20", -1},
		{"major_wins", "2.0", "1.99.99", 1},
		{"double_digit_minor", "1.21.2", "1.3.1", 1},
		{"longer_greater", "1.2.1", "1.2", 1},
		{"garbage_component_zero", "1.x", "1.0", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CompareStrings(tc.a, tc.b)
			if sign(got) != tc.want {
				t.Errorf("CompareStrings(%q, %q) = %d, want sign %d", tc.a, tc.b, got, tc.want)
			}
			// Antisymmetry must hold for every pair.
			rev := CompareStrings(tc.b, tc.a)
			if sign(rev) != -tc.want {
				t.Errorf("CompareStrings(%q, %q) = %d, want sign %d", tc.b, tc.a, rev, -tc.want)
			}
		})
	}
}

func TestCompareSelf(t *testing.T) {
	for _, v := range []string{"1.2", "1.2.0", "1.21.9", "1"} {
		if got := CompareStrings(v, v); got != 0 {
			t.Errorf("CompareStrings(%q, %q) = %d, want 0", v, v, got)
		}
	}
}

func TestParse(t *testing.T) {
	got := Parse("1.21.2")
	want := Tuple{1, 21, 2}
	if len(got) != len(want) {
		t.Fatalf("Parse(1.21.2) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Parse(1.21.2) = %v, want %v", got, want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
