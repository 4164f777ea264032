package schema

import "testing"

func TestNormalizeJobName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "x", want: "x"},
		{in: "Reader Save", want: "reader-save"},
		{in: "  merge: a+b ", want: "merge--a-b"},
		{in: "__keep_inner__", want: "keep_inner"},
		{in: "Ünïcode", want: "n-code"},
		{in: "", want: "job"},
		{in: "***", want: "job"},
	}
	for _, tc := range tests {
		if got := NormalizeJobName(tc.in); got != tc.want {
			t.Fatalf("NormalizeJobName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := map[int]int{0: 0, 90: 90, 360: 0, 450: 90, -90: 270, -360: 0}
	for in, want := range tests {
		if got := NormalizeRotation(in); got != want {
			t.Fatalf("NormalizeRotation(%d) = %d, want %d", in, got, want)
		}
	}
}
