package runner

import "testing"

func TestRenderCommand(t *testing.T) {
	cases := []struct {
		argv []string
		want string
	}{
		{[]string{"qpdf", "in.pdf", "--pages", "in.pdf", "1-z", "--", "out.pdf"}, "qpdf in.pdf --pages in.pdf 1-z -- out.pdf"},
		{[]string{"echo", ""}, "echo ''"},
		{[]string{"echo", "a b"}, "echo 'a b'"},
		{[]string{"echo", "it's"}, `echo 'it'"'"'s'`},
		{[]string{"/usr/bin/pdfsuite", "--rotate", "90:1,4"}, "/usr/bin/pdfsuite --rotate 90:1,4"},
	}
	for _, tc := range cases {
		if got := RenderCommand(tc.argv); got != tc.want {
			t.Fatalf("RenderCommand(%q) = %q, want %q", tc.argv, got, tc.want)
		}
	}
}
