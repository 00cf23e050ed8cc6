package notify

import (
	"strings"
	"testing"
)

func TestUpdatesAvailable(t *testing.T) {
	var got string
	n := &Notifier{runner: func(script string) error {
		got = script
		return nil
	}}

	n.UpdatesAvailable(3)
	if !strings.Contains(got, "3 updates are available.") {
		t.Fatalf("unexpected script: %q", got)
	}
	if !strings.Contains(got, `with title "Software Updates"`) {
		t.Fatalf("missing title: %q", got)
	}
}

func TestUpdatesAvailableSingular(t *testing.T) {
	var got string
	n := &Notifier{runner: func(script string) error {
		got = script
		return nil
	}}

	n.UpdatesAvailable(1)
	if !strings.Contains(got, "1 update is available.") {
		t.Fatalf("unexpected script: %q", got)
	}
}

func TestUpdatesAvailableZeroSkipped(t *testing.T) {
	n := &Notifier{runner: func(script string) error {
		t.Fatal("zero updates must not notify")
		return nil
	}}
	n.UpdatesAvailable(0)
	n.UpdatesAvailable(-1)
}

func TestEscapeAppleScript(t *testing.T) {
	cases := []struct{ in, want string }{
		{`plain`, `plain`},
		{`has "quotes"`, `has \"quotes\"`},
		{`back\slash`, `back\\slash`},
		{"line\nbreak", `line\nbreak`},
		{"tab\there", `tab\there`},
		{"bell\x07char", "bellchar"},
	}
	for _, tc := range cases {
		if got := escapeAppleScript(tc.in); got != tc.want {
			t.Errorf("escapeAppleScript(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
