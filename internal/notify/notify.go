// Package notify posts local user notifications about available updates.
package notify

import (
	"fmt"
	"os/exec"

	"github.com/patchpilot/patchpilot/internal/logging"
)

var log = logging.L("notify")

// Notifier delivers update notifications. The runner hook exists for tests;
// the zero value falls back to osascript.
type Notifier struct {
	runner func(script string) error
}

// New returns a Notifier backed by the system notification mechanism.
func New() *Notifier {
	return &Notifier{runner: runOsascript}
}

// UpdatesAvailable posts a notification for count available updates. Zero
// counts are silently skipped. Delivery failures are logged, not returned:
// a notification is advisory and never worth failing a check over.
func (n *Notifier) UpdatesAvailable(count int) {
	if count <= 0 {
		return
	}

	body := fmt.Sprintf("%d updates are available.", count)
	if count == 1 {
		body = "1 update is available."
	}
	n.post("Software Updates", body)
}

func (n *Notifier) post(title, body string) {
	script := `display notification "` + escapeAppleScript(body) + `" with title "` + escapeAppleScript(title) + `"`
	if err := n.runner(script); err != nil {
		log.Warn("notification failed", "error", err)
	}
}

// runOsascript uses osascript to display notifications on macOS. A production
// implementation would use UNUserNotificationCenter via cgo/ObjC.
func runOsascript(script string) error {
	return exec.Command("osascript", "-e", script).Run()
}

// escapeAppleScript escapes a string for safe embedding in an AppleScript
// double-quoted string. Handles quotes, backslashes, and control characters
// that could break out of the string context.
func escapeAppleScript(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			result = append(result, '\\', '"')
		case ch == '\\':
			result = append(result, '\\', '\\')
		case ch == '\n':
			result = append(result, '\\', 'n')
		case ch == '\r':
			result = append(result, '\\', 'r')
		case ch == '\t':
			result = append(result, '\\', 't')
		case ch < 0x20 || ch == 0x7f:
			// Strip other control characters
			continue
		default:
			result = append(result, ch)
		}
	}
	return string(result)
}
