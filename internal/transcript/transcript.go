// Package transcript keeps the visible conversation and saves it as text.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Role is the speaker of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "ai"
)

// Entry is one transcript line.
type Entry struct {
	Role Role
	Text string
}

// String renders the entry as "<role>: <text>".
func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.Role, e.Text)
}

// Transcript is an append-only conversation log. It is not safe for
// concurrent use; the UI owns it.
type Transcript struct {
	entries []Entry
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// AppendUser records a message typed by the user.
func (t *Transcript) AppendUser(text string) {
	t.entries = append(t.entries, Entry{Role: RoleUser, Text: text})
}

// AppendAssistant records a line produced by the model.
func (t *Transcript) AppendAssistant(text string) {
	t.entries = append(t.entries, Entry{Role: RoleAssistant, Text: text})
}

// Clear removes all entries.
func (t *Transcript) Clear() {
	t.entries = nil
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries.
func (t *Transcript) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Last returns the most recent entry for role.
func (t *Transcript) Last(role Role) (Entry, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Role == role {
			return t.entries[i], true
		}
	}
	return Entry{}, false
}

// Lines renders every entry.
func (t *Transcript) Lines() []string {
	lines := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		lines = append(lines, e.String())
	}
	return lines
}

// String renders the transcript, one entry per line.
func (t *Transcript) String() string {
	return strings.Join(t.Lines(), "\n")
}

// Save writes the transcript to path as plain text, creating parent
// directories as needed.
func (t *Transcript) Save(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("transcript: empty file name")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("transcript: failed to create directory: %w", err)
		}
	}

	content := t.String()
	if content != "" {
		content += "\n"
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("transcript: failed to save %s: %w", path, err)
	}

	return nil
}
