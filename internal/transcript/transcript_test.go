package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_SaveOneExchange(t *testing.T) {
	tr := New()
	tr.AppendUser("hello")
	tr.AppendAssistant("Hi! How can I help?")

	path := filepath.Join(t.TempDir(), "chat.txt")
	require.NoError(t, tr.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "user: hello\nai: Hi! How can I help?\n", string(data))
}

func TestTranscript_SaveCreatesDirectories(t *testing.T) {
	tr := New()
	tr.AppendUser("x")

	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	require.NoError(t, tr.Save(path))
	assert.FileExists(t, path)
}

func TestTranscript_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, New().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	assert.Error(t, New().Save(" "))
}

func TestTranscript_LastAndClear(t *testing.T) {
	tr := New()
	tr.AppendUser("q1")
	tr.AppendAssistant("a1")
	tr.AppendAssistant("a2")
	tr.AppendUser("q2")

	last, ok := tr.Last(RoleAssistant)
	require.True(t, ok)
	assert.Equal(t, "a2", last.Text)
	assert.Equal(t, 4, tr.Len())
	assert.Equal(t, "user: q1", tr.Lines()[0])

	tr.Clear()
	_, ok = tr.Last(RoleUser)
	assert.False(t, ok)
	assert.Empty(t, tr.String())
}
