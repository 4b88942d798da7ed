package audit

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_Enabled(t *testing.T) {
	l := New(true, t.TempDir())

	l.Log(LevelInfo, "Login", StatusSuccess, "alice", "")
	l.Log(LevelWarning, "DeclareResults", StatusFail, "job:4", "tx\naborted")

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasSuffix(lines[0], " | info | Login | Success | alice"))
	assert.True(t, strings.HasSuffix(lines[1], " | warning | DeclareResults | Fail | job:4 | tx aborted"))
}

func TestLog_Disabled(t *testing.T) {
	l := New(false, t.TempDir())
	l.Log(LevelInfo, "Login", StatusSuccess, "alice", "")

	_, err := os.Stat(l.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestLog_NilLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Log(LevelInfo, "Login", StatusSuccess, "", "") })
	assert.Empty(t, l.Path())
}
