package components

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogEntry(t *testing.T) {
	e := ParseLogEntry([]byte(`{"level":"WARN","date":"2026-10-16T09:30:01.250+0900","msg":"warn","service":"abcfe-wallet","Warn":"switch to unsupported chain: 1337"}`))
	assert.Equal(t, "WARN", e.Level)
	assert.Equal(t, "switch to unsupported chain: 1337", e.Message)
	assert.Empty(t, e.Logger)
	require.False(t, e.Time.IsZero())
	assert.Equal(t, 30, e.Time.Minute())

	e = ParseLogEntry([]byte(`{"level":"INFO","date":"2026-10-16T09:30:02.000+0900","logger":"chain","msg":"tx sent","hash":"0xabc","chain":"11155111"}`))
	assert.Equal(t, "chain", e.Logger)
	assert.Equal(t, "tx sent chain=11155111 hash=0xabc", e.Message)

	e = ParseLogEntry([]byte("plain text line"))
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "plain text line", e.Message)
	assert.True(t, e.Time.IsZero())
}

func newTestTail(t *testing.T, keep int) (*LogTail, string) {
	t.Helper()
	tail := NewLogTail(filepath.Join(t.TempDir(), "wallet"), keep)
	day := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	tail.now = func() time.Time { return day }
	return tail, tail.Path()
}

func appendLog(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func messages(entries []LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

func TestLogTailMissingFile(t *testing.T) {
	tail, path := newTestTail(t, 5)
	assert.Equal(t, "wallet_2026-10-16.log", filepath.Base(path))

	require.NoError(t, tail.Poll())
	assert.Empty(t, tail.Entries())
	assert.Contains(t, tail.View(80), "아직 없습니다")
}

func TestLogTailFollowsAppends(t *testing.T) {
	tail, path := newTestTail(t, 3)

	appendLog(t, path, `{"level":"INFO","Info":"one"}`+"\n"+`{"level":"INFO","Info":"two"}`+"\n"+`{"level":"INFO","Info":"thr`)
	require.NoError(t, tail.Poll())
	assert.Equal(t, []string{"one", "two"}, messages(tail.Entries()))

	// the unfinished line is completed by the next write
	appendLog(t, path, `ee"}`+"\n"+`{"level":"ERROR","Err":"four"}`+"\n")
	require.NoError(t, tail.Poll())
	assert.Equal(t, []string{"two", "three", "four"}, messages(tail.Entries()))
	assert.Equal(t, "ERROR", tail.Entries()[2].Level)

	require.NoError(t, tail.Poll())
	assert.Len(t, tail.Entries(), 3)

	view := tail.View(80)
	assert.Contains(t, view, "Activity")
	assert.Contains(t, view, "four")
}

func TestLogTailRestartsOnTruncateAndNewDay(t *testing.T) {
	tail, path := newTestTail(t, 5)
	appendLog(t, path, `{"level":"INFO","Info":"before"}`+"\n")
	require.NoError(t, tail.Poll())

	require.NoError(t, os.WriteFile(path, []byte(`{"level":"INFO","Info":"after"}`+"\n"), 0o600))
	require.NoError(t, tail.Poll())
	assert.Equal(t, []string{"after"}, messages(tail.Entries()))

	next := time.Date(2026, 10, 17, 0, 1, 0, 0, time.UTC)
	tail.now = func() time.Time { return next }
	appendLog(t, tail.Path(), `{"level":"INFO","Info":"tomorrow"}`+"\n")
	require.NoError(t, tail.Poll())
	assert.Equal(t, []string{"tomorrow"}, messages(tail.Entries()))
}
