package logger

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseFilter(t *testing.T) {
	assert.True(t, parseFilter("")["*"])
	assert.True(t, parseFilter("*")["*"])
	assert.True(t, parseFilter(" , ")["*"])

	f := parseFilter(" Sync, toggle ,,")
	assert.True(t, f["sync"])
	assert.True(t, f["toggle"])
	assert.False(t, f["*"])
	assert.Len(t, f, 2)
}

func TestFilterHookMarksEntries(t *testing.T) {
	hook := NewFilterHook(&LogConfig{FilterModules: "sync", FilterLogTypes: "info,error"})

	entry := logrus.NewEntry(logrus.New())
	entry.Level = logrus.DebugLevel
	require.NoError(t, hook.Fire(entry))
	assert.Equal(t, true, entry.Data["_filtered"])

	entry = logrus.NewEntry(logrus.New()).WithField("module", "stream")
	entry.Level = logrus.InfoLevel
	require.NoError(t, hook.Fire(entry))
	assert.Equal(t, true, entry.Data["_filtered"])

	entry = logrus.NewEntry(logrus.New()).WithField("module", "SYNC")
	entry.Level = logrus.ErrorLevel
	require.NoError(t, hook.Fire(entry))
	assert.NotContains(t, entry.Data, "_filtered")

	// Không có module thì luôn được ghi
	entry = logrus.NewEntry(logrus.New())
	entry.Level = logrus.InfoLevel
	require.NoError(t, hook.Fire(entry))
	assert.NotContains(t, entry.Data, "_filtered")
}

func TestAsyncHookWritesAndDropsFiltered(t *testing.T) {
	out := &syncBuffer{}

	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetOutput(io.Discard)
	l.AddHook(NewFilterHook(&LogConfig{FilterModules: "toggle"}))
	hook := NewAsyncHookWithWriters([]io.Writer{out}, 10)
	l.AddHook(hook)

	l.WithField("module", "toggle").Info("unit flipped")
	l.WithField("module", "stream").Info("client connected")
	require.NoError(t, hook.Close())

	logged := out.String()
	assert.Contains(t, logged, "unit flipped")
	assert.NotContains(t, logged, "client connected")
	assert.NotContains(t, logged, "_filtered")

	// Sau Close vẫn ghi đồng bộ
	l.WithField("module", "toggle").Warn("after close")
	assert.Contains(t, out.String(), "after close")
}
