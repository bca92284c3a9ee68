package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingJournal struct{}

func (failingJournal) Append(context.Context, Entry) error {
	return errors.New("disk full")
}

func TestHookFailure_Message(t *testing.T) {
	err := &hooks.Error{Kind: hooks.KindNotFound, Op: "resolve", Type: "AppSearchView", Method: "eN"}
	e := HookFailure("AppSearchView", "eN", err)

	assert.Equal(t, KindHookFailure, e.Kind)
	assert.Equal(t, "##### Overwatch: Failed to hook method AppSearchView.eN", e.Line())
	assert.Equal(t, "not_found", e.Cause)
	assert.Contains(t, e.Detail, "resolve")
}

func TestUnhookFailure_Message(t *testing.T) {
	e := UnhookFailure("ValueAnimator", "setIntValues", errors.New("gone"))
	assert.Equal(t, KindUnhookFailure, e.Kind)
	assert.Equal(t, "##### Overwatch: Failed to unhook method ValueAnimator.setIntValues", e.Line())
	assert.Equal(t, "gone", e.Detail)
	assert.Equal(t, "unknown", e.Cause)
}

func TestSink_AppendLogsAndJournals(t *testing.T) {
	var buf bytes.Buffer
	mem := NewMemoryJournal()
	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	s := New(WithLogger(logger.New(&buf, "json")), WithJournal(mem), WithClock(func() time.Time { return fixed }))

	s.Append(context.Background(), HookFailure("Launcher", "eN", errors.New("boom")))

	require.Equal(t, 1, mem.Len())
	got := mem.Entries()[0]
	assert.Equal(t, fixed, got.Time)
	assert.Equal(t, 1, s.Count())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["logLevel"])
	assert.Equal(t, "##### Overwatch: Failed to hook method Launcher.eN", line["message"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "hook_failure", line["kind"])
}

func TestSink_JournalErrorIsAbsorbed(t *testing.T) {
	var buf bytes.Buffer
	mem := NewMemoryJournal()
	s := New(WithLogger(logger.New(&buf, "text")), WithJournal(failingJournal{}), WithJournal(mem))

	s.Append(context.Background(), Entry{Message: "hello"})

	assert.Equal(t, 1, mem.Len())
	assert.Equal(t, KindNote, mem.Entries()[0].Kind)
	assert.True(t, strings.Contains(buf.String(), "failed to journal diagnostic"))
	assert.True(t, strings.Contains(buf.String(), "disk full"))
}

func TestInitAndDefault(t *testing.T) {
	prev := defaultSink.Load()
	defer defaultSink.Store(prev)

	defaultSink.Store(nil)
	first := Default()
	require.NotNil(t, first)
	assert.Same(t, first, Default())

	mem := NewMemoryJournal()
	var buf bytes.Buffer
	s := Init(WithJournal(mem), WithLogger(logger.New(&buf, "text")))
	assert.Same(t, s, Default())

	Logf(context.Background(), "loaded %s", "com.teslacoilsw.launcher")
	require.Equal(t, 1, mem.Len())
	assert.Equal(t, "loaded com.teslacoilsw.launcher", mem.Entries()[0].Message)
}

func TestMemoryJournal_Filter(t *testing.T) {
	mem := NewMemoryJournal()
	ctx := context.Background()
	require.NoError(t, mem.Append(ctx, Entry{Kind: KindHookFailure}))
	require.NoError(t, mem.Append(ctx, Entry{Kind: KindNote}))
	require.NoError(t, mem.Append(ctx, Entry{Kind: KindHookFailure}))

	assert.Len(t, mem.Filter(KindHookFailure), 2)
	assert.Empty(t, mem.Filter(KindUnhookFailure))

	mem.Reset()
	assert.Zero(t, mem.Len())
}
