// Package diag is the process-wide diagnostic sink. Installers report
// absorbed failures here instead of returning them, so every entry is the
// only trace a failed installation or removal leaves behind.
package diag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/sirupsen/logrus"
)

// LogPrefix starts every diagnostic line.
const LogPrefix = "##### Overwatch"

// EntryKind classifies a diagnostic entry
type EntryKind string

// Entry kinds
const (
	KindHookFailure   EntryKind = "hook_failure"
	KindUnhookFailure EntryKind = "unhook_failure"
	KindNote          EntryKind = "note"
)

// Entry is one diagnostic record.
type Entry struct {
	Time    time.Time `json:"time" yaml:"time"`
	Kind    EntryKind `json:"kind" yaml:"kind"`
	Type    string    `json:"type,omitempty" yaml:"type,omitempty"`
	Method  string    `json:"method,omitempty" yaml:"method,omitempty"`
	Message string    `json:"message" yaml:"message"`
	// Detail is the error text, including its failure kind
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Cause  string `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// Line renders the entry as the prefixed log line.
func (e Entry) Line() string {
	return LogPrefix + ": " + e.Message
}

// HookFailure describes a failed installation on typeName.method.
func HookFailure(typeName, method string, err error) Entry {
	return failure(KindHookFailure, "Failed to hook method", typeName, method, err)
}

// UnhookFailure describes a failed removal from typeName.method.
func UnhookFailure(typeName, method string, err error) Entry {
	return failure(KindUnhookFailure, "Failed to unhook method", typeName, method, err)
}

func failure(kind EntryKind, what, typeName, method string, err error) Entry {
	e := Entry{
		Kind:    kind,
		Type:    typeName,
		Method:  method,
		Message: fmt.Sprintf("%s %s.%s", what, typeName, method),
	}
	if err != nil {
		e.Detail = err.Error()
		e.Cause = hooks.KindOf(err).String()
	}
	return e
}

// Journal persists entries beyond the log stream.
type Journal interface {
	Append(ctx context.Context, e Entry) error
}

// Sink writes entries to a logrus logger and to its journals.
type Sink struct {
	log      *logrus.Logger
	journals []Journal
	now      func() time.Time

	mu    sync.Mutex
	count int
}

// Option configures a Sink
type Option func(*Sink)

// WithLogger sends entries to l instead of the context logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Sink) { s.log = l }
}

// WithJournal adds a journal. Journals receive entries in the order added.
func WithJournal(j Journal) Option {
	return func(s *Sink) {
		if j != nil {
			s.journals = append(s.journals, j)
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// New creates a standalone sink.
func New(opts ...Option) *Sink {
	s := &Sink{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSink atomic.Pointer[Sink]

// Init replaces the process-wide sink. Call it once at startup, before
// any hook is installed.
func Init(opts ...Option) *Sink {
	s := New(opts...)
	defaultSink.Store(s)
	return s
}

// Default returns the process-wide sink, creating a log-only one on
// first use.
func Default() *Sink {
	if s := defaultSink.Load(); s != nil {
		return s
	}
	defaultSink.CompareAndSwap(nil, New())
	return defaultSink.Load()
}

// Append records e. It never fails: journal errors are logged and dropped.
func (s *Sink) Append(ctx context.Context, e Entry) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	if e.Kind == "" {
		e.Kind = KindNote
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++

	entry := s.entry(ctx)
	if e.Type != "" {
		entry = entry.WithField("type", e.Type)
	}
	if e.Method != "" {
		entry = entry.WithField("method", e.Method)
	}
	if e.Detail != "" {
		entry = entry.WithField("error", e.Detail)
	}
	if e.Kind == KindNote {
		entry.Info(e.Line())
	} else {
		entry.WithField("kind", string(e.Kind)).Error(e.Line())
	}

	for _, j := range s.journals {
		if err := j.Append(ctx, e); err != nil {
			s.entry(ctx).WithError(err).Warn(LogPrefix + ": failed to journal diagnostic")
		}
	}
}

// Count returns how many entries were appended.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sink) entry(ctx context.Context) *logrus.Entry {
	if s.log != nil {
		return logrus.NewEntry(s.log).WithContext(ctx)
	}
	return logger.G(ctx)
}

// Logf appends a free-form note.
func (s *Sink) Logf(ctx context.Context, format string, args ...any) {
	s.Append(ctx, Entry{Kind: KindNote, Message: fmt.Sprintf(format, args...)})
}

// Logf appends a free-form note to the process-wide sink.
func Logf(ctx context.Context, format string, args ...any) {
	Default().Logf(ctx, format, args...)
}
