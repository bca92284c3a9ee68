// Package install attaches hook specs to host methods without ever
// letting a failure reach the caller. Resolution and attachment errors
// are written to the diagnostic sink and reported as a nil handle.
package install

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/locate"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/bambi/overwatch/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Handle is a live installation. A nil *Handle means nothing was
// installed; passing it to Remove is a no-op.
type Handle struct {
	ID         string
	method     *host.Method
	spec       hooks.Spec
	attachment *host.Attachment
	seq        uint64
}

// Method returns the hooked method.
func (h *Handle) Method() *host.Method { return h.method }

// Spec returns the installed spec.
func (h *Handle) Spec() hooks.Spec { return h.spec }

func (h *Handle) String() string {
	if h.method == nil {
		return h.spec.Name + "@<invalid>"
	}
	return fmt.Sprintf("%s@%s", h.spec.Name, h.method)
}

// target names the hooked method in diagnostics. It tolerates handles
// that were never returned by Install.
func (h *Handle) target() (typeName, method string) {
	if h.method == nil {
		return "<unknown>", "<unknown>"
	}
	if h.method.Owner == nil {
		return "<unknown>", h.method.Name
	}
	return h.method.Owner.SimpleName(), h.method.Name
}

var handleSeq atomic.Uint64

// Installer installs and removes hooks, reporting failures to its sink.
type Installer struct {
	sink *diag.Sink

	mu     sync.Mutex
	active map[string]*Handle
}

// Option configures an Installer
type Option func(*Installer)

// WithSink reports failures to s instead of diag.Default().
func WithSink(s *diag.Sink) Option {
	return func(i *Installer) { i.sink = s }
}

// New creates an installer.
func New(opts ...Option) *Installer {
	i := &Installer{active: make(map[string]*Handle)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Installer) diagnostics() *diag.Sink {
	if i.sink != nil {
		return i.sink
	}
	return diag.Default()
}

// Install resolves d and attaches spec to the method it names. On any
// failure it writes exactly one diagnostic entry and returns nil.
func (i *Installer) Install(ctx context.Context, d locate.Descriptor, spec hooks.Spec) *Handle {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := telemetry.Tracer("overwatch.install").Start(ctx, "install.hook")
	defer span.End()
	span.SetAttributes(
		attribute.String("hook.target", d.String()),
		attribute.String("hook.spec", spec.Name),
	)

	h, err := i.install(d, spec)
	if err != nil {
		span.RecordError(err)
		i.diagnostics().Append(ctx, diag.HookFailure(d.TargetName(), d.Method, err))
		return nil
	}

	i.mu.Lock()
	i.active[h.ID] = h
	i.mu.Unlock()

	span.SetAttributes(attribute.String("hook.id", h.ID))
	logger.G(ctx).WithField("hook", h.String()).WithField("id", h.ID).Debug("hook installed")
	return h
}

func (i *Installer) install(d locate.Descriptor, spec hooks.Spec) (h *Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = &hooks.Error{
				Kind:   hooks.KindAttachmentFailure,
				Op:     "attach",
				Type:   d.TargetName(),
				Method: d.Method,
				Err:    errors.Errorf("panic: %v", r),
			}
		}
	}()

	res := locate.Resolve(d)
	if res.Kind != locate.Found {
		return nil, res.Err(d)
	}

	a, err := res.Method.Attach(spec)
	if err != nil {
		return nil, &hooks.Error{
			Kind:   hooks.KindAttachmentFailure,
			Op:     "attach",
			Type:   d.TargetName(),
			Method: d.Method,
			Err:    err,
		}
	}
	return &Handle{
		ID:         uuid.New().String(),
		method:     res.Method,
		spec:       spec,
		attachment: a,
		seq:        handleSeq.Add(1),
	}, nil
}

// Remove detaches h. A nil handle is ignored without a diagnostic. Any
// failure, including removing the same handle twice, is written to the
// sink and absorbed.
func (i *Installer) Remove(ctx context.Context, h *Handle) {
	if h == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := i.remove(ctx, h); err != nil {
		typeName, method := h.target()
		i.diagnostics().Append(ctx, diag.UnhookFailure(typeName, method, err))
	}
}

func (i *Installer) remove(ctx context.Context, h *Handle) error {
	ctx, span := telemetry.Tracer("overwatch.install").Start(ctx, "install.unhook")
	defer span.End()
	span.SetAttributes(attribute.String("hook.id", h.ID))

	err := i.detach(h)
	if err != nil {
		span.RecordError(err)
		return err
	}

	i.mu.Lock()
	delete(i.active, h.ID)
	i.mu.Unlock()

	logger.G(ctx).WithField("hook", h.String()).WithField("id", h.ID).Debug("hook removed")
	return nil
}

func (i *Installer) detach(h *Handle) (err error) {
	typeName, method := h.target()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &hooks.Error{
				Kind:   hooks.KindRemovalFailure,
				Op:     "detach",
				Type:   typeName,
				Method: method,
				Err:    err,
			}
		}
	}()
	if h.method == nil || h.attachment == nil {
		return errors.New("invalid handle")
	}
	return h.method.Detach(h.attachment)
}

// Active returns the live handles, oldest first.
func (i *Installer) Active() []*Handle {
	i.mu.Lock()
	defer i.mu.Unlock()

	live := make([]*Handle, 0, len(i.active))
	for _, h := range i.active {
		live = append(live, h)
	}
	sort.Slice(live, func(a, b int) bool { return live[a].seq < live[b].seq })
	return live
}

// RemoveAll removes every live handle, newest first. Each failure is
// written to the sink; the aggregate is returned for reporting.
func (i *Installer) RemoveAll(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	live := i.Active()
	sort.Slice(live, func(a, b int) bool { return live[a].seq > live[b].seq })

	var result *multierror.Error
	for _, h := range live {
		if err := i.remove(ctx, h); err != nil {
			typeName, method := h.target()
			i.diagnostics().Append(ctx, diag.UnhookFailure(typeName, method, err))
			result = multierror.Append(result, err)

			i.mu.Lock()
			delete(i.active, h.ID)
			i.mu.Unlock()
		}
	}
	return result.ErrorOrNil()
}
