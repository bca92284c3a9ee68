// Package overwatch customizes the launcher's app drawer search view: it
// clears the search bar background, pushes the bar and results down, keeps
// the soft keyboard closed while the drawer opens, and makes the scrim
// behind the search view appear instantly at a darker color.
package overwatch

import (
	"context"

	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/install"
	"github.com/bambi/overwatch/pkg/launcher"
	"github.com/bambi/overwatch/pkg/locate"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/bambi/overwatch/pkg/transient"
	"github.com/bambi/overwatch/pkg/widget"
	"github.com/pkg/errors"
)

// Module installs the launcher customizations when the launcher loads.
type Module struct {
	opts      Options
	installer *install.Installer
	sink      *diag.Sink
}

// Option configures a Module
type Option func(*Module)

// WithInstaller installs through i instead of a fresh installer.
func WithInstaller(i *install.Installer) Option {
	return func(m *Module) { m.installer = i }
}

// WithSink writes notes to s instead of diag.Default().
func WithSink(s *diag.Sink) Option {
	return func(m *Module) { m.sink = s }
}

// New creates a module.
func New(opts Options, options ...Option) *Module {
	m := &Module{opts: opts}
	for _, o := range options {
		o(m)
	}
	if m.sink == nil {
		m.sink = diag.Default()
	}
	if m.installer == nil {
		m.installer = install.New(install.WithSink(m.sink))
	}
	return m
}

// Options returns the module's options.
func (m *Module) Options() Options { return m.opts }

// Installer returns the installer the module hooks through.
func (m *Module) Installer() *install.Installer { return m.installer }

// HandleLoad is called for every package the host loads. Only the launcher
// is customized; it returns how many hooks were installed. Failures are
// reported to the sink and never abort the load.
func (m *Module) HandleLoad(ctx context.Context, packageName string, loader *host.Loader) int {
	if packageName != launcher.Package {
		logger.G(ctx).WithField("package", packageName).Debug("ignoring package")
		return 0
	}
	m.sink.Logf(ctx, "handleLoadPackage called for %s", packageName)

	calls, err := resolveToolkit(loader)
	if err != nil {
		m.sink.Logf(ctx, "toolkit unavailable: %v", err)
	}

	installed := 0
	count := func(h *install.Handle) {
		if h != nil {
			installed++
		}
	}

	if m.opts.ClearBackground && calls != nil {
		count(m.installer.FindAndHookByName(ctx, loader,
			launcher.AppSearchViewName, "setLauncher", m.setLauncherSpec(calls),
			locate.Named(launcher.LauncherName)))
	}

	if m.opts.SuppressKeyboard {
		toggle := transient.New(transient.Config{
			Name:      "suppress_keyboard",
			Installer: m.installer,
			Inner: locate.Descriptor{
				TypeName: launcher.AppSearchViewName,
				Loader:   loader,
				Method:   "fb",
				Params:   locate.Arity(0),
			},
			InnerSpec: transient.Static(hooks.DoNothing),
		})
		count(m.installer.FindAndHookBestByName(ctx, loader,
			launcher.LauncherName, "eN", toggle.Spec(),
			locate.Named(widget.ViewName), locate.T(host.Bool), locate.T(host.Int), locate.T(host.Int)))
	}

	if m.opts.RetargetScrim && calls != nil {
		count(m.installer.FindAndHookBestByName(ctx, loader,
			launcher.AppSearchViewName, "eN", m.showHideSpec(loader, calls, true),
			locate.T(host.Int), locate.T(host.Int), locate.T(host.Int)))
		count(m.installer.FindAndHookBestByName(ctx, loader,
			launcher.AppSearchViewName, "eN", m.showHideSpec(loader, calls, false),
			locate.T(host.Int)))
	}

	logger.G(ctx).WithField("package", packageName).WithField("hooks", installed).Debug("launcher customized")
	return installed
}

// Unload removes every hook the module installed.
func (m *Module) Unload(ctx context.Context) error {
	return m.installer.RemoveAll(ctx)
}

// setLauncherSpec clears the search bar background and adds the extra
// top margins once the view is attached to the launcher.
func (m *Module) setLauncherSpec(calls *toolkit) hooks.Spec {
	return hooks.Spec{
		Name: "search_view_layout",
		After: func(p *hooks.Param) error {
			bar, err := host.Field(p.This, "mLinearLayout")
			if err != nil {
				return err
			}
			if _, err := calls.setBackground.Invoke(p.Context, bar, nil); err != nil {
				return err
			}
			if err := calls.addTopMargin(p.Context, p.This, "mSearchbarBackground", m.opts.SearchbarMargin); err != nil {
				return err
			}
			return calls.addTopMargin(p.Context, p.This, "mContentScrollviewParent", m.opts.ContentMargin)
		},
	}
}

// showHideSpec keeps a retargeting hook on AnimatorSet.start installed
// while the search view shows or hides itself.
func (m *Module) showHideSpec(loader *host.Loader, calls *toolkit, show bool) hooks.Spec {
	name := "hide_scrim"
	if show {
		name = "show_scrim"
	}
	from, to := Bounds(m.opts.TargetColor, show)

	t := transient.New(transient.Config{
		Name:      name,
		Installer: m.installer,
		Inner: locate.Descriptor{
			TypeName: widget.AnimatorSetName,
			Loader:   loader,
			Method:   "start",
			Params:   locate.Exact(),
		},
		InnerSpec: func(outer *hooks.Param) hooks.Spec {
			owner := outer.This
			return transient.Guard(
				func(p *hooks.Param) bool { return LooksLikeBackgroundAnimation(p.This, owner) },
				hooks.Spec{
					Name: name + "_retarget",
					Before: func(p *hooks.Param) error {
						logger.G(p.Context).
							WithField("from", from).WithField("to", to).
							Debug("retargeting scrim animation")
						return calls.retarget(p.Context, p.This, from, to)
					},
				},
			)
		},
	})
	return t.Spec()
}

// toolkit holds the framework methods the hook bodies call.
type toolkit struct {
	setBackground      *host.Method
	getLayoutParams    *host.Method
	setLayoutParams    *host.Method
	getChildAnimations *host.Method
	setIntValues       *host.Method
	setDuration        *host.Method
}

func resolveToolkit(loader *host.Loader) (*toolkit, error) {
	resolve := func(typeName, method string, params ...locate.Ref) (*host.Method, error) {
		d := locate.Descriptor{TypeName: typeName, Loader: loader, Method: method, Params: locate.Exact(params...)}
		res := locate.Resolve(d)
		if err := res.Err(d); err != nil {
			return nil, err
		}
		return res.Method, nil
	}

	var (
		tk  toolkit
		err error
	)
	steps := []struct {
		dst    **host.Method
		typ    string
		method string
		params []locate.Ref
	}{
		{&tk.setBackground, widget.ViewName, "setBackground", []locate.Ref{locate.T(host.Object)}},
		{&tk.getLayoutParams, widget.ViewName, "getLayoutParams", nil},
		{&tk.setLayoutParams, widget.ViewName, "setLayoutParams", []locate.Ref{locate.Named(widget.MarginLayoutParamsName)}},
		{&tk.getChildAnimations, widget.AnimatorSetName, "getChildAnimations", nil},
		{&tk.setIntValues, widget.ValueAnimatorName, "setIntValues", []locate.Ref{locate.T(host.Int), locate.T(host.Int)}},
		{&tk.setDuration, widget.AnimatorSetName, "setDuration", []locate.Ref{locate.T(host.Long)}},
	}
	for _, s := range steps {
		if *s.dst, err = resolve(s.typ, s.method, s.params...); err != nil {
			return nil, err
		}
	}
	return &tk, nil
}

func (t *toolkit) addTopMargin(ctx context.Context, owner any, field string, add int) error {
	layout, err := host.Field(owner, field)
	if err != nil {
		return err
	}
	v, err := t.getLayoutParams.Invoke(ctx, layout)
	if err != nil {
		return err
	}
	lp, ok := v.(*widget.MarginLayoutParams)
	if !ok || lp == nil {
		return errors.Errorf("%s has no margin layout params", field)
	}
	lp.TopMargin += add
	_, err = t.setLayoutParams.Invoke(ctx, layout, lp)
	return err
}

// retarget rewrites the scrim bounds of set and makes it instantaneous.
func (t *toolkit) retarget(ctx context.Context, set any, from, to int) error {
	v, err := t.getChildAnimations.Invoke(ctx, set)
	if err != nil {
		return err
	}
	children, _ := v.([]any)
	if len(children) < 2 {
		return errors.New("scrim animation lost its children")
	}
	if _, err := t.setIntValues.Invoke(ctx, children[1], from, to); err != nil {
		return err
	}
	_, err = t.setDuration.Invoke(ctx, set, int64(0))
	return err
}
