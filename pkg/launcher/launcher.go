// Package launcher is a simulated home-screen app used as the target of the
// overwatch module. Its types and method names follow the obfuscated
// release it imitates, so hooks have to find them by name and arity.
package launcher

import (
	"context"

	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/widget"
	"github.com/pkg/errors"
)

// Package is the package name the app is loaded under.
const Package = "com.teslacoilsw.launcher"

// Type names
const (
	AppSearchViewName = "com.teslacoilsw.launcher.AppSearchView"
	LauncherName      = "com.android.launcher3.Launcher"
)

// Stock appearance of the drawer search view
const (
	DefaultScrimColor       = 0xCC080808
	DefaultAnimationMillis  = 220
	DefaultSearchbarMargin  = 16
	DefaultContentMargin    = 8
	SearchbarBackgroundName = "searchbar_bg"
)

// AppSearchView is the app drawer's search panel.
type AppSearchView struct {
	widget.LinearLayout
	Bar                 *widget.LinearLayout `host:"mLinearLayout"`
	SearchbarBackground *widget.FrameLayout  `host:"mSearchbarBackground"`
	ContentParent       *widget.FrameLayout  `host:"mContentScrollviewParent"`
	Launcher            *Launcher            `host:"mLauncher"`
	KeyboardShown       bool                 `host:"mKeyboardShown"`
	Shown               bool                 `host:"mShown"`

	// Animations holds every animator set the view started, oldest first
	Animations []*widget.AnimatorSet
}

// Launcher is the home-screen activity.
type Launcher struct {
	SearchView *AppSearchView `host:"mAppSearchView"`
}

// App is the launcher loaded into its own loader on top of the toolkit.
type App struct {
	Loader  *host.Loader
	Toolkit *widget.Toolkit

	AppSearchView *host.Type
	Launcher      *host.Type
}

// Load registers the launcher types in a new loader whose parent holds
// the toolkit.
func Load(tk *widget.Toolkit) (*App, error) {
	app := &App{
		Loader:  host.NewLoader(Package, tk.Loader),
		Toolkit: tk,
	}
	app.AppSearchView = host.NewType(AppSearchViewName, tk.LinearLayout)
	app.Launcher = host.NewType(LauncherName, nil)
	for _, t := range []*host.Type{app.AppSearchView, app.Launcher} {
		if err := app.Loader.Define(t); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", Package)
		}
	}

	app.defineSearchView()
	app.defineLauncher()
	return app, nil
}

// New creates an unattached search view with its stock layout.
func (app *App) New() *AppSearchView {
	sv := &AppSearchView{
		Bar:                 widget.NewLinearLayout(0x7f0a0101),
		SearchbarBackground: widget.NewFrameLayout(0x7f0a0102),
		ContentParent:       widget.NewFrameLayout(0x7f0a0103),
	}
	sv.ID = 0x7f0a0100
	sv.LayoutParams = &widget.MarginLayoutParams{}
	sv.Children = []any{sv.SearchbarBackground, sv.Bar, sv.ContentParent}
	return sv
}

func (app *App) defineSearchView() {
	tk := app.Toolkit

	app.AppSearchView.Define("setLauncher", []*host.Type{app.Launcher}, func(ctx context.Context, this any, args []any) (any, error) {
		sv := this.(*AppSearchView)
		l, _ := args[0].(*Launcher)
		sv.Launcher = l
		if l != nil {
			l.SearchView = sv
		}

		if _, err := tk.Call(ctx, tk.LinearLayout, "setBackground", sv.Bar, SearchbarBackgroundName); err != nil {
			return nil, err
		}
		if err := setTopMargin(ctx, tk, sv.SearchbarBackground, DefaultSearchbarMargin); err != nil {
			return nil, err
		}
		return nil, setTopMargin(ctx, tk, sv.ContentParent, DefaultContentMargin)
	})

	// show: eN(revealX, revealY, radius)
	app.AppSearchView.Define("eN", []*host.Type{host.Int, host.Int, host.Int}, func(ctx context.Context, this any, _ []any) (any, error) {
		sv := this.(*AppSearchView)
		sv.Shown = true
		return nil, app.animate(ctx, sv, 0, DefaultScrimColor)
	})

	// hide: eN(flags)
	app.AppSearchView.Define("eN", []*host.Type{host.Int}, func(ctx context.Context, this any, _ []any) (any, error) {
		sv := this.(*AppSearchView)
		sv.Shown = false
		return nil, app.animate(ctx, sv, DefaultScrimColor, 0)
	})

	// toggles the soft keyboard
	app.AppSearchView.Define("fb", nil, func(_ context.Context, this any, _ []any) (any, error) {
		sv := this.(*AppSearchView)
		sv.KeyboardShown = !sv.KeyboardShown
		return nil, nil
	})
}

func (app *App) defineLauncher() {
	// eN(view, open, x, y) opens or closes the app drawer
	app.Launcher.Define("eN", []*host.Type{app.Toolkit.View, host.Bool, host.Int, host.Int}, func(ctx context.Context, this any, args []any) (any, error) {
		l := this.(*Launcher)
		sv := l.SearchView
		if sv == nil {
			return nil, errors.New("launcher has no search view")
		}
		open := args[1].(bool)

		if _, err := app.call(ctx, app.AppSearchView, "fb", sv); err != nil {
			return nil, err
		}
		if open {
			return app.call(ctx, app.AppSearchView, "eN", sv, args[2], args[3], 0)
		}
		return app.call(ctx, app.AppSearchView, "eN", sv, 0)
	})
}

// animate plays the reveal animation of the search view together with an
// unrelated icon fade that the drawer starts at the same time.
func (app *App) animate(ctx context.Context, sv *AppSearchView, from, to int) error {
	tk := app.Toolkit

	icons := widget.NewAnimatorSet(
		widget.NewValueAnimator(0, 255, DefaultAnimationMillis),
		widget.NewObjectAnimator(sv.ContentParent, "alpha", 0, 255, DefaultAnimationMillis),
		widget.NewValueAnimator(0, 1, DefaultAnimationMillis),
	)
	reveal := widget.NewAnimatorSet(
		widget.NewValueAnimator(0, 1000, DefaultAnimationMillis),
		widget.NewObjectAnimator(sv, "backgroundColor", from, to, DefaultAnimationMillis),
		widget.NewValueAnimator(0, 255, DefaultAnimationMillis),
	)
	sv.Animations = append(sv.Animations, icons, reveal)

	for _, set := range []*widget.AnimatorSet{icons, reveal} {
		if _, err := tk.Call(ctx, tk.AnimatorSet, "start", set); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) call(ctx context.Context, typ *host.Type, name string, this any, args ...any) (any, error) {
	params := make([]*host.Type, len(args))
	for i, a := range args {
		switch a.(type) {
		case int:
			params[i] = host.Int
		case bool:
			params[i] = host.Bool
		default:
			return nil, errors.Errorf("unsupported argument %T", a)
		}
	}
	m, ok := typ.DeclaredMethod(name, params...)
	if !ok {
		return nil, errors.Errorf("%s has no method %s", typ.Name, host.Signature(name, params))
	}
	return m.Invoke(ctx, this, args...)
}

func setTopMargin(ctx context.Context, tk *widget.Toolkit, f *widget.FrameLayout, margin int) error {
	v, err := tk.Call(ctx, tk.FrameLayout, "getLayoutParams", f)
	if err != nil {
		return err
	}
	lp, _ := v.(*widget.MarginLayoutParams)
	if lp == nil {
		lp = &widget.MarginLayoutParams{}
	}
	lp.TopMargin = margin
	_, err = tk.Call(ctx, tk.FrameLayout, "setLayoutParams", f, lp)
	return err
}

// SetLauncher attaches sv to l through the host.
func (app *App) SetLauncher(ctx context.Context, sv *AppSearchView, l *Launcher) error {
	m, ok := app.AppSearchView.DeclaredMethod("setLauncher", app.Launcher)
	if !ok {
		return errors.New("setLauncher is not defined")
	}
	_, err := m.Invoke(ctx, sv, l)
	return err
}

// ToggleDrawer opens or closes the drawer through Launcher.eN.
func (app *App) ToggleDrawer(ctx context.Context, l *Launcher, open bool) error {
	m, ok := app.Launcher.DeclaredMethod("eN", app.Toolkit.View, host.Bool, host.Int, host.Int)
	if !ok {
		return errors.New("eN is not defined on Launcher")
	}
	_, err := m.Invoke(ctx, l, l.SearchView, open, 540, 1200)
	return err
}
