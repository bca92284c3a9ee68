package overwatch

import (
	"context"
	"io"
	"testing"

	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/launcher"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/bambi/overwatch/pkg/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	app *launcher.App
	mem *diag.MemoryJournal
	mod *Module
	sv  *launcher.AppSearchView
	l   *launcher.Launcher
}

func setup(t *testing.T, opts Options) *env {
	t.Helper()
	tk, err := widget.Register(host.NewLoader("framework", nil))
	require.NoError(t, err)
	app, err := launcher.Load(tk)
	require.NoError(t, err)

	mem := diag.NewMemoryJournal()
	sink := diag.New(diag.WithLogger(logger.New(io.Discard, "text")), diag.WithJournal(mem))
	return &env{
		app: app,
		mem: mem,
		mod: New(opts, WithSink(sink)),
		sv:  app.New(),
		l:   &launcher.Launcher{},
	}
}

func (e *env) hookCount(typ *host.Type, name string) int {
	n := 0
	for _, m := range typ.DeclaredMethods() {
		if m.Name == name {
			n += m.Hooked()
		}
	}
	return n
}

func TestHandleLoad_IgnoresOtherPackages(t *testing.T) {
	e := setup(t, DefaultOptions())

	assert.Zero(t, e.mod.HandleLoad(context.Background(), "com.android.settings", e.app.Loader))
	assert.Zero(t, e.mem.Len())
	assert.Empty(t, e.mod.Installer().Active())
}

func TestHandleLoad_InstallsHooks(t *testing.T) {
	e := setup(t, DefaultOptions())

	assert.Equal(t, 4, e.mod.HandleLoad(context.Background(), launcher.Package, e.app.Loader))
	assert.Empty(t, e.mem.Filter(diag.KindHookFailure))
	notes := e.mem.Filter(diag.KindNote)
	require.Len(t, notes, 1)
	assert.Equal(t, "handleLoadPackage called for com.teslacoilsw.launcher", notes[0].Message)

	assert.Equal(t, 1, e.hookCount(e.app.AppSearchView, "setLauncher"))
	assert.Equal(t, 2, e.hookCount(e.app.AppSearchView, "eN"))
	assert.Equal(t, 1, e.hookCount(e.app.Launcher, "eN"))
	assert.Zero(t, e.hookCount(e.app.AppSearchView, "fb"))
	assert.Zero(t, e.hookCount(e.app.Toolkit.AnimatorSet, "start"))
}

func TestSetLauncher_Layout(t *testing.T) {
	ctx := context.Background()
	e := setup(t, DefaultOptions())
	e.mod.HandleLoad(ctx, launcher.Package, e.app.Loader)

	require.NoError(t, e.app.SetLauncher(ctx, e.sv, e.l))
	assert.Nil(t, e.sv.Bar.Background)
	assert.Equal(t, launcher.DefaultSearchbarMargin+200, e.sv.SearchbarBackground.LayoutParams.TopMargin)
	assert.Equal(t, launcher.DefaultContentMargin+70, e.sv.ContentParent.LayoutParams.TopMargin)
}

func TestShowHide_RetargetsScrim(t *testing.T) {
	ctx := context.Background()
	e := setup(t, DefaultOptions())
	e.mod.HandleLoad(ctx, launcher.Package, e.app.Loader)
	require.NoError(t, e.app.SetLauncher(ctx, e.sv, e.l))

	require.NoError(t, e.app.ToggleDrawer(ctx, e.l, true))
	assert.True(t, e.sv.Shown)
	assert.False(t, e.sv.KeyboardShown, "keyboard toggle suppressed")
	assert.Equal(t, DefaultTargetColor, e.sv.Color)

	require.Len(t, e.sv.Animations, 2)
	icons, reveal := e.sv.Animations[0], e.sv.Animations[1]

	scrim := reveal.Children[1].(*widget.ObjectAnimator)
	assert.Equal(t, []int{0, DefaultTargetColor}, scrim.Values)
	assert.Equal(t, int64(0), reveal.Duration)
	assert.Equal(t, int64(0), scrim.Duration)

	// the icon fade started in the same window is untouched
	assert.Equal(t, int64(-1), icons.Duration)
	fade := icons.Children[1].(*widget.ObjectAnimator)
	assert.Equal(t, []int{0, 255}, fade.Values)
	assert.Equal(t, int64(launcher.DefaultAnimationMillis), fade.Duration)

	require.NoError(t, e.app.ToggleDrawer(ctx, e.l, false))
	assert.False(t, e.sv.Shown)
	assert.False(t, e.sv.KeyboardShown)
	assert.Equal(t, 0, e.sv.Color)
	require.Len(t, e.sv.Animations, 4)
	hide := e.sv.Animations[3]
	assert.Equal(t, []int{DefaultTargetColor, 0}, hide.Children[1].(*widget.ObjectAnimator).Values)
	assert.Equal(t, int64(0), hide.Duration)

	// transient hooks are gone after each call
	assert.Zero(t, e.hookCount(e.app.Toolkit.AnimatorSet, "start"))
	assert.Zero(t, e.hookCount(e.app.AppSearchView, "fb"))
	assert.Len(t, e.mod.Installer().Active(), 4)
	assert.Equal(t, 1, e.mem.Len(), "only the load note")
}

func TestAnimatorSetOutsideWindowUntouched(t *testing.T) {
	ctx := context.Background()
	e := setup(t, DefaultOptions())
	e.mod.HandleLoad(ctx, launcher.Package, e.app.Loader)

	tk := e.app.Toolkit
	set := widget.NewAnimatorSet(
		widget.NewValueAnimator(0, 1, 100),
		widget.NewObjectAnimator(e.sv, BackgroundColorProperty, 0, 5, 100),
		widget.NewValueAnimator(0, 1, 100),
	)
	_, err := tk.Call(ctx, tk.AnimatorSet, "start", set)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, set.Children[1].(*widget.ObjectAnimator).Values)
	assert.Equal(t, int64(-1), set.Duration)
}

func TestUnload(t *testing.T) {
	ctx := context.Background()
	e := setup(t, DefaultOptions())
	e.mod.HandleLoad(ctx, launcher.Package, e.app.Loader)

	require.NoError(t, e.mod.Unload(ctx))
	assert.Empty(t, e.mod.Installer().Active())
	assert.Zero(t, e.hookCount(e.app.AppSearchView, "eN"))

	require.NoError(t, e.app.SetLauncher(ctx, e.sv, e.l))
	require.NoError(t, e.app.ToggleDrawer(ctx, e.l, true))
	assert.True(t, e.sv.KeyboardShown)
	assert.Equal(t, launcher.DefaultScrimColor, e.sv.Color)
	assert.Equal(t, launcher.SearchbarBackgroundName, e.sv.Bar.Background)
}

func TestHandleLoad_MissingTypesAreReported(t *testing.T) {
	ctx := context.Background()
	e := setup(t, DefaultOptions())

	// a loader that has the toolkit but not the launcher classes
	bare := host.NewLoader(launcher.Package, e.app.Toolkit.Loader)
	assert.Zero(t, e.mod.HandleLoad(ctx, launcher.Package, bare))

	failures := e.mem.Filter(diag.KindHookFailure)
	require.Len(t, failures, 4)
	assert.Equal(t, "Failed to hook method com.teslacoilsw.launcher.AppSearchView.setLauncher", failures[0].Message)
	assert.Equal(t, "not_found", failures[0].Cause)
}

func TestHandleLoad_WithoutToolkit(t *testing.T) {
	ctx := context.Background()
	e := setup(t, DefaultOptions())

	// neither framework nor launcher types: only the keyboard hook is attempted
	assert.Zero(t, e.mod.HandleLoad(ctx, launcher.Package, host.NewLoader("empty", nil)))
	notes := e.mem.Filter(diag.KindNote)
	require.Len(t, notes, 2)
	assert.Contains(t, notes[1].Message, "toolkit unavailable")
	assert.Len(t, e.mem.Filter(diag.KindHookFailure), 1)
}

func TestOptions_Toggles(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()
	opts.SuppressKeyboard = false
	opts.ClearBackground = false
	e := setup(t, opts)

	assert.Equal(t, 2, e.mod.HandleLoad(ctx, launcher.Package, e.app.Loader))
	require.NoError(t, e.app.SetLauncher(ctx, e.sv, e.l))
	require.NoError(t, e.app.ToggleDrawer(ctx, e.l, true))
	assert.True(t, e.sv.KeyboardShown)
	assert.Equal(t, launcher.SearchbarBackgroundName, e.sv.Bar.Background)
	assert.Equal(t, DefaultTargetColor, e.sv.Color)
}
