package main

import (
	"fmt"

	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/install"
	"github.com/bambi/overwatch/pkg/launcher"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/bambi/overwatch/pkg/overwatch"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the launcher, install the module and open/close the drawer",
	Long: `run loads the simulated launcher under --package, hands it to the overwatch
module, and toggles the app drawer --cycles times. Hook failures are printed
and journaled; the module is unloaded before exiting.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pkg, _ := cmd.Flags().GetString("package")
		cycles, _ := cmd.Flags().GetInt("cycles")
		overrides, _ := cmd.Flags().GetStringToString("set")

		opts, err := moduleOptions(overrides)
		if err != nil {
			return err
		}

		store, err := openJournal(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("run", store.RunID()))
		}
		sink, mem := initSink(store)

		app, err := loadTarget()
		if err != nil {
			return errors.Wrap(err, "failed to load target")
		}

		mod := overwatch.New(opts, overwatch.WithSink(sink), overwatch.WithInstaller(install.New(install.WithSink(sink))))
		n := mod.HandleLoad(ctx, pkg, app.Loader)

		out.Section(fmt.Sprintf("Hooks installed into %s", pkg))
		rows := make([][]string, 0, n)
		for _, h := range mod.Installer().Active() {
			rows = append(rows, []string{short(h.ID), h.Spec().Name, h.Method().String()})
		}
		out.Table([]string{"ID", "HOOK", "METHOD"}, rows)

		sv, l := app.New(), &launcher.Launcher{}
		if err := app.SetLauncher(ctx, sv, l); err != nil {
			return errors.Wrap(err, "setLauncher failed")
		}
		out.Info(fmt.Sprintf("search bar background: %v, top margins: %d/%d",
			sv.Bar.Background, sv.SearchbarBackground.LayoutParams.TopMargin, sv.ContentParent.LayoutParams.TopMargin))

		for i := 0; i < cycles; i++ {
			for _, open := range []bool{true, false} {
				if err := app.ToggleDrawer(ctx, l, open); err != nil {
					return errors.Wrapf(err, "drawer toggle %d failed", i)
				}
				reveal := sv.Animations[len(sv.Animations)-1]
				out.Info(fmt.Sprintf("drawer open=%-5t scrim=#%08X duration=%dms keyboard=%t",
					open, uint32(sv.Color), reveal.Duration, sv.KeyboardShown))
			}
		}

		unload(ctx, mod)

		failures := len(mem.Filter(diag.KindHookFailure)) + len(mem.Filter(diag.KindUnhookFailure))
		if failures > 0 {
			out.Warning(fmt.Sprintf("%d hook operation(s) failed; see `overwatch diag`", failures))
			return nil
		}
		out.Success(fmt.Sprintf("%d hooks installed and removed cleanly", n))
		return nil
	},
}

func init() {
	runCmd.Flags().String("package", launcher.Package, "Package name the target is loaded under")
	runCmd.Flags().Int("cycles", 1, "How many times to open and close the drawer")
	runCmd.Flags().StringToString("set", nil, "Override a module option, e.g. --set target_color=0xCC000000")
}
