package main

import (
	"strconv"
	"strings"

	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/install"
	"github.com/bambi/overwatch/pkg/launcher"
	"github.com/bambi/overwatch/pkg/overwatch"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type methodRow struct {
	Type     string   `json:"type" yaml:"type"`
	Method   string   `json:"method" yaml:"method"`
	Params   []string `json:"params" yaml:"params"`
	Static   bool     `json:"static,omitempty" yaml:"static,omitempty"`
	Abstract bool     `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Hooks    int      `json:"hooks" yaml:"hooks"`
}

// listMethods returns every method of the given loaders' types whose
// "Type.method" name matches g.
func listMethods(g glob.Glob, loaders ...*host.Loader) []methodRow {
	var rows []methodRow
	for _, l := range loaders {
		for _, t := range l.Types() {
			for _, m := range t.DeclaredMethods() {
				if g != nil && !g.Match(t.Name+"."+m.Name) {
					continue
				}
				params := make([]string, len(m.Params))
				for i, p := range m.Params {
					params[i] = p.Name
				}
				rows = append(rows, methodRow{
					Type:     t.Name,
					Method:   m.Name,
					Params:   params,
					Static:   m.Static,
					Abstract: m.Abstract,
					Hooks:    m.Hooked(),
				})
			}
		}
	}
	return rows
}

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the methods of the simulated target and their hook counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		filter, _ := cmd.Flags().GetString("filter")
		hooked, _ := cmd.Flags().GetBool("hooked")
		format, _ := cmd.Flags().GetString("output")

		var g glob.Glob
		if filter != "" {
			compiled, err := glob.Compile(filter)
			if err != nil {
				return errors.Wrapf(err, "invalid filter %q", filter)
			}
			g = compiled
		}

		app, err := loadTarget()
		if err != nil {
			return err
		}

		if hooked {
			opts, err := moduleOptions(nil)
			if err != nil {
				return err
			}
			sink, _ := initSink(nil)
			mod := overwatch.New(opts, overwatch.WithSink(sink), overwatch.WithInstaller(install.New(install.WithSink(sink))))
			mod.HandleLoad(ctx, launcher.Package, app.Loader)
			defer unload(ctx, mod)
		}

		rows := listMethods(g, app.Toolkit.Loader, app.Loader)
		if format != "table" {
			return render(cmd.OutOrStdout(), format, rows)
		}

		table := make([][]string, len(rows))
		for i, r := range rows {
			sig := r.Method + "(" + strings.Join(r.Params, ",") + ")"
			table[i] = []string{r.Type, sig, strconv.Itoa(r.Hooks)}
		}
		out.Table([]string{"TYPE", "METHOD", "HOOKS"}, table)
		return nil
	},
}

func init() {
	methodsCmd.Flags().String("filter", "", "Glob over Type.method, e.g. '*AppSearchView.*'")
	methodsCmd.Flags().Bool("hooked", false, "Install the module before listing")
	methodsCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
}
