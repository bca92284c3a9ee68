package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bambi/overwatch/pkg/db"
	"github.com/bambi/overwatch/pkg/diag"
	"github.com/bambi/overwatch/pkg/diag/journal"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/launcher"
	"github.com/bambi/overwatch/pkg/overwatch"
	"github.com/bambi/overwatch/pkg/widget"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// loadTarget registers the toolkit and loads the launcher on top of it.
func loadTarget() (*launcher.App, error) {
	tk, err := widget.Register(host.NewLoader("framework", nil))
	if err != nil {
		return nil, err
	}
	return launcher.Load(tk)
}

func journalPath() (string, error) {
	if p := viper.GetString("journal.path"); p != "" {
		return p, nil
	}
	return db.DefaultDBPath()
}

// openJournal returns nil when journaling is disabled.
func openJournal(ctx context.Context) (*journal.Store, error) {
	if !viper.GetBool("journal.enabled") || viper.GetBool("journal.disabled") {
		return nil, nil
	}
	path, err := journalPath()
	if err != nil {
		return nil, err
	}
	store, err := journal.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open journal at %s", path)
	}
	return store, nil
}

// initSink installs the process-wide sink. Entries are kept in memory for
// the run summary and journaled when a store is given.
func initSink(store *journal.Store) (*diag.Sink, *diag.MemoryJournal) {
	mem := diag.NewMemoryJournal()
	opts := []diag.Option{diag.WithJournal(mem)}
	if store != nil {
		opts = append(opts, diag.WithJournal(store))
	}
	return diag.Init(opts...), mem
}

// moduleOptions decodes the "module" config section over the defaults and
// applies key=value overrides.
func moduleOptions(overrides map[string]string) (overwatch.Options, error) {
	raw := viper.GetStringMap("module")
	if raw == nil {
		raw = make(map[string]any)
	}
	for k, v := range overrides {
		raw[k] = v
	}
	return overwatch.DecodeOptions(raw)
}

// unload removes the module's hooks and warns about any that could not be
// removed; each failure is already in the journal.
func unload(ctx context.Context, mod *overwatch.Module) {
	if err := mod.Unload(ctx); err != nil {
		out.Warning(fmt.Sprintf("unload: %v", err))
	}
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode json")
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
