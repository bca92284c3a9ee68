package overwatch

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Options tune the launcher customizations.
type Options struct {
	// TargetColor is the search view scrim color after it is shown
	TargetColor int `mapstructure:"target_color" yaml:"target_color"`
	// SearchbarMargin is added to the search bar's top margin
	SearchbarMargin int `mapstructure:"searchbar_margin" yaml:"searchbar_margin"`
	// ContentMargin is added to the result list's top margin
	ContentMargin    int  `mapstructure:"content_margin" yaml:"content_margin"`
	ClearBackground  bool `mapstructure:"clear_background" yaml:"clear_background"`
	SuppressKeyboard bool `mapstructure:"suppress_keyboard" yaml:"suppress_keyboard"`
	RetargetScrim    bool `mapstructure:"retarget_scrim" yaml:"retarget_scrim"`
}

// DefaultTargetColor is a nearly opaque dark scrim.
const DefaultTargetColor = 0xE0080808

// DefaultOptions enables every customization.
func DefaultOptions() Options {
	return Options{
		TargetColor:      DefaultTargetColor,
		SearchbarMargin:  200,
		ContentMargin:    70,
		ClearBackground:  true,
		SuppressKeyboard: true,
		RetargetScrim:    true,
	}
}

// DecodeOptions overlays raw on the defaults. Numbers may be given as
// strings, including hex such as "0xE0080808".
func DecodeOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	if len(raw) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return opts, errors.Wrap(err, "failed to create options decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return DefaultOptions(), errors.Wrap(err, "failed to decode module options")
	}
	return opts, nil
}
