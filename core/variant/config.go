package variant

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidConfig is returned when the configured roots cannot form a valid layout.
var ErrInvalidConfig = errors.New("invalid variant configuration")

// Config holds configuration for the main, channel and output trees.
type Config struct {
	// Base is the directory holding the main tree and every channel tree.
	Base string `mapstructure:"base" default:"./variants"`
	// Main is the name of the shared tree under Base.
	Main string `mapstructure:"main" default:"main"`
	// Channel is the name of the active override tree under Base. Empty disables the channel tier.
	Channel string `mapstructure:"channel" default:""`
	// OutputBase is the directory holding the output tree.
	OutputBase string `mapstructure:"output_base" default:"./"`
	// OutputDir is the name of the output tree under OutputBase.
	OutputDir string `mapstructure:"output_dir" default:"src"`
	// Verbose enables diagnostic output.
	Verbose bool `mapstructure:"verbose" default:"false"`
	// Ignore lists doublestar patterns, relative to a tree root, skipped by sync and watch.
	Ignore []string `mapstructure:"ignore" default:""`
	// Clean wipes the output root before a full sync instead of pruning stale entries.
	Clean bool `mapstructure:"clean" default:"false"`
	// Lock holds an exclusive lock file next to the output root while running.
	Lock bool `mapstructure:"lock" default:"true"`
}

// Roots are the absolute tree roots, resolved once at startup and never mutated.
type Roots struct {
	Main    string `json:"main"`
	Channel string `json:"channel,omitempty"`
	Output  string `json:"output"`
}

// HasChannel reports whether a channel tier is configured.
func (r Roots) HasChannel() bool {
	return r.Channel != ""
}

// Roots resolves the configured trees to absolute paths and validates their layout.
func (c Config) Roots() (Roots, error) {
	if strings.TrimSpace(c.Main) == "" {
		return Roots{}, fmt.Errorf("%w: main tree name is empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return Roots{}, fmt.Errorf("%w: output dir is empty", ErrInvalidConfig)
	}

	var roots Roots
	var err error
	if roots.Main, err = filepath.Abs(filepath.Join(c.Base, c.Main)); err != nil {
		return Roots{}, fmt.Errorf("%w: resolve main root: %v", ErrInvalidConfig, err)
	}
	if roots.Output, err = filepath.Abs(filepath.Join(c.OutputBase, c.OutputDir)); err != nil {
		return Roots{}, fmt.Errorf("%w: resolve output root: %v", ErrInvalidConfig, err)
	}
	if c.Channel != "" {
		if roots.Channel, err = filepath.Abs(filepath.Join(c.Base, c.Channel)); err != nil {
			return Roots{}, fmt.Errorf("%w: resolve channel root: %v", ErrInvalidConfig, err)
		}
	}

	if err := roots.validate(); err != nil {
		return Roots{}, err
	}
	return roots, nil
}

func (r Roots) validate() error {
	if overlaps(r.Main, r.Output) {
		return fmt.Errorf("%w: output root %s overlaps main root %s", ErrInvalidConfig, r.Output, r.Main)
	}
	if !r.HasChannel() {
		return nil
	}
	if overlaps(r.Main, r.Channel) {
		return fmt.Errorf("%w: channel root %s overlaps main root %s", ErrInvalidConfig, r.Channel, r.Main)
	}
	if overlaps(r.Channel, r.Output) {
		return fmt.Errorf("%w: output root %s overlaps channel root %s", ErrInvalidConfig, r.Output, r.Channel)
	}
	return nil
}

func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether path is root itself or lies below it.
func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
