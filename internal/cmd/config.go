package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig holds defaults read from a YAML file. Flags set on the command
// line take precedence over it.
type fileConfig struct {
	Root        string   `yaml:"root"`
	Pattern     string   `yaml:"pattern"`
	Exclude     []string `yaml:"exclude"`
	Languages   []string `yaml:"languages"`
	Python      string   `yaml:"python"`
	GitIgnore   *bool    `yaml:"gitignore"`
	OptionFlags []string `yaml:"optionflags"`
	Color       string   `yaml:"color"`
}

// loadConfig reads path. A missing file is only an error when the user named
// it explicitly.
func loadConfig(path string, explicit bool) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := new(fileConfig)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

func (opts *options) applyConfig(cmd *cobra.Command) error {
	path, explicit := opts.config, cmd.Flag("config").Changed
	if !explicit {
		path = defaultConfig
	}

	cfg, err := loadConfig(path, explicit)
	if err != nil || cfg == nil {
		return err
	}

	unset := func(name string) bool {
		flag := cmd.Flag(name)

		return flag != nil && !flag.Changed
	}

	if unset("root") && len(cfg.Root) != 0 {
		opts.root = cfg.Root
	}

	if unset("pattern") && len(cfg.Pattern) != 0 {
		opts.pattern = cfg.Pattern
	}

	if unset("exclude") && len(cfg.Exclude) != 0 {
		opts.exclude = cfg.Exclude
	}

	if unset("lang") && len(cfg.Languages) != 0 {
		opts.lang = cfg.Languages
	}

	if unset("python") && len(cfg.Python) != 0 {
		opts.python = cfg.Python
	}

	if unset("gitignore") && cfg.GitIgnore != nil {
		opts.gitignore = *cfg.GitIgnore
	}

	if unset("optionflags") && len(cfg.OptionFlags) != 0 {
		opts.optionflags = cfg.OptionFlags
	}

	if unset("color") && len(cfg.Color) != 0 {
		opts.color = cfg.Color
	}

	return nil
}
