package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jrife/agency/store"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"
)

type MainConfig struct {
	V     bool `cli:"name=v desc='log store operations to stderr'"`
	Color bool `cli:"name=color desc='render trees in color'"`

	Main *cli.Command
}

// logger returns a development logger with -v and a no-op logger otherwise
func (cfg *MainConfig) logger() (*zap.Logger, error) {
	if !cfg.V {
		return zap.NewNop(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("could not create logger: %w", err)
	}
	return logger, nil
}

func (cfg *MainConfig) newStore(id string) (*store.Store, error) {
	logger, err := cfg.logger()
	if err != nil {
		return nil, err
	}
	return store.New(store.Config{Logger: logger, ID: id}), nil
}

// colored reports whether renders written to w use color: always with
// -color, otherwise only when w is a terminal.
func (cfg *MainConfig) colored(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	colorSet := false
	for _, opt := range cfg.opts() {
		if opt.Name != "color" {
			continue
		}
		colorSet = opt.Value != nil
		break
	}
	if colorSet {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func (cfg *MainConfig) opts() []*cli.Opt {
	if cfg.Main == nil {
		return nil
	}
	return cfg.Main.Opts
}

type RunConfig struct {
	*MainConfig

	Render bool `cli:"name=render desc='render the tree after every step'"`
	Diff   bool `cli:"name=diff desc='show how every apply step changed the rendered tree'"`
	Patch  bool `cli:"name=patch desc='print a JSON merge patch of every apply step'"`

	Run *cli.Command
}

type ApplyConfig struct {
	*MainConfig

	Render bool `cli:"name=render desc='render the tree after the last batch'"`

	Apply *cli.Command
}
