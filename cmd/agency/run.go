package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
	"github.com/jrife/agency/protocol"
	"github.com/jrife/agency/store"
	"github.com/scott-cotton/cli"
	"github.com/segmentio/encoding/json"
)

// Script is a sequence of steps run against a fresh store. Seed, if
// present, is set at the root before the first step.
//
//	seed: {a: 1}
//	steps:
//	- apply: [[{/a: {op: increment}}]]
//	- read: [[/a]]
type Script struct {
	Seed  interface{} `yaml:"seed"`
	Steps []Step      `yaml:"steps"`
}

// Step holds exactly one of a batch to apply or a read query
type Step struct {
	Apply interface{} `yaml:"apply"`
	Read  interface{} `yaml:"read"`
}

func parseScript(d []byte) (*Script, error) {
	script := &Script{}
	if err := yaml.UnmarshalWithOptions(d, script, yaml.UseOrderedMap(), yaml.AllowDuplicateMapKey()); err != nil {
		return nil, err
	}
	for i, step := range script.Steps {
		if (step.Apply == nil) == (step.Read == nil) {
			return nil, fmt.Errorf("step %d must have exactly one of apply or read", i)
		}
	}
	return script, nil
}

func run(cfg *RunConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Run.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	for i, path := range args {
		if i > 0 {
			if _, err := io.WriteString(cc.Out, "---\n"); err != nil {
				return err
			}
		}
		d, err := readInput(cc, path)
		if err != nil {
			return err
		}
		script, err := parseScript(d)
		if err != nil {
			return fmt.Errorf("error decoding script %s: %w", path, err)
		}
		s, err := cfg.newStore(filepath.Base(path))
		if err != nil {
			return err
		}
		if err := runScript(cfg, cc.Out, s, script); err != nil {
			return fmt.Errorf("error running script %s: %w", path, err)
		}
	}
	return nil
}

func runScript(cfg *RunConfig, w io.Writer, s *store.Store, script *Script) error {
	ctx := context.Background()
	p := newPalette(cfg.colored(w))
	if script.Seed != nil {
		results := s.Apply(ctx, []protocol.Transaction{{Operations: []protocol.Operation{protocol.Set("/", script.Seed)}}})
		if err := results[0].Err; err != nil {
			return fmt.Errorf("could not seed store: %w", err)
		}
	}
	var err error
	for i, step := range script.Steps {
		var before string
		if cfg.Diff {
			before = s.String()
		}
		var beforeJSON []byte
		if cfg.Patch {
			if beforeJSON, err = s.Snapshot().MarshalJSON(); err != nil {
				return err
			}
		}
		var (
			reply []byte
			verb  string
		)
		switch {
		case step.Apply != nil:
			verb = "apply"
			reply, err = applyStep(ctx, s, step.Apply)
		default:
			verb = "read"
			reply, err = readStep(ctx, s, step.Read)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if _, err := fmt.Fprintf(w, "# %d %s\n%s\n", i, verb, reply); err != nil {
			return err
		}
		if cfg.Patch && step.Apply != nil {
			if err := printPatch(w, beforeJSON, s); err != nil {
				return err
			}
		}
		if cfg.Diff && step.Apply != nil {
			if err := renderDiff(w, before, s.String(), p); err != nil {
				return err
			}
		}
		if cfg.Render {
			if err := renderTree(w, s.Snapshot(), p); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyStep(ctx context.Context, s *store.Store, v interface{}) ([]byte, error) {
	batch, err := protocol.ParseBatch(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(store.Outcomes(s.Apply(ctx, batch)))
}

func readStep(ctx context.Context, s *store.Store, v interface{}) ([]byte, error) {
	query, err := protocol.ParseReadQuery(v)
	if err != nil {
		return nil, err
	}
	return store.EncodeReadResults(s.Read(ctx, query))
}

// printPatch writes the JSON merge patch that takes before to the
// current state of s
func printPatch(w io.Writer, before []byte, s *store.Store) error {
	after, err := s.Snapshot().MarshalJSON()
	if err != nil {
		return err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return fmt.Errorf("could not create patch: %w", err)
	}
	_, err = fmt.Fprintf(w, "patch: %s\n", patch)
	return err
}
