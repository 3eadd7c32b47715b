package main

import (
	"context"
	"fmt"

	"github.com/scott-cotton/cli"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	s, err := cfg.newStore("")
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, path := range args {
		d, err := readInput(cc, path)
		if err != nil {
			return err
		}
		reply, err := s.ApplyJSON(ctx, d)
		if err != nil {
			return fmt.Errorf("error applying %s: %w", path, err)
		}
		if _, err := fmt.Fprintf(cc.Out, "%s\n", reply); err != nil {
			return err
		}
	}
	if cfg.Render {
		return renderTree(cc.Out, s.Snapshot(), newPalette(cfg.colored(cc.Out)))
	}
	return nil
}
