package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/looker/config"
)

type InitCmd struct {
	File  string `help:"Configuration file to write." arg:"" optional:"" default:"${config_file}" type:"path"`
	Force bool   `help:"Overwrite an existing file without asking." short:"f"`
}

func (cmd *InitCmd) Run(ctx *kong.Context, globals *Globals) error {
	if fileExists(cmd.File) && !cmd.Force {
		confirmed, err := prompt(fmt.Sprintf("%s already exists. Overwrite it?", cmd.File))
		if err != nil {
			return err
		}
		if !confirmed {
			printError(ctx.Stderr, fmt.Sprintf("%s already exists (use --force to overwrite)", cmd.File))
			return NewCommandError(1)
		}
	}

	if err := config.New().Write(cmd.File); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Wrote default configuration to %s", pathStyle.Render(cmd.File)))
	return nil
}
