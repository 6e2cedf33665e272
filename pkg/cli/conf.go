package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective configuration",
		Action: cmdConfig,
		Flags: []cli.Flag{
			formatFlag(),
		},
	}
}

func cmdConfig(_ context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)
	if err := encode(cmd.Root().Writer, cmd.String(flagFormat), app.Config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}
