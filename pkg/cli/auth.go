package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the upstream API token in the OS keychain",
		UsageText: `scoreproxy auth --token <token>   # store token
   scoreproxy auth --clear           # remove stored token`,
		Action: cmdAuth,
		Flags: []cli.Flag{
			storeTokenFlag(),
			clearFlag(),
		},
	}
}

func cmdAuth(_ context.Context, cmd *cli.Command) error {
	store := getConfig(cmd).Tokens
	w := cmd.Root().Writer

	if cmd.Bool(flagClear) {
		if err := store.Delete(); err != nil {
			return fmt.Errorf("clearing token: %w", err)
		}
		fmt.Fprintln(w, "Upstream token removed")
		return nil
	}

	token := cmd.String(flagToken)
	if token == "" {
		return cli.ShowSubcommandHelp(cmd)
	}

	if err := store.Save(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(w, "Upstream token saved")
	return nil
}
