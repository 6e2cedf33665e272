package cli

import (
	"github.com/mchmarny/scoreproxy/pkg/config"
	"github.com/urfave/cli/v3"
)

const (
	flagDebug      = "debug"
	flagConfigDir  = "config"
	flagLogFormat  = "log-format"
	flagFormat     = "format"
	flagPort       = "port"
	flagAddress    = "address"
	flagUpstream   = "upstream"
	flagRetries    = "retries"
	flagCORSOrigin = "cors-origin"
	flagToken      = "token"
	flagChain      = "chain"
	flagClear      = "clear"
)

// Flags carry parse state in urfave/cli v3, so every command gets fresh ones.

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  flagDebug,
		Usage: "Prints verbose logs (optional, default: false)",
	}
}

func configDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagConfigDir,
		Usage: "Directory holding config.yaml (default: $HOME/.scoreproxy)",
	}
}

func logFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagLogFormat,
		Usage: "Log format [text, json, cli] (overrides config)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagFormat,
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
}

func portFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    flagPort,
		Usage:   "Port on which the server will listen",
		Value:   config.DefaultPort,
		Sources: cli.EnvVars("SCOREPROXY_PORT"),
	}
}

func listenAddressFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagAddress,
		Usage: "Interface on which the server will listen",
		Value: config.DefaultAddress,
	}
}

func upstreamFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagUpstream,
		Usage:   "Scanner GraphQL endpoint",
		Sources: cli.EnvVars("SCOREPROXY_UPSTREAM"),
	}
}

func retriesFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  flagRetries,
		Usage: "Retries after a null score (total attempts = retries + 1)",
	}
}

func corsOriginFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  flagCORSOrigin,
		Usage: "Allowed CORS origin (can be specified multiple times)",
	}
}

func upstreamTokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagToken,
		Usage:   "Upstream API token (default: stored token, see auth)",
		Sources: cli.EnvVars("SCOREPROXY_UPSTREAM_TOKEN"),
	}
}

func walletAddressFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     flagAddress,
		Aliases:  []string{"a"},
		Usage:    "Wallet or contract address",
		Required: true,
	}
}

func chainFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     flagChain,
		Aliases:  []string{"chainId", "c"},
		Usage:    "Chain ID of the network (e.g. 1 for Ethereum, 56 for BSC)",
		Required: true,
	}
}

func storeTokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagToken,
		Usage: "Upstream API token to store",
	}
}

func clearFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  flagClear,
		Usage: "Remove the stored upstream token",
	}
}
