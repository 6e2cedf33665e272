package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mchmarny/scoreproxy/pkg/config"
	"github.com/mchmarny/scoreproxy/pkg/net"
	"github.com/mchmarny/scoreproxy/pkg/query"
	"github.com/mchmarny/scoreproxy/pkg/scan"
	"github.com/urfave/cli/v3"
)

func newScoreCmd() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Look up the risk score of an address once and print the upstream response",
		UsageText: `scoreproxy score --address 0x8589427373D6D84E98730D7795D8f6f8731FDA16 --chain 1
   scoreproxy score -a 0xabc -c 56 --format yaml`,
		Action: cmdScore,
		Flags: []cli.Flag{
			walletAddressFlag(),
			chainFlag(),
			upstreamFlag(),
			retriesFlag(),
			upstreamTokenFlag(),
			formatFlag(),
		},
	}
}

func cmdScore(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)
	cfg := *app.Config
	applyUpstreamFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c, err := newScanClient(ctx, &cfg, app.Tokens.Resolve(cmd.String(flagToken)))
	if err != nil {
		return err
	}

	body, err := c.Score(ctx, cmd.String(flagAddress), cmd.String(flagChain))
	if err != nil {
		var pe *scan.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintln(cmd.Root().ErrWriter, pe.Raw)
		}
		return fmt.Errorf("looking up score: %w", err)
	}

	if err := encodeRaw(cmd.Root().Writer, cmd.String(flagFormat), body); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

// newScanClient wires the upstream client from config. A non-empty token is
// sent as a bearer credential.
func newScanClient(ctx context.Context, cfg *config.Config, token string) (*scan.Client, error) {
	b, err := query.NewBuilder(cfg.Upstream.QueryMode, cfg.Upstream.NetworkType)
	if err != nil {
		return nil, fmt.Errorf("creating query builder: %w", err)
	}

	var hc *http.Client
	hc, err = net.GetHTTPClient(cfg.Upstream.Timeout)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	if token != "" {
		hc = net.GetOAuthClient(ctx, hc, token)
	}

	c, err := scan.NewClient(cfg.ScanOptions(), hc, b)
	if err != nil {
		return nil, fmt.Errorf("creating scan client: %w", err)
	}
	return c, nil
}
