package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// ModeVariables binds address and network through the GraphQL variables object.
	ModeVariables = "variables"
	// ModeInline embeds address and network directly into the query document.
	ModeInline = "inline"

	// NetworkTypeDefault is the GraphQL type of the network argument on the scanner.
	NetworkTypeDefault = "Int"

	// selection is the fixed field set requested for every lookup.
	selection = `score
      whitelisted
      exploited
      dimensionsAmount
      finalResult
      classicScore
      aiScore {
        dex
        organic
        totalScore
        reputation
        sybil
        utility
      }
      dimensions {
        score
        name
      }`
)

var (
	ErrInvalidChainID = errors.New("invalid chainId")
	ErrMissingParam   = errors.New("missing address or chainId")

	intToken  = regexp.MustCompile(`^-?[0-9]+$`)
	nameToken = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

	// Modes lists the supported query modes.
	Modes = []string{ModeVariables, ModeInline}
)

// Request is the GraphQL request body posted to the scanner.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Builder renders score lookups into GraphQL requests.
type Builder struct {
	Mode        string
	NetworkType string
}

// NewBuilder returns a builder for the given mode, defaulting to variable binding.
func NewBuilder(mode, networkType string) (*Builder, error) {
	switch mode {
	case "":
		mode = ModeVariables
	case ModeVariables, ModeInline:
	default:
		return nil, fmt.Errorf("unsupported query mode %q (supported: %s)", mode, strings.Join(Modes, ", "))
	}

	if networkType == "" {
		networkType = NetworkTypeDefault
	}
	if !nameToken.MatchString(networkType) {
		return nil, fmt.Errorf("invalid network type %q", networkType)
	}

	return &Builder{Mode: mode, NetworkType: networkType}, nil
}

// ValidChainID reports whether id is a single GraphQL Int or Name token.
func ValidChainID(id string) bool {
	return intToken.MatchString(id) || nameToken.MatchString(id)
}

// Build returns the GraphQL request for the address and chain.
func (b *Builder) Build(address, chainID string) (*Request, error) {
	if address == "" || chainID == "" {
		return nil, ErrMissingParam
	}
	if !ValidChainID(chainID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChainID, chainID)
	}

	if b.Mode == ModeInline {
		return &Request{Query: Inline(address, chainID)}, nil
	}

	var network any = chainID
	if b.NetworkType == NetworkTypeDefault {
		n, err := strconv.ParseInt(chainID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidChainID, chainID)
		}
		network = n
	}

	doc := fmt.Sprintf(`query Score($address: String!, $network: %s!) {
  score(address: $address, network: $network) {
      %s
  }
}`, b.NetworkType, selection)

	return &Request{
		Query: doc,
		Variables: map[string]any{
			"address": address,
			"network": network,
		},
	}, nil
}

// Inline renders the lookup with the address as a quoted string literal and
// the chain as an unquoted token. The chain must already be validated.
func Inline(address, chainID string) string {
	return fmt.Sprintf(`query {
  score(address: %s, network: %s) {
      %s
  }
}`, quote(address), chainID, selection)
}

// quote renders s as a GraphQL string literal. JSON string escaping is a
// subset of what the GraphQL lexer accepts.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}
