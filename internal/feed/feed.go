// Package feed provides the concrete price feed implementations consumed
// through the oracle adapter: an on-chain Chainlink aggregator client, a
// signed HTTP quote feed, and a static feed for development and tests.
package feed

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/config"
	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/oracle"
	"github.com/yourorg/collateral-engine/internal/security"
)

// Registry holds the configured price feed per collateral type.
type Registry struct {
	feeds map[model.Asset]oracle.PriceFeed
}

// BuildRegistry constructs all feeds declared in the configuration. Every
// asset gets exactly one feed; duplicate or unknown feed kinds fail hard so
// a misconfigured service never starts serving valuations.
func BuildRegistry(ctx context.Context, cfg config.Config) (*Registry, error) {
	feeds := make(map[model.Asset]oracle.PriceFeed, len(cfg.Assets))
	for _, ac := range cfg.Assets {
		if ac.Symbol == "" {
			return nil, fmt.Errorf("feed: asset config with empty symbol")
		}
		asset := model.Asset(ac.Symbol)
		if _, exists := feeds[asset]; exists {
			return nil, fmt.Errorf("feed: duplicate asset %s", asset)
		}

		switch ac.Feed {
		case "static":
			price, ok := new(big.Int).SetString(ac.Price, 10)
			if !ok {
				return nil, fmt.Errorf("feed: invalid static price %q for %s", ac.Price, asset)
			}
			feeds[asset] = NewStaticFeed(price, ac.Decimals)
		case "http":
			if ac.URL == "" {
				return nil, fmt.Errorf("feed: http feed for %s requires a url", asset)
			}
			f := NewHTTPFeed(asset, ac.URL, ac.Decimals)
			if ac.Signer != "" {
				f = f.WithVerifier(security.NewVerifier(common.HexToAddress(ac.Signer)))
			}
			feeds[asset] = f
		case "chainlink":
			if ac.RPCEndpoint == "" || ac.Address == "" {
				return nil, fmt.Errorf("feed: chainlink feed for %s requires rpc_endpoint and address", asset)
			}
			f, err := NewChainlinkFeed(ctx, ac.RPCEndpoint, common.HexToAddress(ac.Address))
			if err != nil {
				return nil, fmt.Errorf("feed: chainlink feed for %s: %w", asset, err)
			}
			feeds[asset] = f
		default:
			return nil, fmt.Errorf("feed: unknown feed kind %q for %s", ac.Feed, asset)
		}
		logrus.Infof("Registered %s feed for %s", ac.Feed, asset)
	}
	return &Registry{feeds: feeds}, nil
}

// Assets returns the registered collateral types in deterministic order.
func (r *Registry) Assets() []model.Asset {
	assets := make([]model.Asset, 0, len(r.feeds))
	for asset := range r.feeds {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	return assets
}

// Feed returns the feed registered for the asset.
func (r *Registry) Feed(asset model.Asset) (oracle.PriceFeed, bool) {
	f, ok := r.feeds[asset]
	return f, ok
}

// newRetryClient creates an HTTP client with bounded transport-level
// retries. Stale quotes are never retried; only connection failures are.
func newRetryClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil
	return c
}

// standardClient converts a retryablehttp.Client to a standard http.Client.
func standardClient(retryClient *retryablehttp.Client) *http.Client {
	return retryClient.StandardClient()
}
