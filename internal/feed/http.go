package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/security"
)

// HTTPFeed reads quotes from an off-chain price endpoint. When a verifier
// is configured, each quote must carry a valid signature from an
// allow-listed signer or the read fails.
type HTTPFeed struct {
	asset      model.Asset
	url        string
	apiKey     string
	decimals   uint8
	httpClient *http.Client
	verifier   *security.Verifier
}

// NewHTTPFeed creates a feed for the asset against the given endpoint.
func NewHTTPFeed(asset model.Asset, url string, decimals uint8) *HTTPFeed {
	return &HTTPFeed{
		asset:      asset,
		url:        url,
		decimals:   decimals,
		httpClient: standardClient(newRetryClient()),
	}
}

// WithAPIKey sets a bearer token sent with every request.
func (f *HTTPFeed) WithAPIKey(key string) *HTTPFeed {
	f.apiKey = key
	return f
}

// WithVerifier requires quotes to be signed by an allow-listed signer.
func (f *HTTPFeed) WithVerifier(v *security.Verifier) *HTTPFeed {
	f.verifier = v
	return f
}

// LatestQuote implements oracle.PriceFeed.
func (f *HTTPFeed) LatestQuote(ctx context.Context) (model.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("error creating request: %w", err)
	}
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	logrus.Debugf("Fetching quote for %s from %s", f.asset, f.url)
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("error fetching quote for %s: %w", f.asset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.Quote{}, fmt.Errorf("quote endpoint error for %s: status %d, body: %s", f.asset, resp.StatusCode, string(body))
	}

	var payload struct {
		Price     string `json:"price"`
		UpdatedAt int64  `json:"updated_at"`
		Signature string `json:"signature,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Quote{}, fmt.Errorf("error decoding quote for %s: %w", f.asset, err)
	}

	price, ok := new(big.Int).SetString(payload.Price, 10)
	if !ok {
		return model.Quote{}, fmt.Errorf("malformed price %q for %s", payload.Price, f.asset)
	}
	updatedAt := time.Unix(payload.UpdatedAt, 0)

	if f.verifier != nil {
		sig := common.FromHex(payload.Signature)
		if err := f.verifier.Verify(f.asset, price, updatedAt, sig); err != nil {
			return model.Quote{}, err
		}
	}

	return model.Quote{Price: price, UpdatedAt: updatedAt, Source: f.url}, nil
}

// Decimals implements oracle.PriceFeed.
func (f *HTTPFeed) Decimals() uint8 { return f.decimals }
