package feed

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/collateral-engine/internal/config"
	"github.com/yourorg/collateral-engine/internal/security"
)

func quoteServer(t *testing.T, signer *security.QuoteSigner, price *big.Int, at time.Time) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"price":      price.String(),
			"updated_at": at.Unix(),
		}
		if signer != nil {
			sig, err := signer.Sign("WETH", price, time.Unix(at.Unix(), 0))
			require.NoError(t, err)
			payload["signature"] = "0x" + hex.EncodeToString(sig)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestHTTPFeed_ParsesQuote(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	srv := quoteServer(t, nil, big.NewInt(2000_0000_0000), at)
	defer srv.Close()

	f := NewHTTPFeed("WETH", srv.URL, 8)
	quote, err := f.LatestQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000_0000_0000), quote.Price)
	assert.Equal(t, at.Unix(), quote.UpdatedAt.Unix())
	assert.Equal(t, uint8(8), f.Decimals())
}

func TestHTTPFeed_VerifiesSignature(t *testing.T) {
	signer, err := security.GenerateQuoteSigner()
	require.NoError(t, err)

	at := time.Unix(1_700_000_000, 0)
	srv := quoteServer(t, signer, big.NewInt(2000_0000_0000), at)
	defer srv.Close()

	f := NewHTTPFeed("WETH", srv.URL, 8).WithVerifier(security.NewVerifier(signer.Address()))
	_, err = f.LatestQuote(context.Background())
	assert.NoError(t, err)
}

func TestHTTPFeed_RejectsWrongSigner(t *testing.T) {
	rogue, err := security.GenerateQuoteSigner()
	require.NoError(t, err)
	trusted, err := security.GenerateQuoteSigner()
	require.NoError(t, err)

	srv := quoteServer(t, rogue, big.NewInt(2000_0000_0000), time.Unix(1_700_000_000, 0))
	defer srv.Close()

	f := NewHTTPFeed("WETH", srv.URL, 8).WithVerifier(security.NewVerifier(trusted.Address()))
	_, err = f.LatestQuote(context.Background())
	assert.ErrorIs(t, err, security.ErrUnknownSigner)
}

func TestHTTPFeed_SurfacesEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFeed("WETH", srv.URL, 8)
	_, err := f.LatestQuote(context.Background())
	assert.Error(t, err)
}

func TestBuildRegistry(t *testing.T) {
	cfg := config.Config{Assets: []config.AssetConfig{
		{Symbol: "WETH", Feed: "static", Decimals: 8, Price: "200000000000"},
		{Symbol: "WBTC", Feed: "static", Decimals: 8, Price: "4000000000000"},
	}}

	reg, err := BuildRegistry(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, len(reg.Assets()))

	f, ok := reg.Feed("WETH")
	require.True(t, ok)
	quote, err := f.LatestQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200000000000), quote.Price)
}

func TestBuildRegistry_Validation(t *testing.T) {
	cases := []struct {
		name   string
		assets []config.AssetConfig
	}{
		{"empty symbol", []config.AssetConfig{{Feed: "static", Price: "1"}}},
		{"duplicate asset", []config.AssetConfig{
			{Symbol: "WETH", Feed: "static", Price: "1"},
			{Symbol: "WETH", Feed: "static", Price: "1"},
		}},
		{"bad static price", []config.AssetConfig{{Symbol: "WETH", Feed: "static", Price: "abc"}}},
		{"http without url", []config.AssetConfig{{Symbol: "WETH", Feed: "http"}}},
		{"unknown kind", []config.AssetConfig{{Symbol: "WETH", Feed: "carrier-pigeon"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildRegistry(context.Background(), config.Config{Assets: tc.assets})
			assert.Error(t, err)
		})
	}
}
