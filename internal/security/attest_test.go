package security

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := GenerateQuoteSigner()
	require.NoError(t, err)

	price := big.NewInt(2000_0000_0000)
	at := time.Unix(1_700_000_000, 0)

	sig, err := signer.Sign("WETH", price, at)
	require.NoError(t, err)

	verifier := NewVerifier(signer.Address())
	assert.NoError(t, verifier.Verify("WETH", price, at, sig))
}

func TestVerify_RejectsUnknownSigner(t *testing.T) {
	signer, err := GenerateQuoteSigner()
	require.NoError(t, err)
	other, err := GenerateQuoteSigner()
	require.NoError(t, err)

	price := big.NewInt(2000_0000_0000)
	at := time.Unix(1_700_000_000, 0)
	sig, err := other.Sign("WETH", price, at)
	require.NoError(t, err)

	verifier := NewVerifier(signer.Address())
	assert.ErrorIs(t, verifier.Verify("WETH", price, at, sig), ErrUnknownSigner)
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	signer, err := GenerateQuoteSigner()
	require.NoError(t, err)

	at := time.Unix(1_700_000_000, 0)
	sig, err := signer.Sign("WETH", big.NewInt(2000_0000_0000), at)
	require.NoError(t, err)

	verifier := NewVerifier(signer.Address())

	// Changing any signed field must fail verification.
	err = verifier.Verify("WETH", big.NewInt(1999_0000_0000), at, sig)
	assert.Error(t, err)
	err = verifier.Verify("WBTC", big.NewInt(2000_0000_0000), at, sig)
	assert.Error(t, err)
	err = verifier.Verify("WETH", big.NewInt(2000_0000_0000), at.Add(time.Second), sig)
	assert.Error(t, err)
}

func TestVerify_RejectsMalformedSignature(t *testing.T) {
	signer, err := GenerateQuoteSigner()
	require.NoError(t, err)

	verifier := NewVerifier(signer.Address())
	err = verifier.Verify("WETH", big.NewInt(1), time.Now(), []byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestQuoteDigest_DistinguishesSign(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	pos := QuoteDigest("WETH", big.NewInt(100), at)
	neg := QuoteDigest("WETH", big.NewInt(-100), at)
	assert.NotEqual(t, pos, neg)
}
