// Package security provides cryptographic attestation for off-chain price
// quotes: feeds sign the quote payload and the consumer verifies the
// recovered signer against an allow-list before trusting the price.
package security

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/model"
)

var (
	// ErrBadSignature indicates the signature bytes are malformed or do
	// not match the quote payload.
	ErrBadSignature = errors.New("security: invalid quote signature")

	// ErrUnknownSigner indicates the recovered signer is not on the
	// allow-list.
	ErrUnknownSigner = errors.New("security: quote signed by unknown signer")
)

// QuoteDigest computes the Keccak256 digest a feed signs: the asset symbol,
// the big-endian price bytes with a sign marker, and the unix timestamp.
func QuoteDigest(asset model.Asset, price *big.Int, updatedAt time.Time) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(updatedAt.Unix()))

	sign := byte(0)
	if price != nil && price.Sign() < 0 {
		sign = 1
	}
	var priceBytes []byte
	if price != nil {
		priceBytes = new(big.Int).Abs(price).Bytes()
	}

	return crypto.Keccak256Hash([]byte(asset), []byte{sign}, priceBytes, ts[:])
}

// QuoteSigner signs quote payloads with a secp256k1 key. Used by the dev
// static feed server and by tests; production feeds sign out of process.
type QuoteSigner struct {
	key *ecdsa.PrivateKey
}

// NewQuoteSigner wraps an existing key.
func NewQuoteSigner(key *ecdsa.PrivateKey) *QuoteSigner {
	return &QuoteSigner{key: key}
}

// GenerateQuoteSigner creates a signer with a fresh key.
func GenerateQuoteSigner() (*QuoteSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("security: generate signing key: %w", err)
	}
	return &QuoteSigner{key: key}, nil
}

// Address returns the signer's address, the identity verifiers allow-list.
func (s *QuoteSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign produces a 65-byte recoverable signature over the quote digest.
func (s *QuoteSigner) Sign(asset model.Asset, price *big.Int, updatedAt time.Time) ([]byte, error) {
	digest := QuoteDigest(asset, price, updatedAt)
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("security: sign quote: %w", err)
	}
	return sig, nil
}

// Verifier checks quote signatures against an allow-list of signers.
type Verifier struct {
	allowed map[common.Address]struct{}
}

// NewVerifier creates a verifier trusting the given signer addresses.
func NewVerifier(signers ...common.Address) *Verifier {
	allowed := make(map[common.Address]struct{}, len(signers))
	for _, signer := range signers {
		allowed[signer] = struct{}{}
	}
	return &Verifier{allowed: allowed}
}

// Verify recovers the signer from the signature and checks the allow-list.
func (v *Verifier) Verify(asset model.Asset, price *big.Int, updatedAt time.Time, signature []byte) error {
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrBadSignature, crypto.SignatureLength, len(signature))
	}

	digest := QuoteDigest(asset, price, updatedAt)
	pubkey, err := crypto.SigToPub(digest.Bytes(), signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	signer := crypto.PubkeyToAddress(*pubkey)
	if _, ok := v.allowed[signer]; !ok {
		logrus.Warnf("Rejected quote for %s signed by untrusted %s", asset, signer.Hex())
		return fmt.Errorf("%w: %s", ErrUnknownSigner, signer.Hex())
	}
	return nil
}
