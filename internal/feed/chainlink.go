package feed

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/model"
)

// AggregatorV3 read surface: decimals plus latestRoundData.
const aggregatorV3ABI = `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[
		{"internalType":"uint80","name":"roundId","type":"uint80"},
		{"internalType":"int256","name":"answer","type":"int256"},
		{"internalType":"uint256","name":"startedAt","type":"uint256"},
		{"internalType":"uint256","name":"updatedAt","type":"uint256"},
		{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],
	 "stateMutability":"view","type":"function"}
]`

// ChainlinkFeed reads latestRoundData from an on-chain AggregatorV3
// contract. The answer's precision is read once from the contract at
// construction.
type ChainlinkFeed struct {
	client   *ethclient.Client
	address  common.Address
	parsed   abi.ABI
	decimals uint8
}

// NewChainlinkFeed dials the RPC endpoint and reads the aggregator's
// decimals. Construction fails if the contract is unreachable, so a broken
// feed config is caught at startup rather than at first valuation.
func NewChainlinkFeed(ctx context.Context, rpcURL string, address common.Address) (*ChainlinkFeed, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", rpcURL, err)
	}
	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing aggregator ABI: %w", err)
	}

	f := &ChainlinkFeed{client: client, address: address, parsed: parsed}
	out, err := f.call(ctx, "decimals")
	if err != nil {
		return nil, fmt.Errorf("reading decimals from %s: %w", address.Hex(), err)
	}
	f.decimals = out[0].(uint8)

	logrus.Infof("Chainlink feed %s initialized (%d decimals)", address.Hex(), f.decimals)
	return f, nil
}

// LatestQuote implements oracle.PriceFeed.
func (f *ChainlinkFeed) LatestQuote(ctx context.Context) (model.Quote, error) {
	out, err := f.call(ctx, "latestRoundData")
	if err != nil {
		return model.Quote{}, fmt.Errorf("latestRoundData on %s: %w", f.address.Hex(), err)
	}

	answer, ok := out[1].(*big.Int)
	if !ok {
		return model.Quote{}, fmt.Errorf("unexpected answer type from %s", f.address.Hex())
	}
	updatedAt, ok := out[3].(*big.Int)
	if !ok {
		return model.Quote{}, fmt.Errorf("unexpected updatedAt type from %s", f.address.Hex())
	}

	return model.Quote{
		Price:     answer,
		UpdatedAt: time.Unix(updatedAt.Int64(), 0),
		Source:    "chainlink:" + f.address.Hex(),
	}, nil
}

// Decimals implements oracle.PriceFeed.
func (f *ChainlinkFeed) Decimals() uint8 { return f.decimals }

// Close releases the underlying RPC connection.
func (f *ChainlinkFeed) Close() {
	f.client.Close()
}

func (f *ChainlinkFeed) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := f.parsed.Pack(method)
	if err != nil {
		return nil, err
	}
	res, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return f.parsed.Unpack(method, res)
}
