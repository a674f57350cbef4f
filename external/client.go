package external

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bnb-chain/keys-hub/cache"
	"github.com/bnb-chain/keys-hub/config"
	"github.com/bnb-chain/keys-hub/logging"
)

var (
	// ErrChainRead wraps every failure of a call to the execution layer provider.
	ErrChainRead = errors.New("chain read failed")
	// ErrExecutionReverted is an eth_call the EVM reverted. It is also an ErrChainRead.
	ErrExecutionReverted = fmt.Errorf("%w: execution reverted", ErrChainRead)
)

// revertErrorCode is the json-rpc error code geth based nodes answer a reverted eth_call with.
const revertErrorCode = 3

// BlockHeader is the part of a block header the syncer records. Hash is lower-case 0x hex.
type BlockHeader struct {
	Number    uint64
	Hash      string
	Timestamp uint64
}

type IClient interface {
	GetBlock(ctx context.Context, tag string) (*BlockHeader, error)
	CallContract(ctx context.Context, to common.Address, data []byte, tag string) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

type Client struct {
	ethClient *ethclient.Client
	headers   cache.Cache
	endpoint  string
}

var _ IClient = (*Client)(nil)

// NewClient dials the first reachable provider.
func NewClient(cfg *config.SyncerConfig, headers cache.Cache) IClient {
	for _, url := range cfg.ProvidersUrls {
		rpcClient, err := rpc.DialContext(context.Background(), url)
		if err != nil {
			logging.Logger.Errorf("failed to dial provider %s, err=%s", url, err.Error())
			continue
		}
		return NewClientWithRPC(rpcClient, headers, url)
	}
	panic("new eth client error, no provider is reachable")
}

func NewClientWithRPC(rpcClient *rpc.Client, headers cache.Cache, endpoint string) *Client {
	return &Client{
		ethClient: ethclient.NewClient(rpcClient),
		headers:   headers,
		endpoint:  endpoint,
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	chainId, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: eth_chainId: %w", ErrChainRead, err)
	}
	return chainId, nil
}

// GetBlock returns the header of the block selected by tag. Headers fetched by hash are cached.
func (c *Client) GetBlock(ctx context.Context, tag string) (*BlockHeader, error) {
	blockTag, err := ParseBlockTag(tag)
	if err != nil {
		return nil, err
	}

	var header *ethtypes.Header
	if blockTag.Hash != nil {
		key := strings.ToLower(blockTag.Hash.Hex())
		if cached, ok := c.headers.Get(key); ok {
			return cached.(*BlockHeader), nil
		}
		header, err = c.ethClient.HeaderByHash(ctx, *blockTag.Hash)
	} else {
		header, err = c.ethClient.HeaderByNumber(ctx, blockTag.BigNumber())
	}
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: block %s not found", ErrChainRead, blockTag)
		}
		return nil, fmt.Errorf("%w: get block %s: %w", ErrChainRead, blockTag, err)
	}

	block := &BlockHeader{
		Number:    header.Number.Uint64(),
		Hash:      strings.ToLower(header.Hash().Hex()),
		Timestamp: header.Time,
	}
	c.headers.Set(block.Hash, block)
	return block, nil
}

func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte, tag string) ([]byte, error) {
	blockTag, err := ParseBlockTag(tag)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}
	var result []byte
	if blockTag.Hash != nil {
		result, err = c.ethClient.CallContractAtHash(ctx, msg, *blockTag.Hash)
	} else {
		result, err = c.ethClient.CallContract(ctx, msg, blockTag.BigNumber())
	}
	if err != nil {
		if isExecutionReverted(err) {
			return nil, fmt.Errorf("%w: eth_call to %s at %s: %w", ErrExecutionReverted, to.Hex(), blockTag, err)
		}
		return nil, fmt.Errorf("%w: eth_call to %s at %s: %w", ErrChainRead, to.Hex(), blockTag, err)
	}
	return result, nil
}

func isExecutionReverted(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
