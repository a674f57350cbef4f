package syncer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/external/contracts"
)

const (
	testLocator = "0xc1d0b3de6792bf6b4b37eccdcc24e45978cfd2eb"
	testRouter  = "0xfddf38947afb03c621c71b06c9c70bce73f12999"
	testModule  = "0x55032650b14df07b85bf18a3a3ec8e0af2e028d5"
	testModule2 = "0xae7b191a31f627b4eb1d4dac64eab9976995b433"
	testModule3 = "0xda7de2ecddfccc6c3af10108db212acbbf9ea83f"
)

// fakeChain serves block headers and pre-packed contract call results.
type fakeChain struct {
	mu       sync.Mutex
	block    *external.BlockHeader
	outputs  map[string][]byte
	reverts  map[string]bool
	chainId  int64
	getBlock int
}

var _ external.IClient = (*fakeChain)(nil)

func newFakeChain(number uint64) *fakeChain {
	c := &fakeChain{outputs: map[string][]byte{}, reverts: map[string]bool{}, chainId: 1}
	c.setBlock(number)
	return c
}

func (c *fakeChain) setBlock(number uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = &external.BlockHeader{
		Number:    number,
		Hash:      fmt.Sprintf("0x%064x", number),
		Timestamp: 1700000000 + number*12,
	}
}

func (c *fakeChain) GetBlock(ctx context.Context, tag string) (*external.BlockHeader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getBlock++
	block := *c.block
	return &block, nil
}

func (c *fakeChain) CallContract(ctx context.Context, to common.Address, data []byte, tag string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := callKey(to, data[:4])
	if c.reverts[key] {
		return nil, fmt.Errorf("%w: eth_call to %s", external.ErrExecutionReverted, to.Hex())
	}
	out, ok := c.outputs[key]
	if !ok {
		return nil, fmt.Errorf("%w: no result for eth_call to %s", external.ErrChainRead, to.Hex())
	}
	return out, nil
}

func (c *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(c.chainId), nil
}

func (c *fakeChain) respond(t *testing.T, to string, contract abi.ABI, method string, values ...interface{}) {
	m := contract.Methods[method]
	out, err := m.Outputs.Pack(values...)
	require.NoError(t, err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[callKey(common.HexToAddress(to), m.ID)] = out
}

func (c *fakeChain) revert(to string, contract abi.ABI, method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reverts[callKey(common.HexToAddress(to), contract.Methods[method].ID)] = true
}

func callKey(to common.Address, selector []byte) string {
	return strings.ToLower(to.Hex()) + hexutil.Encode(selector)
}

func moduleTypeBytes(s string) [32]byte {
	var raw [32]byte
	copy(raw[:], s)
	return raw
}

func routerModule(id int64, address string, name string) contracts.StakingModule {
	return contracts.StakingModule{
		Id:                    big.NewInt(id),
		StakingModuleAddress:  common.HexToAddress(address),
		StakingModuleFee:      500,
		TreasuryFee:           500,
		TargetShare:           10000,
		Name:                  name,
		LastDepositAt:         1700000000,
		LastDepositBlock:      big.NewInt(18000000),
		ExitedValidatorsCount: big.NewInt(3),
	}
}

// respondDiscovery registers locator, router and getType results for the given modules.
func respondDiscovery(t *testing.T, chain *fakeChain, modules []contracts.StakingModule, moduleTypes map[string]string) {
	chain.respond(t, testLocator, contracts.LidoLocatorABI, "stakingRouter", common.HexToAddress(testRouter))
	chain.respond(t, testRouter, contracts.StakingRouterABI, "getStakingModules", modules)
	for address, moduleType := range moduleTypes {
		chain.respond(t, address, contracts.StakingModuleABI, "getType", moduleTypeBytes(moduleType))
	}
}

func pubkeyBytes(operator, index uint64) []byte {
	bz := make([]byte, 48)
	bz[0] = 0xAB
	binary.BigEndian.PutUint64(bz[40:], operator<<32|index)
	return bz
}

func signatureBytes(operator, index uint64) []byte {
	bz := make([]byte, 96)
	bz[0] = 0xCD
	binary.BigEndian.PutUint64(bz[88:], operator<<32|index)
	return bz
}

func pubkeyHex(operator, index uint64) string {
	return hexutil.Encode(pubkeyBytes(operator, index))
}

// fakeRegistry is an in-memory NodeOperatorsRegistry.
type fakeRegistry struct {
	mu        sync.Mutex
	nonce     uint64
	operators []*contracts.NodeOperator
	keyCalls  map[uint64]int
	offsets   map[uint64][]uint64
	replaced  map[[2]uint64][]byte
	shortPage bool
}

var _ RegistryContract = (*fakeRegistry)(nil)

func newFakeRegistry(nonce uint64, keysPerOperator ...uint64) *fakeRegistry {
	r := &fakeRegistry{
		nonce:    nonce,
		keyCalls: map[uint64]int{},
		offsets:  map[uint64][]uint64{},
		replaced: map[[2]uint64][]byte{},
	}
	for i, count := range keysPerOperator {
		r.operators = append(r.operators, &contracts.NodeOperator{
			Active:                   true,
			Name:                     fmt.Sprintf("operator-%d", i),
			RewardAddress:            common.BigToAddress(big.NewInt(int64(i + 1))),
			TotalVettedValidators:    count,
			TotalAddedValidators:     count,
			TotalDepositedValidators: count / 2,
		})
	}
	return r
}

func (r *fakeRegistry) setKeys(operator, count uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[operator].TotalAddedValidators = count
	r.operators[operator].TotalVettedValidators = count
	r.nonce++
}

// replaceKey swaps the pubkey at index without touching the operator counters, the way removing
// an unused key and adding another one does.
func (r *fakeRegistry) replaceKey(operator, index uint64, pubkey []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced[[2]uint64{operator, index}] = pubkey
	r.nonce++
}

func (r *fakeRegistry) GetNonce(ctx context.Context, tag string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nonce, nil
}

func (r *fakeRegistry) GetNodeOperatorsCount(ctx context.Context, tag string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.operators)), nil
}

func (r *fakeRegistry) GetNodeOperator(ctx context.Context, index uint64, tag string) (*contracts.NodeOperator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= uint64(len(r.operators)) {
		return nil, errors.New("execution reverted: OUT_OF_RANGE")
	}
	op := *r.operators[index]
	return &op, nil
}

func (r *fakeRegistry) GetSigningKeys(ctx context.Context, operator, offset, limit uint64, tag string) (*contracts.SigningKeys, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyCalls[operator]++
	r.offsets[operator] = append(r.offsets[operator], offset)
	op := r.operators[operator]
	if offset+limit > op.TotalAddedValidators {
		return nil, errors.New("execution reverted: OUT_OF_RANGE")
	}
	if r.shortPage && limit > 0 {
		limit--
	}
	page := &contracts.SigningKeys{}
	for i := offset; i < offset+limit; i++ {
		pubkey, ok := r.replaced[[2]uint64{operator, i}]
		if !ok {
			pubkey = pubkeyBytes(operator, i)
		}
		page.Pubkeys = append(page.Pubkeys, pubkey...)
		page.Signatures = append(page.Signatures, signatureBytes(operator, i)...)
		page.Used = append(page.Used, i < op.TotalDepositedValidators)
	}
	return page, nil
}

func (r *fakeRegistry) resetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyCalls = map[uint64]int{}
	r.offsets = map[uint64][]uint64{}
}

func (r *fakeRegistry) calls(operator uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keyCalls[operator]
}

func (r *fakeRegistry) readOffsets(operator uint64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offsets[operator]
}
