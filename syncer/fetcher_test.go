package syncer

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/external/contracts"
	"github.com/bnb-chain/keys-hub/types"
)

func TestDiscoverModulesDropsUnknownTypes(t *testing.T) {
	chain := newFakeChain(100)
	respondDiscovery(t, chain, []contracts.StakingModule{
		routerModule(1, testModule, "curated-onchain-v1"),
		routerModule(2, testModule2, "simple-dvt-onchain-v1"),
	}, map[string]string{
		testModule:  "curated-onchain-v1",
		testModule2: "community-onchain-v1",
	})
	fetcher := NewFetcher(chain, common.HexToAddress(testLocator), false)

	modules, err := fetcher.DiscoverModules(context.Background(), "finalized")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, int64(1), modules[0].Id)
	assert.Equal(t, testModule, modules[0].StakingModuleAddress)
	assert.Equal(t, types.CuratedOnchainV1Type, modules[0].Type)
	assert.Equal(t, uint16(10000), modules[0].TargetShare)
	assert.Equal(t, uint64(18000000), modules[0].LastDepositBlock)
	assert.Equal(t, uint64(3), modules[0].ExitedValidatorsCount)
}

func TestDiscoverModulesKeepsRecognizedInOrder(t *testing.T) {
	chain := newFakeChain(100)
	respondDiscovery(t, chain, []contracts.StakingModule{
		routerModule(1, testModule, "curated-onchain-v1"),
		routerModule(2, testModule2, "community-staking"),
		routerModule(3, testModule3, "simple-dvt-onchain-v1"),
	}, map[string]string{
		testModule:  "curated-onchain-v1",
		testModule2: "community-onchain-v1",
		testModule3: "curated-onchain-v1",
	})
	fetcher := NewFetcher(chain, common.HexToAddress(testLocator), false)

	modules, err := fetcher.DiscoverModules(context.Background(), "finalized")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, int64(1), modules[0].Id)
	assert.Equal(t, testModule, modules[0].StakingModuleAddress)
	assert.Equal(t, int64(3), modules[1].Id)
	assert.Equal(t, testModule3, modules[1].StakingModuleAddress)
	assert.Equal(t, "simple-dvt-onchain-v1", modules[1].Name)
}

func TestDiscoverModulesDropsRevertingType(t *testing.T) {
	chain := newFakeChain(100)
	respondDiscovery(t, chain, []contracts.StakingModule{
		routerModule(1, testModule, "curated-onchain-v1"),
		routerModule(2, testModule2, "legacy"),
	}, map[string]string{
		testModule: "curated-onchain-v1",
	})
	chain.revert(testModule2, contracts.StakingModuleABI, "getType")
	fetcher := NewFetcher(chain, common.HexToAddress(testLocator), false)

	modules, err := fetcher.DiscoverModules(context.Background(), "finalized")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, testModule, modules[0].StakingModuleAddress)
}

func TestDiscoverModulesByIdShortcut(t *testing.T) {
	chain := newFakeChain(100)
	respondDiscovery(t, chain, []contracts.StakingModule{
		routerModule(1, testModule, "curated-onchain-v1"),
		routerModule(2, testModule2, "simple-dvt-onchain-v1"),
	}, nil)
	fetcher := NewFetcher(chain, common.HexToAddress(testLocator), true)

	modules, err := fetcher.DiscoverModules(context.Background(), "finalized")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, testModule, modules[0].StakingModuleAddress)
}

func TestDiscoverModulesChainError(t *testing.T) {
	chain := newFakeChain(100)
	fetcher := NewFetcher(chain, common.HexToAddress(testLocator), false)

	_, err := fetcher.DiscoverModules(context.Background(), "finalized")
	require.ErrorIs(t, err, external.ErrChainRead)

	respondDiscovery(t, chain, []contracts.StakingModule{routerModule(1, testModule, "curated-onchain-v1")}, nil)
	_, err = fetcher.DiscoverModules(context.Background(), "finalized")
	require.ErrorIs(t, err, external.ErrChainRead)
}
