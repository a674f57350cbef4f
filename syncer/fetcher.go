package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/external/contracts"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/types"
)

// curatedModuleId is the id the curated module has on every known deployment. It is only used
// when module types are derived from ids instead of read from the module contracts.
const curatedModuleId = 1

// Fetcher discovers the staking modules registered in the staking router.
type Fetcher struct {
	client         external.IClient
	locator        common.Address
	moduleTypeById bool
}

func NewFetcher(client external.IClient, locator common.Address, moduleTypeById bool) *Fetcher {
	return &Fetcher{
		client:         client,
		locator:        locator,
		moduleTypeById: moduleTypeById,
	}
}

// DiscoverModules lists the modules at blockTag with their types resolved. Modules of unknown type,
// including those whose getType() reverts, are logged and left out. Provider failures abort the
// pass. Nothing is written to storage.
func (f *Fetcher) DiscoverModules(ctx context.Context, blockTag string) ([]*db.StakingModule, error) {
	router, err := contracts.GetStakingRouter(ctx, f.client, f.locator, blockTag)
	if err != nil {
		return nil, fmt.Errorf("failed to read staking router from locator %s: %w", f.locator.Hex(), err)
	}
	onchain, err := contracts.GetStakingModules(ctx, f.client, router, blockTag)
	if err != nil {
		return nil, fmt.Errorf("failed to read staking modules from router %s: %w", router.Hex(), err)
	}

	modules := make([]*db.StakingModule, 0, len(onchain))
	for _, m := range onchain {
		moduleType, err := f.resolveType(ctx, &m, blockTag)
		if err != nil {
			return nil, err
		}
		if !moduleType.Known() {
			logging.Logger.Errorf("staking module %d at %s has unknown type, skipped", m.Id.Int64(), m.StakingModuleAddress.Hex())
			continue
		}
		modules = append(modules, &db.StakingModule{
			Id:                    m.Id.Int64(),
			StakingModuleAddress:  strings.ToLower(m.StakingModuleAddress.Hex()),
			StakingModuleFee:      m.StakingModuleFee,
			TreasuryFee:           m.TreasuryFee,
			TargetShare:           m.TargetShare,
			Status:                m.Status,
			Name:                  m.Name,
			Type:                  moduleType,
			LastDepositAt:         m.LastDepositAt,
			LastDepositBlock:      m.LastDepositBlock.Uint64(),
			ExitedValidatorsCount: m.ExitedValidatorsCount.Uint64(),
		})
	}
	return modules, nil
}

func (f *Fetcher) resolveType(ctx context.Context, m *contracts.StakingModule, blockTag string) (types.ModuleType, error) {
	if f.moduleTypeById {
		if m.Id.Int64() == curatedModuleId {
			return types.CuratedOnchainV1Type, nil
		}
		return types.UnknownModuleType, nil
	}
	raw, err := contracts.GetModuleType(ctx, f.client, m.StakingModuleAddress, blockTag)
	if errors.Is(err, external.ErrExecutionReverted) {
		logging.Logger.Errorf("getType() of staking module %s reverted, err=%s", m.StakingModuleAddress.Hex(), err.Error())
		return types.UnknownModuleType, nil
	}
	if err != nil {
		return types.UnknownModuleType, fmt.Errorf("failed to read type of staking module %s: %w", m.StakingModuleAddress.Hex(), err)
	}
	return types.ParseModuleType(raw), nil
}
