package contracts

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// StakingModule mirrors the StakingRouter.StakingModule struct.
type StakingModule struct {
	Id                    *big.Int
	StakingModuleAddress  common.Address
	StakingModuleFee      uint16
	TreasuryFee           uint16
	TargetShare           uint16
	Status                uint8
	Name                  string
	LastDepositAt         uint64
	LastDepositBlock      *big.Int
	ExitedValidatorsCount *big.Int
}

// GetStakingRouter reads the staking router address from the locator.
func GetStakingRouter(ctx context.Context, caller Caller, locator common.Address, tag string) (common.Address, error) {
	values, err := call(ctx, caller, &LidoLocatorABI, locator, tag, "stakingRouter")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(values[0], new(common.Address)).(*common.Address), nil
}

func GetStakingModules(ctx context.Context, caller Caller, router common.Address, tag string) ([]StakingModule, error) {
	values, err := call(ctx, caller, &StakingRouterABI, router, tag, "getStakingModules")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(values[0], new([]StakingModule)).(*[]StakingModule), nil
}

// GetModuleType reads IStakingModule.getType(), a right zero padded bytes32 string.
func GetModuleType(ctx context.Context, caller Caller, module common.Address, tag string) (string, error) {
	values, err := call(ctx, caller, &StakingModuleABI, module, tag, "getType")
	if err != nil {
		return "", err
	}
	raw := *abi.ConvertType(values[0], new([32]byte)).(*[32]byte)
	return string(bytes.TrimRight(raw[:], "\x00")), nil
}
