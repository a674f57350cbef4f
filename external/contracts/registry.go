package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// NodeOperator is the full info returned by NodeOperatorsRegistry.getNodeOperator.
type NodeOperator struct {
	Active                   bool
	Name                     string
	RewardAddress            common.Address
	TotalVettedValidators    uint64
	TotalExitedValidators    uint64
	TotalAddedValidators     uint64
	TotalDepositedValidators uint64
}

// SigningKeys is one page of getSigningKeys: concatenated pubkeys and signatures plus used flags.
type SigningKeys struct {
	Pubkeys    []byte
	Signatures []byte
	Used       []bool
}

// NodeOperatorsRegistry reads a curated staking module.
type NodeOperatorsRegistry struct {
	caller  Caller
	address common.Address
}

func NewNodeOperatorsRegistry(caller Caller, address common.Address) *NodeOperatorsRegistry {
	return &NodeOperatorsRegistry{
		caller:  caller,
		address: address,
	}
}

func (r *NodeOperatorsRegistry) GetNonce(ctx context.Context, tag string) (uint64, error) {
	return r.callUint64(ctx, tag, "getNonce")
}

func (r *NodeOperatorsRegistry) GetNodeOperatorsCount(ctx context.Context, tag string) (uint64, error) {
	return r.callUint64(ctx, tag, "getNodeOperatorsCount")
}

func (r *NodeOperatorsRegistry) GetNodeOperator(ctx context.Context, index uint64, tag string) (*NodeOperator, error) {
	values, err := call(ctx, r.caller, &NodeOperatorsRegistryABI, r.address, tag, "getNodeOperator",
		new(big.Int).SetUint64(index), true)
	if err != nil {
		return nil, err
	}
	return &NodeOperator{
		Active:                   *abi.ConvertType(values[0], new(bool)).(*bool),
		Name:                     *abi.ConvertType(values[1], new(string)).(*string),
		RewardAddress:            *abi.ConvertType(values[2], new(common.Address)).(*common.Address),
		TotalVettedValidators:    *abi.ConvertType(values[3], new(uint64)).(*uint64),
		TotalExitedValidators:    *abi.ConvertType(values[4], new(uint64)).(*uint64),
		TotalAddedValidators:     *abi.ConvertType(values[5], new(uint64)).(*uint64),
		TotalDepositedValidators: *abi.ConvertType(values[6], new(uint64)).(*uint64),
	}, nil
}

func (r *NodeOperatorsRegistry) GetSigningKeys(ctx context.Context, operator, offset, limit uint64, tag string) (*SigningKeys, error) {
	values, err := call(ctx, r.caller, &NodeOperatorsRegistryABI, r.address, tag, "getSigningKeys",
		new(big.Int).SetUint64(operator), new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit))
	if err != nil {
		return nil, err
	}
	return &SigningKeys{
		Pubkeys:    *abi.ConvertType(values[0], new([]byte)).(*[]byte),
		Signatures: *abi.ConvertType(values[1], new([]byte)).(*[]byte),
		Used:       *abi.ConvertType(values[2], new([]bool)).(*[]bool),
	}, nil
}

func (r *NodeOperatorsRegistry) callUint64(ctx context.Context, tag, method string) (uint64, error) {
	values, err := call(ctx, r.caller, &NodeOperatorsRegistryABI, r.address, tag, method)
	if err != nil {
		return 0, err
	}
	value := *abi.ConvertType(values[0], new(*big.Int)).(**big.Int)
	if !value.IsUint64() {
		return 0, fmt.Errorf("%s of %s overflows uint64: %s", method, r.address.Hex(), value)
	}
	return value.Uint64(), nil
}
