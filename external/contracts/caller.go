package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes a read-only contract call at a block tag. external.IClient implements it.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte, tag string) ([]byte, error)
}

func call(ctx context.Context, caller Caller, contract *abi.ABI, to common.Address, tag, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	result, err := caller.CallContract(ctx, to, data, tag)
	if err != nil {
		return nil, err
	}
	values, err := contract.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s from %s: %w", method, to.Hex(), err)
	}
	if len(values) != len(contract.Methods[method].Outputs) {
		return nil, fmt.Errorf("unexpected number of return values of %s: %d", method, len(values))
	}
	return values, nil
}
