package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/types"
)

var ErrUnknownModuleType = errors.New("unknown staking module type")

// Synchronizer pulls one kind of staking module into storage and reads it back. Read methods take
// the reader explicitly so callers decide whether they run inside a snapshot.
type Synchronizer interface {
	// Update writes the operators and keys of the module as of blockTag in a single transaction.
	Update(ctx context.Context, moduleAddress string, blockTag string) error
	GetCurrentNonce(ctx context.Context, moduleAddress string, blockTag string) (uint64, error)

	GetOperators(reader db.RegistryReader, moduleAddress string, filter db.OperatorFilter) ([]*db.RegistryOperator, error)
	GetOperator(reader db.RegistryReader, moduleAddress string, index uint64) (*db.RegistryOperator, error)
	GetKeys(reader db.RegistryReader, moduleAddress string, filter db.KeyFilter) ([]*db.RegistryKey, error)
	GetKeysStream(reader db.RegistryReader, moduleAddress string, filter db.KeyFilter) *KeyIterator
	GetKeysByPubKeys(reader db.RegistryReader, moduleAddress string, pubkeys []string) ([]*db.RegistryKey, error)
	GetKeysByPubkey(reader db.RegistryReader, moduleAddress string, pubkey string) ([]*db.RegistryKey, error)
}

// Registry maps module types to their synchronizer. The set is fixed at construction.
type Registry struct {
	synchronizers map[types.ModuleType]Synchronizer
}

func NewRegistry(curated Synchronizer) *Registry {
	return &Registry{
		synchronizers: map[types.ModuleType]Synchronizer{
			types.CuratedOnchainV1Type: curated,
		},
	}
}

func (r *Registry) Resolve(moduleType types.ModuleType) (Synchronizer, error) {
	s, ok := r.synchronizers[moduleType]
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModuleType, moduleType)
	}
	return s, nil
}
