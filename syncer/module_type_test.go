package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/keys-hub/types"
)

func TestRegistryResolve(t *testing.T) {
	curated := NewCuratedModule(newFakeChain(1), nil, 1100)
	registry := NewRegistry(curated)

	s, err := registry.Resolve(types.CuratedOnchainV1Type)
	require.NoError(t, err)
	assert.Same(t, curated, s)

	_, err = registry.Resolve(types.UnknownModuleType)
	require.ErrorIs(t, err, ErrUnknownModuleType)

	_, err = registry.Resolve(types.ModuleType("community-onchain-v1"))
	require.ErrorIs(t, err, ErrUnknownModuleType)
}
