package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/db/dbtest"
	"github.com/bnb-chain/keys-hub/types"
)

const moduleAddress = "0x595f64ddc3856a3b5ff4f4cc1d1fb4b46cfd2bac"

func testKeys(operator uint64, count int, usedCount int) []*db.RegistryKey {
	keys := make([]*db.RegistryKey, 0, count)
	for i := 0; i < count; i++ {
		keys = append(keys, &db.RegistryKey{
			ModuleAddress:    moduleAddress,
			OperatorIndex:    operator,
			Index:            uint64(i),
			Key:              fmt.Sprintf("0x%096x", operator<<32|uint64(i)),
			DepositSignature: fmt.Sprintf("0x%0192x", i),
			Used:             i < usedCount,
		})
	}
	return keys
}

func testUpdate(nonce, block uint64, keysPerOperator ...int) *db.ModuleUpdate {
	update := &db.ModuleUpdate{
		ModuleAddress: moduleAddress,
		Nonce:         nonce,
		BlockNumber:   block,
		BlockHash:     fmt.Sprintf("0x%064x", block),
		Timestamp:     1700000000 + block*12,
		Keys:          map[uint64][]*db.RegistryKey{},
	}
	for i, count := range keysPerOperator {
		op := uint64(i)
		update.Operators = append(update.Operators, &db.RegistryOperator{
			ModuleAddress:    moduleAddress,
			Index:            op,
			Active:           true,
			Name:             fmt.Sprintf("operator-%d", i),
			RewardAddress:    fmt.Sprintf("0x%040x", i+1),
			StakingLimit:     uint64(count),
			TotalSigningKeys: uint64(count),
			UsedSigningKeys:  uint64(count / 2),
		})
		update.Keys[op] = testKeys(op, count, count/2)
	}
	return update
}

func TestSaveModuleUpdate(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)

	_, err := dao.GetElMeta(ctx)
	require.ErrorIs(t, err, db.ErrDataNotYetAvailable)
	_, err = dao.GetRegistryMeta(ctx, moduleAddress)
	require.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(3, 100, 4, 2)))

	meta, err := dao.GetElMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), meta.BlockNumber)
	assert.Equal(t, fmt.Sprintf("0x%064x", 100), meta.BlockHash)

	regMeta, err := dao.GetRegistryMeta(ctx, moduleAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), regMeta.Nonce)

	reader := dao.Reader(ctx)
	operators, err := reader.FindOperators(moduleAddress, db.OperatorFilter{})
	require.NoError(t, err)
	require.Len(t, operators, 2)
	assert.Equal(t, uint64(0), operators[0].Index)
	assert.Equal(t, uint64(1), operators[1].Index)

	keys, err := reader.FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, keys, 6)

	used := true
	op := uint64(0)
	keys, err = reader.FindKeys(moduleAddress, db.KeyFilter{OperatorIndex: &op, Used: &used}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestSaveModuleUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)

	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(5, 200, 3, 3)))
	before, err := dao.Reader(ctx).FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	opsBefore, err := dao.Reader(ctx).FindOperators(moduleAddress, db.OperatorFilter{})
	require.NoError(t, err)

	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(5, 200, 3, 3)))
	after, err := dao.Reader(ctx).FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	opsAfter, err := dao.Reader(ctx).FindOperators(moduleAddress, db.OperatorFilter{})
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, opsBefore, opsAfter)
}

func TestSaveModuleUpdateReplacesOperatorKeys(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)

	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(1, 10, 5)))
	// operator 0 removed two keys
	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(2, 11, 3)))

	keys, err := dao.Reader(ctx).FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestElMetaNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)

	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(2, 300, 1)))
	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(1, 250, 1)))

	meta, err := dao.GetElMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), meta.BlockNumber)
}

func TestSnapshotDoesNotObserveLaterCommit(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)
	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(1, 100, 2)))

	snapshot, err := dao.BeginSnapshot(ctx)
	require.NoError(t, err)
	defer snapshot.Release()

	require.NoError(t, dao.SaveModuleUpdate(ctx, testUpdate(2, 101, 2, 3)))

	meta, err := snapshot.GetElMeta()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), meta.BlockNumber)
	keys, err := snapshot.FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	operators, err := snapshot.FindOperators(moduleAddress, db.OperatorFilter{})
	require.NoError(t, err)
	assert.Len(t, operators, 1)

	err = dao.ReadSnapshot(ctx, func(s *db.Snapshot) error {
		meta, err := s.GetElMeta()
		require.NoError(t, err)
		assert.Equal(t, uint64(101), meta.BlockNumber)
		keys, err := s.FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, keys, 5)
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshotWithoutMeta(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)

	err := dao.ReadSnapshot(ctx, func(s *db.Snapshot) error {
		_, err := s.GetElMeta()
		return err
	})
	require.ErrorIs(t, err, db.ErrDataNotYetAvailable)
}

func TestFindKeysByPubkeys(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)
	update := testUpdate(1, 100, 3)
	require.NoError(t, dao.SaveModuleUpdate(ctx, update))

	want := update.Keys[0][1].Key
	keys, err := dao.Reader(ctx).FindKeysByPubkeys(moduleAddress, []string{want})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, uint64(1), keys[0].Index)

	keys, err = dao.Reader(ctx).FindKeysByPubkeys("", []string{want, "0xdead"})
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	keys, err = dao.Reader(ctx).FindKeysByPubkeys("0x0000000000000000000000000000000000000001", []string{want})
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSaveStakingModules(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)
	module := &db.StakingModule{
		Id:                   1,
		StakingModuleAddress: moduleAddress,
		StakingModuleFee:     500,
		TreasuryFee:          500,
		TargetShare:          10000,
		Name:                 "curated-onchain-v1",
		Type:                 types.CuratedOnchainV1Type,
		LastDepositBlock:     90,
	}
	require.NoError(t, dao.SaveStakingModules(ctx, []*db.StakingModule{module}))

	refreshed := *module
	refreshed.LastDepositBlock = 120
	refreshed.ExitedValidatorsCount = 7
	require.NoError(t, dao.SaveStakingModules(ctx, []*db.StakingModule{&refreshed}))

	modules, err := dao.Reader(ctx).GetStakingModules()
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, uint64(120), modules[0].LastDepositBlock)
	assert.Equal(t, uint64(7), modules[0].ExitedValidatorsCount)

	_, err = dao.Reader(ctx).GetStakingModule(2)
	require.ErrorIs(t, err, db.ErrNotFound)
	found, err := dao.Reader(ctx).GetStakingModuleByAddress(moduleAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Id)
}

func TestSaveModuleUpdateMovesKeyBetweenOperators(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)
	first := testUpdate(1, 100, 2, 2)
	require.NoError(t, dao.SaveModuleUpdate(ctx, first))

	// operator 1 removes its unused key and operator 0 adds the same pubkey
	moved := *first.Keys[1][1]
	moved.OperatorIndex = 0
	moved.Index = 2
	second := testUpdate(2, 101, 3, 1)
	second.Keys[0] = append(testKeys(0, 2, 1), &moved)
	second.Keys[1] = testKeys(1, 1, 1)
	require.NoError(t, dao.SaveModuleUpdate(ctx, second))

	keys, err := dao.Reader(ctx).FindKeysByPubkeys(moduleAddress, []string{moved.Key})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, uint64(0), keys[0].OperatorIndex)
	assert.Equal(t, uint64(2), keys[0].Index)

	all, err := dao.Reader(ctx).FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	meta, err := dao.GetElMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), meta.BlockNumber)
}

func TestSaveModuleUpdateReplacesKeysFromIndex(t *testing.T) {
	ctx := context.Background()
	dao := dbtest.NewDao(t)
	first := testUpdate(1, 100, 4)
	require.NoError(t, dao.SaveModuleUpdate(ctx, first))

	replaced := *first.Keys[0][2]
	replaced.Key = fmt.Sprintf("0x%096x", 0xee)
	second := testUpdate(2, 101, 4)
	second.KeysFrom = map[uint64]uint64{0: 2}
	second.Keys[0] = []*db.RegistryKey{&replaced, first.Keys[0][3]}
	require.NoError(t, dao.SaveModuleUpdate(ctx, second))

	keys, err := dao.Reader(ctx).FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, keys, 4)
	assert.Equal(t, first.Keys[0][0].Key, keys[0].Key)
	assert.Equal(t, first.Keys[0][1].Key, keys[1].Key)
	assert.Equal(t, replaced.Key, keys[2].Key)
	assert.Equal(t, first.Keys[0][3].Key, keys[3].Key)

	// an empty tail drops every key from the index on
	third := testUpdate(3, 102, 2)
	third.KeysFrom = map[uint64]uint64{0: 2}
	third.Keys[0] = nil
	require.NoError(t, dao.SaveModuleUpdate(ctx, third))
	keys, err = dao.Reader(ctx).FindKeys(moduleAddress, db.KeyFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
