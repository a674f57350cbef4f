package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/external/contracts"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/types"
)

// RegistryContract is the read surface of a NodeOperatorsRegistry deployment.
type RegistryContract interface {
	GetNonce(ctx context.Context, tag string) (uint64, error)
	GetNodeOperatorsCount(ctx context.Context, tag string) (uint64, error)
	GetNodeOperator(ctx context.Context, index uint64, tag string) (*contracts.NodeOperator, error)
	GetSigningKeys(ctx context.Context, operator, offset, limit uint64, tag string) (*contracts.SigningKeys, error)
}

// CuratedModule synchronizes curated on-chain v1 modules (NodeOperatorsRegistry).
type CuratedModule struct {
	client        external.IClient
	dao           db.RegistryDao
	keysBatchSize uint64
	contractAt    func(moduleAddress string) RegistryContract
}

var _ Synchronizer = (*CuratedModule)(nil)

func NewCuratedModule(client external.IClient, dao db.RegistryDao, keysBatchSize uint64) *CuratedModule {
	return &CuratedModule{
		client:        client,
		dao:           dao,
		keysBatchSize: keysBatchSize,
		contractAt: func(moduleAddress string) RegistryContract {
			return contracts.NewNodeOperatorsRegistry(client, common.HexToAddress(moduleAddress))
		},
	}
}

func (m *CuratedModule) GetCurrentNonce(ctx context.Context, moduleAddress string, blockTag string) (uint64, error) {
	return m.contractAt(moduleAddress).GetNonce(ctx, blockTag)
}

// Update reads the module at the block selected by blockTag and stores it. Every chain read is
// pinned to the hash of that block. Deposited keys never change, so for an operator whose record
// matches the stored one only keys from its used count on are re-read. Changed operators are
// re-read in full.
func (m *CuratedModule) Update(ctx context.Context, moduleAddress string, blockTag string) error {
	block, err := m.client.GetBlock(ctx, blockTag)
	if err != nil {
		return err
	}
	tag := block.Hash
	contract := m.contractAt(moduleAddress)

	nonce, err := contract.GetNonce(ctx, tag)
	if err != nil {
		return err
	}
	count, err := contract.GetNodeOperatorsCount(ctx, tag)
	if err != nil {
		return err
	}

	storedOperators, err := m.dao.Reader(ctx).FindOperators(moduleAddress, db.OperatorFilter{})
	if err != nil {
		return fmt.Errorf("failed to load stored operators of %s: %w", moduleAddress, err)
	}
	stored := make(map[uint64]*db.RegistryOperator, len(storedOperators))
	for _, op := range storedOperators {
		stored[op.Index] = op
	}

	update := &db.ModuleUpdate{
		ModuleAddress: moduleAddress,
		Nonce:         nonce,
		BlockNumber:   block.Number,
		BlockHash:     block.Hash,
		Timestamp:     block.Timestamp,
		Operators:     make([]*db.RegistryOperator, 0, count),
		Keys:          make(map[uint64][]*db.RegistryKey),
		KeysFrom:      make(map[uint64]uint64),
	}
	changed := 0
	for index := uint64(0); index < count; index++ {
		onchain, err := contract.GetNodeOperator(ctx, index, tag)
		if err != nil {
			return err
		}
		operator := toRegistryOperator(moduleAddress, index, onchain)
		update.Operators = append(update.Operators, operator)

		from := uint64(0)
		if prev := stored[index]; operator.SameAs(prev) {
			if prev.UsedSigningKeys >= prev.TotalSigningKeys {
				continue
			}
			from = prev.UsedSigningKeys
		} else {
			changed++
		}
		keys, err := m.fetchOperatorKeys(ctx, contract, moduleAddress, index, from, onchain.TotalAddedValidators, tag)
		if err != nil {
			return err
		}
		update.Keys[index] = keys
		if from > 0 {
			update.KeysFrom[index] = from
		}
	}

	if err := m.dao.SaveModuleUpdate(ctx, update); err != nil {
		return fmt.Errorf("failed to save update of module %s: %w", moduleAddress, err)
	}
	logging.Logger.Infof("module %s updated to nonce %d at block %d, operators=%d, changed operators=%d, re-read operators=%d",
		moduleAddress, nonce, block.Number, len(update.Operators), changed, len(update.Keys))
	return nil
}

// fetchOperatorKeys reads keys [from, total) of an operator in batches.
func (m *CuratedModule) fetchOperatorKeys(ctx context.Context, contract RegistryContract, moduleAddress string,
	operator, from, total uint64, tag string) ([]*db.RegistryKey, error) {
	batchSize := m.keysBatchSize
	if batchSize == 0 {
		batchSize = 1
	}
	keys := make([]*db.RegistryKey, 0, total-from)
	for offset := from; offset < total; offset += batchSize {
		limit := batchSize
		if total-offset < limit {
			limit = total - offset
		}
		page, err := contract.GetSigningKeys(ctx, operator, offset, limit, tag)
		if err != nil {
			return nil, err
		}
		pubkeys, err := types.SplitConcatenated(page.Pubkeys, types.PubkeyLength)
		if err != nil {
			return nil, fmt.Errorf("operator %d keys at offset %d: %w", operator, offset, err)
		}
		signatures, err := types.SplitConcatenated(page.Signatures, types.SignatureLength)
		if err != nil {
			return nil, fmt.Errorf("operator %d signatures at offset %d: %w", operator, offset, err)
		}
		if uint64(len(pubkeys)) != limit || len(signatures) != len(pubkeys) || len(page.Used) != len(pubkeys) {
			return nil, fmt.Errorf("operator %d returned %d keys, %d signatures and %d flags for limit %d",
				operator, len(pubkeys), len(signatures), len(page.Used), limit)
		}
		for i := range pubkeys {
			keys = append(keys, &db.RegistryKey{
				ModuleAddress:    moduleAddress,
				OperatorIndex:    operator,
				Index:            offset + uint64(i),
				Key:              pubkeys[i],
				DepositSignature: signatures[i],
				Used:             page.Used[i],
			})
		}
	}
	return keys, nil
}

func toRegistryOperator(moduleAddress string, index uint64, op *contracts.NodeOperator) *db.RegistryOperator {
	return &db.RegistryOperator{
		ModuleAddress:     moduleAddress,
		Index:             index,
		Active:            op.Active,
		Name:              op.Name,
		RewardAddress:     strings.ToLower(op.RewardAddress.Hex()),
		StakingLimit:      op.TotalVettedValidators,
		StoppedValidators: op.TotalExitedValidators,
		TotalSigningKeys:  op.TotalAddedValidators,
		UsedSigningKeys:   op.TotalDepositedValidators,
	}
}

func (m *CuratedModule) GetOperators(reader db.RegistryReader, moduleAddress string, filter db.OperatorFilter) ([]*db.RegistryOperator, error) {
	return reader.FindOperators(moduleAddress, filter)
}

func (m *CuratedModule) GetOperator(reader db.RegistryReader, moduleAddress string, index uint64) (*db.RegistryOperator, error) {
	operators, err := reader.FindOperators(moduleAddress, db.OperatorFilter{Index: &index})
	if err != nil {
		return nil, err
	}
	if len(operators) == 0 {
		return nil, db.ErrNotFound
	}
	return operators[0], nil
}

func (m *CuratedModule) GetKeys(reader db.RegistryReader, moduleAddress string, filter db.KeyFilter) ([]*db.RegistryKey, error) {
	return reader.FindKeys(moduleAddress, filter, 0, 0)
}

func (m *CuratedModule) GetKeysStream(reader db.RegistryReader, moduleAddress string, filter db.KeyFilter) *KeyIterator {
	return NewKeyIterator(reader, moduleAddress, filter, StreamBatchSize)
}

func (m *CuratedModule) GetKeysByPubKeys(reader db.RegistryReader, moduleAddress string, pubkeys []string) ([]*db.RegistryKey, error) {
	return reader.FindKeysByPubkeys(moduleAddress, types.NormalizePubkeys(pubkeys))
}

func (m *CuratedModule) GetKeysByPubkey(reader db.RegistryReader, moduleAddress string, pubkey string) ([]*db.RegistryKey, error) {
	return reader.FindKeysByPubkeys(moduleAddress, []string{types.NormalizePubkey(pubkey)})
}
