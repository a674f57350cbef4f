package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bnb-chain/keys-hub/config"
	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/entity"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/syncer"
	"github.com/bnb-chain/keys-hub/types"
	"github.com/bnb-chain/keys-hub/util"
)

// RegistrySvc is the service the http handlers read from.
var RegistrySvc Registry

// KeysWriter receives streamed keys. WriteMeta comes first, then every module is wrapped in
// BeginModule and EndModule.
type KeysWriter interface {
	WriteMeta(meta *entity.ElBlockSnapshot) error
	BeginModule(module *entity.Module) error
	WriteKey(key *entity.Key) error
	EndModule() error
}

// Registry serves the stored modules, operators and keys. Every call reads inside one snapshot
// and returns the el block that snapshot is consistent with.
type Registry interface {
	GetStatus(ctx context.Context) (*entity.Status, error)
	GetMeta(ctx context.Context) (*entity.ElBlockSnapshot, error)
	ListModules(ctx context.Context) ([]*entity.Module, *entity.ElBlockSnapshot, error)
	GetModule(ctx context.Context, moduleId string) (*entity.Module, *entity.ElBlockSnapshot, error)
	GetOperators(ctx context.Context, moduleId string) (*entity.ModuleOperators, *entity.ElBlockSnapshot, error)
	GetAllOperators(ctx context.Context) ([]*entity.ModuleOperators, *entity.ElBlockSnapshot, error)
	GetOperator(ctx context.Context, moduleId string, index uint64) (*entity.Operator, *entity.Module, *entity.ElBlockSnapshot, error)
	GetKeys(ctx context.Context, moduleId string, filter db.KeyFilter) (*entity.ModuleKeys, *entity.ElBlockSnapshot, error)
	StreamKeys(ctx context.Context, moduleId string, filter db.KeyFilter, w KeysWriter) error
	StreamAllKeys(ctx context.Context, filter db.KeyFilter, w KeysWriter) error
	GetKeysByPubKeys(ctx context.Context, moduleId string, pubkeys []string) (*entity.ModuleKeys, *entity.ElBlockSnapshot, error)
	GetKeysByPubkey(ctx context.Context, pubkey string) ([]*entity.Key, *entity.ElBlockSnapshot, error)
}

type RegistryService struct {
	dao      db.RegistryDao
	registry *syncer.Registry
	config   *config.Config
}

var _ Registry = (*RegistryService)(nil)

func NewRegistryService(dao db.RegistryDao, registry *syncer.Registry, cfg *config.Config) Registry {
	return &RegistryService{
		dao:      dao,
		registry: registry,
		config:   cfg,
	}
}

// moduleView is a module resolved inside a snapshot together with its synchronizer.
type moduleView struct {
	row          *db.StakingModule
	entity       *entity.Module
	synchronizer syncer.Synchronizer
}

func (s *RegistryService) read(ctx context.Context, fn func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error) error {
	err := s.dao.ReadSnapshot(ctx, func(snap *db.Snapshot) error {
		meta, err := snap.GetElMeta()
		if err != nil {
			return err
		}
		return fn(snap, toElBlockSnapshot(meta))
	})
	return ToErr(err)
}

func (s *RegistryService) GetStatus(ctx context.Context) (*entity.Status, error) {
	status := &entity.Status{
		AppVersion: s.config.ServerConfig.AppVersion,
		ChainId:    s.config.SyncerConfig.ChainId,
	}
	meta, err := s.dao.GetElMeta(ctx)
	if err != nil {
		if errors.Is(err, db.ErrDataNotYetAvailable) {
			return status, nil
		}
		return nil, ToErr(err)
	}
	status.ElBlockSnapshot = toElBlockSnapshot(meta)
	return status, nil
}

func (s *RegistryService) GetMeta(ctx context.Context) (*entity.ElBlockSnapshot, error) {
	var result *entity.ElBlockSnapshot
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		result = meta
		return nil
	})
	return result, err
}

func (s *RegistryService) ListModules(ctx context.Context) ([]*entity.Module, *entity.ElBlockSnapshot, error) {
	var (
		modules []*entity.Module
		result  *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		views, err := s.allModules(snap, meta)
		if err != nil {
			return err
		}
		for _, v := range views {
			modules = append(modules, v.entity)
		}
		result = meta
		return nil
	})
	return modules, result, err
}

func (s *RegistryService) GetModule(ctx context.Context, moduleId string) (*entity.Module, *entity.ElBlockSnapshot, error) {
	var (
		module *entity.Module
		result *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		v, err := s.module(snap, meta, moduleId)
		if err != nil {
			return err
		}
		module, result = v.entity, meta
		return nil
	})
	return module, result, err
}

func (s *RegistryService) GetOperators(ctx context.Context, moduleId string) (*entity.ModuleOperators, *entity.ElBlockSnapshot, error) {
	var (
		operators *entity.ModuleOperators
		result    *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		v, err := s.module(snap, meta, moduleId)
		if err != nil {
			return err
		}
		operators, err = v.operators(snap)
		result = meta
		return err
	})
	return operators, result, err
}

func (s *RegistryService) GetAllOperators(ctx context.Context) ([]*entity.ModuleOperators, *entity.ElBlockSnapshot, error) {
	var (
		operators []*entity.ModuleOperators
		result    *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		views, err := s.allModules(snap, meta)
		if err != nil {
			return err
		}
		for _, v := range views {
			moduleOperators, err := v.operators(snap)
			if err != nil {
				return err
			}
			operators = append(operators, moduleOperators)
		}
		result = meta
		return nil
	})
	return operators, result, err
}

func (s *RegistryService) GetOperator(ctx context.Context, moduleId string, index uint64) (*entity.Operator, *entity.Module, *entity.ElBlockSnapshot, error) {
	var (
		operator *entity.Operator
		module   *entity.Module
		result   *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		v, err := s.module(snap, meta, moduleId)
		if err != nil {
			return err
		}
		row, err := v.synchronizer.GetOperator(snap, v.row.StakingModuleAddress, index)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return NotFoundErr.Enrich(fmt.Sprintf("operator %d of module %s", index, moduleId))
			}
			return err
		}
		operator, module, result = toOperator(row), v.entity, meta
		return nil
	})
	return operator, module, result, err
}

func (s *RegistryService) GetKeys(ctx context.Context, moduleId string, filter db.KeyFilter) (*entity.ModuleKeys, *entity.ElBlockSnapshot, error) {
	var (
		keys   *entity.ModuleKeys
		result *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		v, err := s.module(snap, meta, moduleId)
		if err != nil {
			return err
		}
		rows, err := v.synchronizer.GetKeys(snap, v.row.StakingModuleAddress, filter)
		if err != nil {
			return err
		}
		keys, result = &entity.ModuleKeys{Keys: toKeys(rows), Module: v.entity}, meta
		return nil
	})
	return keys, result, err
}

func (s *RegistryService) StreamKeys(ctx context.Context, moduleId string, filter db.KeyFilter, w KeysWriter) error {
	return s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		v, err := s.module(snap, meta, moduleId)
		if err != nil {
			return err
		}
		if err := w.WriteMeta(meta); err != nil {
			return err
		}
		return v.stream(snap, filter, w)
	})
}

func (s *RegistryService) StreamAllKeys(ctx context.Context, filter db.KeyFilter, w KeysWriter) error {
	return s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		views, err := s.allModules(snap, meta)
		if err != nil {
			return err
		}
		if err := w.WriteMeta(meta); err != nil {
			return err
		}
		for _, v := range views {
			if err := v.stream(snap, filter, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *RegistryService) GetKeysByPubKeys(ctx context.Context, moduleId string, pubkeys []string) (*entity.ModuleKeys, *entity.ElBlockSnapshot, error) {
	for _, pubkey := range pubkeys {
		if err := types.ValidatePubkey(pubkey); err != nil {
			return nil, nil, BadRequestWithError(err)
		}
	}
	var (
		keys   *entity.ModuleKeys
		result *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		v, err := s.module(snap, meta, moduleId)
		if err != nil {
			return err
		}
		rows, err := v.synchronizer.GetKeysByPubKeys(snap, v.row.StakingModuleAddress, pubkeys)
		if err != nil {
			return err
		}
		keys, result = &entity.ModuleKeys{Keys: toKeys(rows), Module: v.entity}, meta
		return nil
	})
	return keys, result, err
}

// GetKeysByPubkey looks a pubkey up in every module.
func (s *RegistryService) GetKeysByPubkey(ctx context.Context, pubkey string) ([]*entity.Key, *entity.ElBlockSnapshot, error) {
	if err := types.ValidatePubkey(pubkey); err != nil {
		return nil, nil, BadRequestWithError(err)
	}
	var (
		keys   = make([]*entity.Key, 0)
		result *entity.ElBlockSnapshot
	)
	err := s.read(ctx, func(snap *db.Snapshot, meta *entity.ElBlockSnapshot) error {
		views, err := s.allModules(snap, meta)
		if err != nil {
			return err
		}
		for _, v := range views {
			rows, err := v.synchronizer.GetKeysByPubkey(snap, v.row.StakingModuleAddress, pubkey)
			if err != nil {
				return err
			}
			keys = append(keys, toKeys(rows)...)
		}
		result = meta
		return nil
	})
	return keys, result, err
}

// module resolves moduleId, a numeric id or a module address, inside the snapshot.
func (s *RegistryService) module(snap *db.Snapshot, meta *entity.ElBlockSnapshot, moduleId string) (*moduleView, error) {
	var (
		row *db.StakingModule
		err error
	)
	moduleId = strings.TrimSpace(moduleId)
	if common.IsHexAddress(moduleId) {
		row, err = snap.GetStakingModuleByAddress(types.NormalizeHex(moduleId))
	} else {
		id, parseErr := util.StringToInt64(moduleId)
		if parseErr != nil {
			return nil, BadRequestErr.Enrich(fmt.Sprintf("invalid module id %q", moduleId))
		}
		row, err = snap.GetStakingModule(id)
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, NotFoundErr.Enrich(fmt.Sprintf("module %s", moduleId))
		}
		return nil, err
	}
	return s.view(snap, meta, row)
}

func (s *RegistryService) allModules(snap *db.Snapshot, meta *entity.ElBlockSnapshot) ([]*moduleView, error) {
	rows, err := snap.GetStakingModules()
	if err != nil {
		return nil, err
	}
	views := make([]*moduleView, 0, len(rows))
	for _, row := range rows {
		v, err := s.view(snap, meta, row)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *RegistryService) view(snap *db.Snapshot, meta *entity.ElBlockSnapshot, row *db.StakingModule) (*moduleView, error) {
	synchronizer, err := s.registry.Resolve(row.Type)
	if err != nil {
		return nil, err
	}
	marker, err := snap.GetRegistryMeta(row.StakingModuleAddress)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if marker != nil && marker.BlockNumber > meta.BlockNumber {
		logging.Logger.Criticalf("module %s is stored at block %d, after el meta block %d",
			row.StakingModuleAddress, marker.BlockNumber, meta.BlockNumber)
		return nil, ErrConsistencyViolation
	}
	return &moduleView{
		row:          row,
		entity:       toModule(row, marker),
		synchronizer: synchronizer,
	}, nil
}

func (v *moduleView) operators(snap *db.Snapshot) (*entity.ModuleOperators, error) {
	rows, err := v.synchronizer.GetOperators(snap, v.row.StakingModuleAddress, db.OperatorFilter{})
	if err != nil {
		return nil, err
	}
	operators := make([]*entity.Operator, 0, len(rows))
	for _, row := range rows {
		operators = append(operators, toOperator(row))
	}
	return &entity.ModuleOperators{Operators: operators, Module: v.entity}, nil
}

func (v *moduleView) stream(snap *db.Snapshot, filter db.KeyFilter, w KeysWriter) error {
	if err := w.BeginModule(v.entity); err != nil {
		return err
	}
	it := v.synchronizer.GetKeysStream(snap, v.row.StakingModuleAddress, filter)
	defer it.Close()
	for it.Next() {
		if err := w.WriteKey(toKey(it.Key())); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	return w.EndModule()
}

func toElBlockSnapshot(meta *db.ElMeta) *entity.ElBlockSnapshot {
	return &entity.ElBlockSnapshot{
		BlockNumber: meta.BlockNumber,
		BlockHash:   meta.BlockHash,
		Timestamp:   meta.Timestamp,
	}
}

func toModule(row *db.StakingModule, marker *db.RegistryMeta) *entity.Module {
	module := &entity.Module{
		Id:                    row.Id,
		StakingModuleAddress:  row.StakingModuleAddress,
		StakingModuleFee:      row.StakingModuleFee,
		TreasuryFee:           row.TreasuryFee,
		TargetShare:           row.TargetShare,
		Status:                row.Status,
		Name:                  row.Name,
		Type:                  row.Type.String(),
		LastDepositAt:         row.LastDepositAt,
		LastDepositBlock:      row.LastDepositBlock,
		ExitedValidatorsCount: row.ExitedValidatorsCount,
	}
	if marker != nil {
		module.Nonce = marker.Nonce
		module.LastChangedBlockHash = marker.BlockHash
	}
	return module
}

func toOperator(row *db.RegistryOperator) *entity.Operator {
	return &entity.Operator{
		Index:             row.Index,
		Active:            row.Active,
		Name:              row.Name,
		RewardAddress:     row.RewardAddress,
		StakingLimit:      row.StakingLimit,
		StoppedValidators: row.StoppedValidators,
		TotalSigningKeys:  row.TotalSigningKeys,
		UsedSigningKeys:   row.UsedSigningKeys,
		ModuleAddress:     row.ModuleAddress,
	}
}

func toKey(row *db.RegistryKey) *entity.Key {
	return &entity.Key{
		Index:            row.Index,
		OperatorIndex:    row.OperatorIndex,
		Key:              row.Key,
		DepositSignature: row.DepositSignature,
		Used:             row.Used,
		ModuleAddress:    row.ModuleAddress,
	}
}

func toKeys(rows []*db.RegistryKey) []*entity.Key {
	keys := make([]*entity.Key, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, toKey(row))
	}
	return keys
}
