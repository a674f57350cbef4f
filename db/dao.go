package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

type RegistryDao interface {
	ModuleDB
	MetaDB
	SaveModuleUpdate(ctx context.Context, update *ModuleUpdate) error
	// Reader returns a reader over committed state that is not bound to any snapshot.
	Reader(ctx context.Context) RegistryReader
	BeginSnapshot(ctx context.Context) (*Snapshot, error)
	ReadSnapshot(ctx context.Context, fn func(s *Snapshot) error) error
}

type RegistrySvcDB struct {
	db *gorm.DB
}

var _ RegistryDao = (*RegistrySvcDB)(nil)

func NewRegistrySvcDB(db *gorm.DB) *RegistrySvcDB {
	return &RegistrySvcDB{
		db,
	}
}

func (d *RegistrySvcDB) Reader(ctx context.Context) RegistryReader {
	return &registryReader{db: d.db.WithContext(ctx)}
}

type ModuleDB interface {
	SaveStakingModules(ctx context.Context, modules []*StakingModule) error
}

// SaveStakingModules refreshes the module rows found by a discovery pass. Modules missing from
// the pass are left untouched.
func (d *RegistrySvcDB) SaveStakingModules(ctx context.Context, modules []*StakingModule) error {
	if len(modules) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		return dbTx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(modules).Error
	})
}

type MetaDB interface {
	GetRegistryMeta(ctx context.Context, moduleAddress string) (*RegistryMeta, error)
	GetElMeta(ctx context.Context) (*ElMeta, error)
}

// GetRegistryMeta returns the nonce marker of a module, or ErrNotFound if the module has
// never been synchronized.
func (d *RegistrySvcDB) GetRegistryMeta(ctx context.Context, moduleAddress string) (*RegistryMeta, error) {
	return d.Reader(ctx).GetRegistryMeta(moduleAddress)
}

func (d *RegistrySvcDB) GetElMeta(ctx context.Context) (*ElMeta, error) {
	return d.Reader(ctx).GetElMeta()
}

// ModuleUpdate is everything a single sync of one module writes.
type ModuleUpdate struct {
	ModuleAddress string
	Nonce         uint64
	BlockNumber   uint64
	BlockHash     string
	Timestamp     uint64
	Operators     []*RegistryOperator
	// Keys replaces the keys of each listed operator with index >= KeysFrom[operator]. Operators
	// missing from KeysFrom have their whole key set replaced.
	Keys     map[uint64][]*RegistryKey
	KeysFrom map[uint64]uint64
}

// SaveModuleUpdate applies a module update in one transaction. Operators and keys go first, the
// nonce marker next and el meta last, so a reader that observes the new meta also observes every
// row written here.
func (d *RegistrySvcDB) SaveModuleUpdate(ctx context.Context, update *ModuleUpdate) error {
	return d.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		if len(update.Operators) != 0 {
			err := dbTx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "module_address"}, {Name: "operator_index"}},
				UpdateAll: true,
			}).CreateInBatches(update.Operators, insertBatchSize).Error
			if err != nil {
				return fmt.Errorf("failed to upsert operators: %w", err)
			}
		}

		operatorIndices := make([]uint64, 0, len(update.Keys))
		for opIndex := range update.Keys {
			operatorIndices = append(operatorIndices, opIndex)
		}
		sort.Slice(operatorIndices, func(i, j int) bool { return operatorIndices[i] < operatorIndices[j] })

		// every delete runs before any insert, a key may move between operators
		for _, opIndex := range operatorIndices {
			err := dbTx.Where("module_address = ? AND operator_index = ? AND key_index >= ?",
				update.ModuleAddress, opIndex, update.KeysFrom[opIndex]).
				Delete(&RegistryKey{}).Error
			if err != nil {
				return fmt.Errorf("failed to clear keys of operator %d: %w", opIndex, err)
			}
		}
		for _, opIndex := range operatorIndices {
			keys := update.Keys[opIndex]
			if len(keys) == 0 {
				continue
			}
			err := dbTx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "module_address"}, {Name: "operator_index"}, {Name: "key_index"}},
				UpdateAll: true,
			}).CreateInBatches(keys, insertBatchSize).Error
			if err != nil {
				if IsDuplicateEntry(err) {
					return fmt.Errorf("duplicate key in operator %d: %w", opIndex, err)
				}
				return fmt.Errorf("failed to insert keys of operator %d: %w", opIndex, err)
			}
		}

		err := dbTx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "module_address"}},
			UpdateAll: true,
		}).Create(&RegistryMeta{
			ModuleAddress: update.ModuleAddress,
			Nonce:         update.Nonce,
			BlockNumber:   update.BlockNumber,
			BlockHash:     update.BlockHash,
			Timestamp:     update.Timestamp,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to save registry meta: %w", err)
		}

		return saveElMeta(dbTx, &ElMeta{
			Id:          elMetaRowId,
			BlockNumber: update.BlockNumber,
			BlockHash:   update.BlockHash,
			Timestamp:   update.Timestamp,
		})
	})
}

// saveElMeta replaces the meta row unless it already points at a later block.
func saveElMeta(dbTx *gorm.DB, meta *ElMeta) error {
	current := ElMeta{}
	err := dbTx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", elMetaRowId).Take(&current).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read el meta: %w", err)
	}
	if err == nil && current.BlockNumber > meta.BlockNumber {
		return nil
	}
	err = dbTx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(meta).Error
	if err != nil {
		return fmt.Errorf("failed to save el meta: %w", err)
	}
	return nil
}

func AutoMigrateDB(db *gorm.DB) {
	var err error
	if err = db.AutoMigrate(&StakingModule{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&RegistryOperator{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&RegistryKey{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&RegistryMeta{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&ElMeta{}); err != nil {
		panic(err)
	}
}
