package db

import (
	"errors"

	"gorm.io/gorm"
)

// RegistryReader is the read side of the registry tables. Implementations either read the latest
// committed state or a pinned snapshot of it.
type RegistryReader interface {
	GetElMeta() (*ElMeta, error)
	GetRegistryMeta(moduleAddress string) (*RegistryMeta, error)
	GetStakingModules() ([]*StakingModule, error)
	GetStakingModule(id int64) (*StakingModule, error)
	GetStakingModuleByAddress(address string) (*StakingModule, error)
	FindOperators(moduleAddress string, filter OperatorFilter) ([]*RegistryOperator, error)
	FindKeys(moduleAddress string, filter KeyFilter, limit, offset int) ([]*RegistryKey, error)
	// FindKeysByPubkeys matches normalized pubkeys exactly. An empty moduleAddress searches all modules.
	FindKeysByPubkeys(moduleAddress string, pubkeys []string) ([]*RegistryKey, error)
}

type registryReader struct {
	db *gorm.DB
}

func (r *registryReader) GetElMeta() (*ElMeta, error) {
	meta := ElMeta{}
	err := r.db.Model(ElMeta{}).Where("id = ?", elMetaRowId).Take(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDataNotYetAvailable
		}
		return nil, err
	}
	return &meta, nil
}

func (r *registryReader) GetRegistryMeta(moduleAddress string) (*RegistryMeta, error) {
	meta := RegistryMeta{}
	err := r.db.Model(RegistryMeta{}).Where("module_address = ?", moduleAddress).Take(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &meta, nil
}

func (r *registryReader) GetStakingModules() ([]*StakingModule, error) {
	modules := make([]*StakingModule, 0)
	if err := r.db.Order("id asc").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *registryReader) GetStakingModule(id int64) (*StakingModule, error) {
	module := StakingModule{}
	err := r.db.Model(StakingModule{}).Where("id = ?", id).Take(&module).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *registryReader) GetStakingModuleByAddress(address string) (*StakingModule, error) {
	module := StakingModule{}
	err := r.db.Model(StakingModule{}).Where("staking_module_address = ?", address).Take(&module).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *registryReader) FindOperators(moduleAddress string, filter OperatorFilter) ([]*RegistryOperator, error) {
	where := map[string]interface{}{"module_address": moduleAddress}
	if filter.Index != nil {
		where["operator_index"] = *filter.Index
	}
	operators := make([]*RegistryOperator, 0)
	if err := r.db.Where(where).Order("operator_index asc").Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

// FindKeys returns keys ordered by operator and key index. A limit <= 0 returns every match.
func (r *registryReader) FindKeys(moduleAddress string, filter KeyFilter, limit, offset int) ([]*RegistryKey, error) {
	where := map[string]interface{}{"module_address": moduleAddress}
	if filter.OperatorIndex != nil {
		where["operator_index"] = *filter.OperatorIndex
	}
	if filter.Used != nil {
		where["used"] = *filter.Used
	}
	query := r.db.Where(where).Order("operator_index asc, key_index asc")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	keys := make([]*RegistryKey, 0)
	if err := query.Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *registryReader) FindKeysByPubkeys(moduleAddress string, pubkeys []string) ([]*RegistryKey, error) {
	keys := make([]*RegistryKey, 0)
	if len(pubkeys) == 0 {
		return keys, nil
	}
	where := map[string]interface{}{"key": pubkeys}
	if moduleAddress != "" {
		where["module_address"] = moduleAddress
	}
	if err := r.db.Where(where).Order("module_address asc, operator_index asc, key_index asc").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
