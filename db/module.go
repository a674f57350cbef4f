package db

import "github.com/bnb-chain/keys-hub/types"

type StakingModule struct {
	Id                    int64            `gorm:"primaryKey;autoIncrement:false"`
	StakingModuleAddress  string           `gorm:"NOT NULL;uniqueIndex:idx_staking_module_address;size:42"`
	StakingModuleFee      uint16           `gorm:"NOT NULL"`
	TreasuryFee           uint16           `gorm:"NOT NULL"`
	TargetShare           uint16           `gorm:"NOT NULL"`
	Status                uint8            `gorm:"NOT NULL"`
	Name                  string           `gorm:"NOT NULL"`
	Type                  types.ModuleType `gorm:"NOT NULL;size:64"`
	LastDepositAt         uint64
	LastDepositBlock      uint64
	ExitedValidatorsCount uint64
}

func (*StakingModule) TableName() string {
	return "staking_module"
}
