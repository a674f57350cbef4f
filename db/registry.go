package db

// RegistryOperator is a node operator of a curated staking module. Rows are upserted by the
// module's synchronizer and never deleted.
type RegistryOperator struct {
	ModuleAddress     string `gorm:"primaryKey;size:42"`
	Index             uint64 `gorm:"primaryKey;autoIncrement:false;column:operator_index"`
	Active            bool   `gorm:"NOT NULL"`
	Name              string `gorm:"NOT NULL"`
	RewardAddress     string `gorm:"NOT NULL;size:42"`
	StakingLimit      uint64 `gorm:"NOT NULL"` // totalVettedValidators
	StoppedValidators uint64 `gorm:"NOT NULL"` // totalExitedValidators
	TotalSigningKeys  uint64 `gorm:"NOT NULL"` // totalAddedValidators
	UsedSigningKeys   uint64 `gorm:"NOT NULL"` // totalDepositedValidators
}

func (*RegistryOperator) TableName() string {
	return "registry_operator"
}

// SameAs reports whether two snapshots of an operator carry the same on-chain state.
func (o *RegistryOperator) SameAs(other *RegistryOperator) bool {
	if o == nil || other == nil {
		return o == other
	}
	return *o == *other
}

// RegistryKey is a validator signing key. Key and DepositSignature are lower-case 0x hex.
type RegistryKey struct {
	ModuleAddress    string `gorm:"primaryKey;size:42;uniqueIndex:idx_key_module_key,priority:1"`
	OperatorIndex    uint64 `gorm:"primaryKey;autoIncrement:false"`
	Index            uint64 `gorm:"primaryKey;autoIncrement:false;column:key_index"`
	Key              string `gorm:"NOT NULL;size:98;uniqueIndex:idx_key_module_key,priority:2"`
	DepositSignature string `gorm:"NOT NULL;size:194"`
	Used             bool   `gorm:"NOT NULL;index:idx_key_used"`
}

func (*RegistryKey) TableName() string {
	return "registry_key"
}

// RegistryMeta is the nonce marker of a module: the on-chain nonce its stored rows correspond to.
type RegistryMeta struct {
	ModuleAddress string `gorm:"primaryKey;size:42"`
	Nonce         uint64 `gorm:"NOT NULL"`
	BlockNumber   uint64 `gorm:"NOT NULL"`
	BlockHash     string `gorm:"NOT NULL;size:66"`
	Timestamp     uint64 `gorm:"NOT NULL"`
}

func (*RegistryMeta) TableName() string {
	return "registry_meta"
}

const elMetaRowId = 1

// ElMeta is the execution layer block as of which the stored operator and key rows are known
// to be correct. There is a single row; it is replaced by every committed module update.
type ElMeta struct {
	Id          int64  `gorm:"primaryKey;autoIncrement:false"`
	BlockNumber uint64 `gorm:"NOT NULL"`
	BlockHash   string `gorm:"NOT NULL;size:66"`
	Timestamp   uint64 `gorm:"NOT NULL"`
}

func (*ElMeta) TableName() string {
	return "el_meta"
}

type KeyFilter struct {
	OperatorIndex *uint64
	Used          *bool
}

type OperatorFilter struct {
	Index *uint64
}
