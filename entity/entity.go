package entity

// ElBlockSnapshot is the execution layer block the returned data is consistent with.
type ElBlockSnapshot struct {
	BlockNumber uint64 `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	Timestamp   uint64 `json:"timestamp"`
}

type Meta struct {
	ElBlockSnapshot *ElBlockSnapshot `json:"elBlockSnapshot"`
}

type Module struct {
	Id                    int64  `json:"id"`
	StakingModuleAddress  string `json:"stakingModuleAddress"`
	StakingModuleFee      uint16 `json:"moduleFee"`
	TreasuryFee           uint16 `json:"treasuryFee"`
	TargetShare           uint16 `json:"targetShare"`
	Status                uint8  `json:"status"`
	Name                  string `json:"name"`
	Type                  string `json:"type"`
	LastDepositAt         uint64 `json:"lastDepositAt"`
	LastDepositBlock      uint64 `json:"lastDepositBlock"`
	ExitedValidatorsCount uint64 `json:"exitedValidatorsCount"`
	Nonce                 uint64 `json:"nonce"`
	LastChangedBlockHash  string `json:"lastChangedBlockHash"`
}

type Operator struct {
	Index             uint64 `json:"index"`
	Active            bool   `json:"active"`
	Name              string `json:"name"`
	RewardAddress     string `json:"rewardAddress"`
	StakingLimit      uint64 `json:"stakingLimit"`
	StoppedValidators uint64 `json:"stoppedValidators"`
	TotalSigningKeys  uint64 `json:"totalSigningKeys"`
	UsedSigningKeys   uint64 `json:"usedSigningKeys"`
	ModuleAddress     string `json:"moduleAddress"`
}

type Key struct {
	Index            uint64 `json:"index"`
	OperatorIndex    uint64 `json:"operatorIndex"`
	Key              string `json:"key"`
	DepositSignature string `json:"depositSignature"`
	Used             bool   `json:"used"`
	ModuleAddress    string `json:"moduleAddress"`
}

type ModuleOperators struct {
	Operators []*Operator `json:"operators"`
	Module    *Module     `json:"module"`
}

type ModuleKeys struct {
	Keys   []*Key  `json:"keys"`
	Module *Module `json:"module"`
}

type Status struct {
	AppVersion      string           `json:"appVersion"`
	ChainId         uint64           `json:"chainId"`
	ElBlockSnapshot *ElBlockSnapshot `json:"elBlockSnapshot,omitempty"`
}
