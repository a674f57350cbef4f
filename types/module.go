package types

// ModuleType tags the implementation a staking module contract requires.
type ModuleType string

const (
	UnknownModuleType    ModuleType = "unknown"
	CuratedOnchainV1Type ModuleType = "curated-onchain-v1"
)

var knownModuleTypes = map[ModuleType]struct{}{
	CuratedOnchainV1Type: {},
}

// ParseModuleType maps the string returned by IStakingModule.getType() to a tag.
// Anything not registered becomes UnknownModuleType.
func ParseModuleType(s string) ModuleType {
	t := ModuleType(s)
	if _, ok := knownModuleTypes[t]; ok {
		return t
	}
	return UnknownModuleType
}

func (t ModuleType) Known() bool {
	_, ok := knownModuleTypes[t]
	return ok
}

func (t ModuleType) String() string {
	return string(t)
}
