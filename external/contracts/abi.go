package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const lidoLocatorABI = `[
	{
		"inputs": [],
		"name": "stakingRouter",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const stakingRouterABI = `[
	{
		"inputs": [],
		"name": "getStakingModules",
		"outputs": [
			{
				"components": [
					{"internalType": "uint24", "name": "id", "type": "uint24"},
					{"internalType": "address", "name": "stakingModuleAddress", "type": "address"},
					{"internalType": "uint16", "name": "stakingModuleFee", "type": "uint16"},
					{"internalType": "uint16", "name": "treasuryFee", "type": "uint16"},
					{"internalType": "uint16", "name": "targetShare", "type": "uint16"},
					{"internalType": "uint8", "name": "status", "type": "uint8"},
					{"internalType": "string", "name": "name", "type": "string"},
					{"internalType": "uint64", "name": "lastDepositAt", "type": "uint64"},
					{"internalType": "uint256", "name": "lastDepositBlock", "type": "uint256"},
					{"internalType": "uint256", "name": "exitedValidatorsCount", "type": "uint256"}
				],
				"internalType": "struct StakingRouter.StakingModule[]",
				"name": "res",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

const stakingModuleABI = `[
	{
		"inputs": [],
		"name": "getType",
		"outputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const nodeOperatorsRegistryABI = `[
	{
		"inputs": [],
		"name": "getNonce",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getNodeOperatorsCount",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_nodeOperatorId", "type": "uint256"},
			{"internalType": "bool", "name": "_fullInfo", "type": "bool"}
		],
		"name": "getNodeOperator",
		"outputs": [
			{"internalType": "bool", "name": "active", "type": "bool"},
			{"internalType": "string", "name": "name", "type": "string"},
			{"internalType": "address", "name": "rewardAddress", "type": "address"},
			{"internalType": "uint64", "name": "totalVettedValidators", "type": "uint64"},
			{"internalType": "uint64", "name": "totalExitedValidators", "type": "uint64"},
			{"internalType": "uint64", "name": "totalAddedValidators", "type": "uint64"},
			{"internalType": "uint64", "name": "totalDepositedValidators", "type": "uint64"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_nodeOperatorId", "type": "uint256"},
			{"internalType": "uint256", "name": "_offset", "type": "uint256"},
			{"internalType": "uint256", "name": "_limit", "type": "uint256"}
		],
		"name": "getSigningKeys",
		"outputs": [
			{"internalType": "bytes", "name": "pubkeys", "type": "bytes"},
			{"internalType": "bytes", "name": "signatures", "type": "bytes"},
			{"internalType": "bool[]", "name": "used", "type": "bool[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	LidoLocatorABI           = mustParseABI(lidoLocatorABI)
	StakingRouterABI         = mustParseABI(stakingRouterABI)
	StakingModuleABI         = mustParseABI(stakingModuleABI)
	NodeOperatorsRegistryABI = mustParseABI(nodeOperatorsRegistryABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
