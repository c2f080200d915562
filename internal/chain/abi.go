package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	eventOpinionCreated  = "OpinionCreated"
	eventAnswerPurchased = "AnswerPurchased"
	eventPositionSold    = "PositionSold"
	eventPoolCreated     = "PoolCreated"
	eventPoolContributed = "PoolContributed"
	eventPoolExecuted    = "PoolExecuted"
)

// opinionCoreABIJSON covers the read surface of the opinion contract.
const opinionCoreABIJSON = `[
	{
		"inputs": [],
		"name": "nextOpinionId",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "opinionId", "type": "uint256"}],
		"name": "getOpinionDetails",
		"outputs": [
			{"name": "creator", "type": "address"},
			{"name": "currentAnswerOwner", "type": "address"},
			{"name": "question", "type": "string"},
			{"name": "currentAnswer", "type": "string"},
			{"name": "currentAnswerDescription", "type": "string"},
			{"name": "link", "type": "string"},
			{"name": "nextPrice", "type": "uint256"},
			{"name": "lastPrice", "type": "uint256"},
			{"name": "totalVolume", "type": "uint256"},
			{"name": "salePrice", "type": "uint256"},
			{"name": "isActive", "type": "bool"},
			{"name": "categories", "type": "string[]"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "opinionId", "type": "uint256"}],
		"name": "getAnswerHistory",
		"outputs": [{
			"name": "",
			"type": "tuple[]",
			"components": [
				{"name": "answer", "type": "string"},
				{"name": "description", "type": "string"},
				{"name": "owner", "type": "address"},
				{"name": "price", "type": "uint96"},
				{"name": "timestamp", "type": "uint32"}
			]
		}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "opinionId", "type": "uint256"},
			{"indexed": true, "name": "creator", "type": "address"},
			{"indexed": false, "name": "question", "type": "string"},
			{"indexed": false, "name": "initialPrice", "type": "uint256"}
		],
		"name": "OpinionCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "opinionId", "type": "uint256"},
			{"indexed": true, "name": "buyer", "type": "address"},
			{"indexed": false, "name": "answerId", "type": "uint256"},
			{"indexed": false, "name": "price", "type": "uint256"},
			{"indexed": false, "name": "nextPrice", "type": "uint256"}
		],
		"name": "AnswerPurchased",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "opinionId", "type": "uint256"},
			{"indexed": true, "name": "seller", "type": "address"},
			{"indexed": false, "name": "answerId", "type": "uint256"},
			{"indexed": false, "name": "amount", "type": "uint256"},
			{"indexed": false, "name": "nextPrice", "type": "uint256"}
		],
		"name": "PositionSold",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "poolId", "type": "uint256"},
			{"indexed": true, "name": "opinionId", "type": "uint256"},
			{"indexed": true, "name": "creator", "type": "address"},
			{"indexed": false, "name": "proposedAnswer", "type": "string"},
			{"indexed": false, "name": "targetPrice", "type": "uint256"},
			{"indexed": false, "name": "deadline", "type": "uint256"}
		],
		"name": "PoolCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "poolId", "type": "uint256"},
			{"indexed": true, "name": "contributor", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"},
			{"indexed": false, "name": "totalAmount", "type": "uint256"}
		],
		"name": "PoolContributed",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "poolId", "type": "uint256"},
			{"indexed": true, "name": "opinionId", "type": "uint256"},
			{"indexed": false, "name": "totalAmount", "type": "uint256"}
		],
		"name": "PoolExecuted",
		"type": "event"
	}
]`

var opinionCoreABI = mustParseABI(opinionCoreABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: parse opinion ABI: " + err.Error())
	}
	return parsed
}
