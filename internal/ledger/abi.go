package ledger

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const savingsPoolABIJSON = `[
  {"inputs": [{"type": "address"}, {"type": "address"}], "name": "getBalance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "address"}], "name": "calculateInterest", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "address"}], "name": "getLockedBalance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "address"}], "name": "calculateLockedInterest", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}], "name": "tokenRates", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}], "name": "userGoals", "outputs": [{"name": "targetAmount", "type": "uint256"}, {"name": "deadline", "type": "uint256"}, {"name": "achieved", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}], "name": "getUserHistory", "outputs": [{"components": [{"name": "action", "type": "string"}, {"name": "amount", "type": "uint256"}, {"name": "timestamp", "type": "uint256"}, {"name": "token", "type": "address"}], "type": "tuple[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "poolCount", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "uint256"}], "name": "pools", "outputs": [{"name": "token", "type": "address"}, {"name": "targetAmount", "type": "uint256"}, {"name": "deadline", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "uint256"}], "name": "getPoolBalance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "uint256"}], "name": "deposit", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "uint256"}], "name": "batchDeposit", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "uint256"}], "name": "withdraw", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "uint256"}, {"type": "uint256"}], "name": "lockDeposit", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}], "name": "withdrawLocked", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "uint256"}, {"type": "uint256"}], "name": "setGoal", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "address"}, {"type": "uint256"}, {"type": "uint256"}], "name": "createPool", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"type": "uint256"}, {"type": "uint256"}], "name": "contributeToPool", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const erc20ABIJSON = `[
  {"inputs": [{"type": "address"}, {"type": "uint256"}], "name": "approve", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const priceFeedABIJSON = `[
  {"inputs": [], "name": "latestRoundData", "outputs": [{"name": "roundId", "type": "uint80"}, {"name": "answer", "type": "int256"}, {"name": "startedAt", "type": "uint256"}, {"name": "updatedAt", "type": "uint256"}, {"name": "answeredInRound", "type": "uint80"}], "stateMutability": "view", "type": "function"}
]`

var (
	savingsPoolABI     abi.ABI
	savingsPoolABIOnce sync.Once
	savingsPoolABIErr  error
	erc20ABI           abi.ABI
	erc20ABIOnce       sync.Once
	erc20ABIErr        error
	priceFeedABI       abi.ABI
	priceFeedABIOnce   sync.Once
	priceFeedABIErr    error
)

func savingsPoolABIInstance() (abi.ABI, error) {
	savingsPoolABIOnce.Do(func() {
		savingsPoolABI, savingsPoolABIErr = abi.JSON(strings.NewReader(savingsPoolABIJSON))
	})
	return savingsPoolABI, savingsPoolABIErr
}

func erc20ABIInstance() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

func priceFeedABIInstance() (abi.ABI, error) {
	priceFeedABIOnce.Do(func() {
		priceFeedABI, priceFeedABIErr = abi.JSON(strings.NewReader(priceFeedABIJSON))
	})
	return priceFeedABI, priceFeedABIErr
}
