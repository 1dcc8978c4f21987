package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferGasLimit 普通转账固定消耗的 gas，带 data 的交易不适用
const TransferGasLimit = uint64(21000)

// TxStatus 交易状态
type TxStatus string

const (
	StatusSubmitted TxStatus = "Submitted" // 已广播，尚未确认
	StatusMined     TxStatus = "Mined"     // 已打包
	StatusUnknown   TxStatus = "Unknown"   // 等待超时，之后仍可能被打包
)

// TransactionRequest 已定价、已编号、待签名的交易
type TransactionRequest struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	ValueWei *big.Int       `json:"valueWei"`
	GasLimit uint64         `json:"gasLimit"`
	GasPrice *big.Int       `json:"gasPrice"`
	Nonce    uint64         `json:"nonce"`
	ChainID  *big.Int       `json:"chainId"`
}

// MaxCost value + gasLimit*gasPrice，发送方至少需要的余额
func (r *TransactionRequest) MaxCost() *big.Int {
	cost := new(big.Int).SetUint64(r.GasLimit)
	if r.GasPrice != nil {
		cost.Mul(cost, r.GasPrice)
	} else {
		cost.SetUint64(0)
	}
	if r.ValueWei != nil {
		cost.Add(cost, r.ValueWei)
	}
	return cost
}

// BalanceSnapshot 某一时刻观察到的余额
// ObservedAt 是会话内的逻辑序号，不是时间
type BalanceSnapshot struct {
	Address    common.Address `json:"address"`
	AmountWei  *big.Int       `json:"amountWei"`
	ObservedAt uint64         `json:"observedAt"`
}

// TransactionRecord 一次提交的结果
type TransactionRecord struct {
	Hash        common.Hash      `json:"hash"`
	Status      TxStatus         `json:"status"`
	From        common.Address   `json:"from"`
	To          common.Address   `json:"to"`
	ValueWei    *big.Int         `json:"valueWei"`
	GasPrice    *big.Int         `json:"gasPrice"`
	Nonce       uint64           `json:"nonce"`
	BlockNumber *big.Int         `json:"blockNumber,omitempty"`
	Balance     *BalanceSnapshot `json:"balance,omitempty"`
	TimeStamp   int64            `json:"timeStamp"` // 提交时间 unix 秒
}
