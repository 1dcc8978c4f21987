// Package enginetest 提供内存中的 NodeClient，用于测试
package enginetest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lmxdawn/ethwallet/engine"
)

// Node 模拟单个节点：余额、pending nonce、gasPrice 和打包
type Node struct {
	mu       sync.Mutex
	chainID  *big.Int
	gasPrice *big.Int
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	pending  map[common.Hash]*ethTypes.Transaction
	block    int64

	broadcasts []*ethTypes.Transaction

	// Mine 为 false 时 AwaitReceipt 一直等到超时
	Mine bool
	// Revert 打包后收据状态为失败，只扣手续费
	Revert bool

	BalanceErr   error
	GasPriceErr  error
	NonceErr     error
	BroadcastErr error

	// BeforeBroadcast 广播前调用，用来让测试卡住一笔提交
	BeforeBroadcast func()
	// AfterMine 打包后调用
	AfterMine func()

	Calls []string
}

func NewNode(chainID int64) *Node {
	return &Node{
		chainID:  big.NewInt(chainID),
		gasPrice: big.NewInt(1_000_000_000),
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		pending:  make(map[common.Hash]*ethTypes.Transaction),
		block:    100,
		Mine:     true,
	}
}

var _ engine.NodeClient = (*Node)(nil)

func (n *Node) SetBalance(address common.Address, wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[address] = new(big.Int).Set(wei)
}

func (n *Node) SetGasPrice(wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasPrice = new(big.Int).Set(wei)
}

func (n *Node) SetNonce(address common.Address, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[address] = nonce
}

// Broadcasts 已广播的交易，按顺序
func (n *Node) Broadcasts() []*ethTypes.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*ethTypes.Transaction(nil), n.broadcasts...)
}

func (n *Node) CallLog() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Calls...)
}

func (n *Node) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, "getBalance")
	if n.BalanceErr != nil {
		return nil, n.BalanceErr
	}
	return new(big.Int).Set(n.balance(address)), nil
}

func (n *Node) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, "getPendingNonce")
	if n.NonceErr != nil {
		return 0, n.NonceErr
	}
	return n.nonces[address], nil
}

func (n *Node) GetGasPrice(ctx context.Context) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, "getGasPrice")
	if n.GasPriceErr != nil {
		return nil, n.GasPriceErr
	}
	return new(big.Int).Set(n.gasPrice), nil
}

// Broadcast 校验 nonce 和余额，错误信息格式与 geth 相同
func (n *Node) Broadcast(ctx context.Context, raw []byte) (common.Hash, error) {
	if n.BeforeBroadcast != nil {
		n.BeforeBroadcast()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, "broadcast")
	if n.BroadcastErr != nil {
		return common.Hash{}, n.BroadcastErr
	}

	tx := new(ethTypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("rlp: %v", err)
	}
	from, err := ethTypes.Sender(ethTypes.NewEIP155Signer(n.chainID), tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %v", err)
	}
	if expected := n.nonces[from]; tx.Nonce() != expected {
		return common.Hash{}, fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	}
	have := n.balance(from)
	if have.Cmp(tx.Cost()) < 0 {
		return common.Hash{}, fmt.Errorf("insufficient funds for gas * price + value: address %s have %s want %s", from.Hex(), have, tx.Cost())
	}

	n.nonces[from]++
	n.pending[tx.Hash()] = tx
	n.broadcasts = append(n.broadcasts, tx)
	return tx.Hash(), nil
}

// AwaitReceipt Mine 为 true 时立即打包，扣除 value 和实际手续费
func (n *Node) AwaitReceipt(ctx context.Context, hash common.Hash, policy engine.ReceiptPolicy) (*ethTypes.Receipt, error) {
	n.mu.Lock()
	n.Calls = append(n.Calls, "awaitReceipt")
	tx, ok := n.pending[hash]
	if !ok || !n.Mine {
		n.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return nil, engine.ErrReceiptTimeout
		}
	}

	from, _ := ethTypes.Sender(ethTypes.NewEIP155Signer(n.chainID), tx)
	fee := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), tx.GasPrice())
	debit := new(big.Int).Set(fee)
	status := ethTypes.ReceiptStatusSuccessful
	if n.Revert {
		status = ethTypes.ReceiptStatusFailed
	} else {
		debit.Add(debit, tx.Value())
		to := *tx.To()
		n.balances[to] = new(big.Int).Add(n.balance(to), tx.Value())
	}
	n.balances[from] = new(big.Int).Sub(n.balance(from), debit)
	delete(n.pending, hash)
	n.block++
	receipt := &ethTypes.Receipt{
		Status:            status,
		TxHash:            hash,
		GasUsed:           tx.Gas(),
		CumulativeGasUsed: tx.Gas(),
		BlockNumber:       big.NewInt(n.block),
	}
	afterMine := n.AfterMine
	n.mu.Unlock()

	if afterMine != nil {
		afterMine()
	}
	return receipt, nil
}

func (n *Node) balance(address common.Address) *big.Int {
	if b, ok := n.balances[address]; ok {
		return b
	}
	return new(big.Int)
}
