package engine

import (
	"context"
	"math/big"
	"sync"

	"github.com/lmxdawn/ethwallet/db"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/rs/zerolog/log"
)

// Options Engine 的运行参数
type Options struct {
	ChainID *big.Int
	Receipt ReceiptPolicy
	// Queue 为 true 时第二笔提交排队等待，否则直接拒绝
	Queue bool
}

// Engine 持有唯一的会话（当前钱包），是界面层唯一的入口
// 返回的错误都已经过 Classify
type Engine struct {
	keys      *KeyStore
	node      NodeClient
	db        db.Database
	builder   *TransactionBuilder
	submitter *TransactionSubmitter
	queue     bool

	// 同一时间只允许一笔提交，否则两次 Build 会读到同一个 pending nonce
	gate chan struct{}

	mu      sync.RWMutex
	wallet  *Wallet
	balance *types.BalanceSnapshot
	seq     uint64
}

func NewEngine(keys *KeyStore, node NodeClient, database db.Database, opts Options) *Engine {
	e := &Engine{
		keys:  keys,
		node:  node,
		db:    database,
		queue: opts.Queue,
		gate:  make(chan struct{}, 1),
	}
	chainID := opts.ChainID
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	e.builder = NewTransactionBuilder(node, chainID)
	e.submitter = NewTransactionSubmitter(keys, node, opts.Receipt, database, e.refreshBalance)
	return e
}

// CreateWallet 创建钱包并作为当前会话
func (e *Engine) CreateWallet(ctx context.Context) (*Wallet, error) {
	if err := e.tryAcquire(); err != nil {
		return nil, err
	}
	defer e.release()

	wallet, err := e.keys.CreateWallet()
	if err != nil {
		return nil, Classify(err, nil)
	}
	e.setWallet(wallet)
	log.Info().Str("address", wallet.Address().Hex()).Msg("wallet created")
	e.loadBalance(ctx)
	return wallet, nil
}

// ImportWallet 导入私钥并作为当前会话
func (e *Engine) ImportWallet(ctx context.Context, hexKey string) (*Wallet, error) {
	if err := e.tryAcquire(); err != nil {
		return nil, err
	}
	defer e.release()

	wallet, err := e.keys.ImportWallet(hexKey)
	if err != nil {
		return nil, Classify(err, nil)
	}
	e.setWallet(wallet)
	log.Info().Str("address", wallet.Address().Hex()).Msg("wallet imported")
	e.loadBalance(ctx)
	return wallet, nil
}

// LoadSession 从存储恢复会话，没有存储的钱包时返回 nil, nil
func (e *Engine) LoadSession(ctx context.Context) (*Wallet, error) {
	if w := e.Wallet(); w != nil {
		return w, nil
	}
	// 与 Clear 互斥，否则可能恢复一个已经删除的私钥
	if err := e.tryAcquire(); err != nil {
		return nil, err
	}
	defer e.release()
	if w := e.Wallet(); w != nil {
		return w, nil
	}

	wallet, err := e.keys.Load()
	if err != nil {
		return nil, Classify(err, nil)
	}
	if wallet == nil {
		return nil, nil
	}
	e.setWallet(wallet)
	log.Info().Str("address", wallet.Address().Hex()).Msg("session loaded")
	e.loadBalance(ctx)
	return wallet, nil
}

// ClearSession 删除存储的私钥并结束会话
func (e *Engine) ClearSession() error {
	if err := e.tryAcquire(); err != nil {
		return err
	}
	defer e.release()

	if err := e.keys.Clear(); err != nil {
		return Classify(err, nil)
	}
	e.mu.Lock()
	e.wallet = nil
	e.balance = nil
	e.mu.Unlock()
	log.Info().Msg("session cleared")
	return nil
}

// Wallet 当前钱包，没有会话时为 nil
func (e *Engine) Wallet() *Wallet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wallet
}

// Encrypted 私钥是否加密存储
func (e *Engine) Encrypted() bool {
	return e.keys.Encrypted()
}

// CheckPassphrase 私钥加密存储时校验口令，未加密时总是 false
func (e *Engine) CheckPassphrase(passphrase string) bool {
	return e.keys.CheckPassphrase(passphrase)
}

// Balance 最近一次观察到的余额
func (e *Engine) Balance() *types.BalanceSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balance
}

// RevealPrivateKey 用户主动查看私钥
func (e *Engine) RevealPrivateKey() (string, error) {
	wallet := e.Wallet()
	if wallet == nil {
		return "", invalidRequest("no active wallet")
	}
	return wallet.RevealPrivateKey(), nil
}

// GetBalance 从节点读取当前余额
func (e *Engine) GetBalance(ctx context.Context) (*types.BalanceSnapshot, error) {
	snapshot, err := e.refreshBalance(ctx)
	if err != nil {
		return nil, Classify(err, nil)
	}
	return snapshot, nil
}

// GasPrice 节点建议的 gasPrice（未加价）
func (e *Engine) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := e.node.GetGasPrice(ctx)
	if err != nil {
		return nil, Classify(err, nil)
	}
	return price, nil
}

// SubmitEther amount 为十进制 ETH 字符串
func (e *Engine) SubmitEther(ctx context.Context, to, amount string, observe Observer) (*types.TransactionRecord, error) {
	amountWei, err := ParseEther(amount)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, to, amountWei, observe)
}

// Submit 组装、签名、广播并等待确认
func (e *Engine) Submit(ctx context.Context, to string, amountWei *big.Int, observe Observer) (*types.TransactionRecord, error) {
	wallet := e.Wallet()
	if wallet == nil {
		return nil, invalidRequest("no active wallet")
	}
	if _, err := ParseAddress(to); err != nil {
		return nil, err
	}
	if amountWei == nil || amountWei.Sign() <= 0 {
		return nil, invalidRequest("amount must be greater than zero")
	}

	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()

	req, err := e.builder.Build(ctx, wallet, to, amountWei)
	if err != nil {
		return nil, Classify(err, nil)
	}
	rec, err := e.submitter.Submit(ctx, wallet, req, observe)
	if err != nil {
		classified := Classify(err, req)
		log.Error().Err(classified).Str("to", req.To.Hex()).Uint64("nonce", req.Nonce).Msg("submit failed")
		return nil, classified
	}
	return rec, nil
}

// History 当前钱包的交易记录
func (e *Engine) History() ([]*types.TransactionRecord, error) {
	wallet := e.Wallet()
	if wallet == nil {
		return nil, invalidRequest("no active wallet")
	}
	records, err := db.GetTransferFromDB(e.db, wallet.Address())
	if err != nil {
		return nil, Classify(err, nil)
	}
	return records, nil
}

func (e *Engine) setWallet(wallet *Wallet) {
	e.mu.Lock()
	e.wallet = wallet
	e.balance = nil
	e.mu.Unlock()
}

// loadBalance 会话建立后刷新余额，失败不影响会话
func (e *Engine) loadBalance(ctx context.Context) {
	if _, err := e.refreshBalance(ctx); err != nil {
		log.Warn().Err(err).Msg("initial balance refresh failed")
	}
}

func (e *Engine) refreshBalance(ctx context.Context) (*types.BalanceSnapshot, error) {
	wallet := e.Wallet()
	if wallet == nil {
		return nil, invalidRequest("no active wallet")
	}
	amount, err := e.node.GetBalance(ctx, wallet.Address())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	snapshot := &types.BalanceSnapshot{
		Address:    wallet.Address(),
		AmountWei:  amount,
		ObservedAt: e.seq,
	}
	if e.wallet == wallet {
		e.balance = snapshot
	}
	return snapshot, nil
}

func (e *Engine) acquire(ctx context.Context) error {
	if !e.queue {
		return e.tryAcquire()
	}
	select {
	case e.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return invalidRequest("cancelled while waiting for the previous submission")
	}
}

func (e *Engine) tryAcquire() error {
	select {
	case e.gate <- struct{}{}:
		return nil
	default:
		return invalidRequest("a transaction submission is already in progress")
	}
}

func (e *Engine) release() {
	<-e.gate
}
