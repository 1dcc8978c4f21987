package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrReceiptTimeout 在等待时间内没有拿到收据，交易之后仍可能被打包
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// ReceiptPolicy 收据轮询策略
type ReceiptPolicy struct {
	Interval    time.Duration // 首次轮询间隔
	MaxInterval time.Duration // 大于 Interval 时每次翻倍直到该值
	Timeout     time.Duration // 总等待时间，0 表示不等待
}

// NodeClient 远程节点的无状态访问，所有方法都不做重试
type NodeClient interface {
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	GetGasPrice(ctx context.Context) (*big.Int, error)
	Broadcast(ctx context.Context, raw []byte) (common.Hash, error)
	AwaitReceipt(ctx context.Context, hash common.Hash, policy ReceiptPolicy) (*ethTypes.Receipt, error)
}

// ethBackend ethclient.Client 中用到的部分
type ethBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethTypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethTypes.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// EthWorker 基于 ethclient 的 NodeClient
type EthWorker struct {
	http ethBackend
	url  string
}

// NewEthWorker 连接 rpc 节点
func NewEthWorker(ctx context.Context, url string) (*EthWorker, error) {
	http, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, networkError("dial", err)
	}
	return &EthWorker{http: http, url: url}, nil
}

func (w *EthWorker) Close() {
	w.http.Close()
}

// ChainID 节点的链 ID
func (w *EthWorker) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := w.http.ChainID(ctx)
	if err != nil {
		return nil, networkError("eth_chainId", err)
	}
	return id, nil
}

func (w *EthWorker) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := w.http.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, networkError("eth_getBalance", err)
	}
	return balance, nil
}

// GetPendingNonce 必须读取 pending 状态，否则连续两笔交易会使用同一个 nonce
func (w *EthWorker) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	nonce, err := w.http.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, networkError("eth_getTransactionCount", err)
	}
	return nonce, nil
}

func (w *EthWorker) GetGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := w.http.SuggestGasPrice(ctx)
	if err != nil {
		return nil, networkError("eth_gasPrice", err)
	}
	return price, nil
}

// Broadcast 节点返回的 rpc 错误属于交易本身的失败，原样交给 Classify
func (w *EthWorker) Broadcast(ctx context.Context, raw []byte) (common.Hash, error) {
	tx := new(ethTypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, errors.Wrap(err, "decode signed transaction")
	}
	err := w.http.SendTransaction(ctx, tx)
	if err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return common.Hash{}, errors.Wrap(err, "eth_sendRawTransaction")
		}
		return common.Hash{}, networkError("eth_sendRawTransaction", err)
	}
	return tx.Hash(), nil
}

func (w *EthWorker) AwaitReceipt(ctx context.Context, hash common.Hash, policy ReceiptPolicy) (*ethTypes.Receipt, error) {
	return pollReceipt(ctx, hash, policy, w.http.TransactionReceipt)
}

type receiptFetcher func(ctx context.Context, hash common.Hash) (*ethTypes.Receipt, error)

// pollReceipt 轮询直到拿到收据或超时，中间的查询错误只记录日志
func pollReceipt(ctx context.Context, hash common.Hash, policy ReceiptPolicy, fetch receiptFetcher) (*ethTypes.Receipt, error) {
	if policy.Timeout <= 0 {
		return nil, ErrReceiptTimeout
	}
	interval := policy.Interval
	if interval <= 0 {
		interval = time.Second
	}
	pollCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	for {
		receipt, err := fetch(pollCtx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) && pollCtx.Err() == nil {
			log.Warn().Err(err).Str("hash", hash.Hex()).Msg("receipt poll failed")
		}

		wait := time.NewTimer(interval)
		select {
		case <-pollCtx.Done():
			wait.Stop()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrReceiptTimeout
		case <-wait.C:
		}

		if policy.MaxInterval > interval {
			interval *= 2
			if interval > policy.MaxInterval {
				interval = policy.MaxInterval
			}
		}
	}
}
