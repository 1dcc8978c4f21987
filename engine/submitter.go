package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/lmxdawn/ethwallet/db"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Observer 交易状态变化时回调，收到的是记录的拷贝
type Observer func(rec types.TransactionRecord)

// BalanceRefresher 交易打包后刷新余额
type BalanceRefresher func(ctx context.Context) (*types.BalanceSnapshot, error)

// TransactionSubmitter 签名、广播、等待收据，每次调用只广播一次
type TransactionSubmitter struct {
	keys    *KeyStore
	node    NodeClient
	policy  ReceiptPolicy
	history db.Database
	refresh BalanceRefresher
}

// NewTransactionSubmitter history 和 refresh 可以为空
func NewTransactionSubmitter(keys *KeyStore, node NodeClient, policy ReceiptPolicy, history db.Database, refresh BalanceRefresher) *TransactionSubmitter {
	return &TransactionSubmitter{
		keys:    keys,
		node:    node,
		policy:  policy,
		history: history,
		refresh: refresh,
	}
}

// Submit 等待超时返回 Unknown，不会重新广播
func (s *TransactionSubmitter) Submit(ctx context.Context, wallet *Wallet, req *types.TransactionRequest, observe Observer) (*types.TransactionRecord, error) {
	signed, err := s.keys.Sign(wallet, req)
	if err != nil {
		return nil, err
	}

	hash, err := s.node.Broadcast(ctx, signed.Raw)
	if err != nil {
		return nil, err
	}
	if hash != signed.Hash {
		log.Warn().Str("signed", signed.Hash.Hex()).Str("node", hash.Hex()).Msg("node returned a different transaction hash")
	}

	rec := &types.TransactionRecord{
		Hash:      hash,
		Status:    types.StatusSubmitted,
		From:      req.From,
		To:        req.To,
		ValueWei:  new(big.Int).Set(req.ValueWei),
		GasPrice:  new(big.Int).Set(req.GasPrice),
		Nonce:     req.Nonce,
		TimeStamp: time.Now().Unix(),
	}
	log.Info().Str("hash", hash.Hex()).Uint64("nonce", req.Nonce).Str("to", req.To.Hex()).Msg("transaction submitted")
	s.save(rec, observe)

	if s.policy.Timeout <= 0 {
		return rec, nil
	}

	receipt, err := s.node.AwaitReceipt(ctx, hash, s.policy)
	if err != nil {
		// 交易已经广播，超时或取消都不能算失败
		rec.Status = types.StatusUnknown
		log.Warn().Err(err).Str("hash", hash.Hex()).Msg("no receipt, transaction status unknown")
		s.save(rec, observe)
		return rec, nil
	}

	rec.Status = types.StatusMined
	rec.BlockNumber = receipt.BlockNumber
	s.refreshBalance(ctx, rec)
	s.save(rec, observe)

	if receipt.Status == ethTypes.ReceiptStatusFailed {
		return nil, &TransactionFailureError{
			Message: fmt.Sprintf("transaction %s reverted in block %v", hash.Hex(), receipt.BlockNumber),
		}
	}
	log.Info().Str("hash", hash.Hex()).Str("block", fmt.Sprint(receipt.BlockNumber)).Msg("transaction mined")
	return rec, nil
}

func (s *TransactionSubmitter) refreshBalance(ctx context.Context, rec *types.TransactionRecord) {
	if s.refresh == nil {
		return
	}
	snapshot, err := s.refresh(ctx)
	if err != nil {
		log.Error().Err(err).Str("hash", rec.Hash.Hex()).Msg("balance refresh after mined transaction failed")
		return
	}
	rec.Balance = snapshot
}

func (s *TransactionSubmitter) save(rec *types.TransactionRecord, observe Observer) {
	if s.history != nil {
		if err := db.UpDateTransInfo(s.history, rec); err != nil {
			log.Error().Err(errors.Cause(err)).Str("hash", rec.Hash.Hex()).Msg("save transfer failed")
		}
	}
	if observe != nil {
		observe(*rec)
	}
}
