package engine

import (
	"context"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/rs/zerolog/log"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParseAddress 校验 0x 开头的 40 位十六进制地址，大小写混合时校验 EIP-55
func ParseAddress(s string) (common.Address, error) {
	if !addressPattern.MatchString(s) {
		return common.Address{}, invalidRequest("%q is not a well-formed address", s)
	}
	address := common.HexToAddress(s)
	body := s[2:]
	mixed := body != strings.ToLower(body) && body != strings.ToUpper(body)
	if mixed && address.Hex() != s {
		return common.Address{}, invalidRequest("%q has an invalid checksum", s)
	}
	return address, nil
}

// MarkupGasPrice gasPrice = p + p/2
// 固定加价 50%，整数运算
func MarkupGasPrice(quoted *big.Int) *big.Int {
	half := new(big.Int).Quo(quoted, big.NewInt(2))
	return half.Add(half, quoted)
}

// TransactionBuilder 根据用户意图组装交易，每次都从节点读取最新的 gasPrice 和 nonce
type TransactionBuilder struct {
	node    NodeClient
	chainID *big.Int
}

func NewTransactionBuilder(node NodeClient, chainID *big.Int) *TransactionBuilder {
	return &TransactionBuilder{node: node, chainID: new(big.Int).Set(chainID)}
}

// Build 校验在任何网络请求之前完成
func (b *TransactionBuilder) Build(ctx context.Context, wallet *Wallet, to string, amountWei *big.Int) (*types.TransactionRequest, error) {
	if wallet == nil {
		return nil, invalidRequest("no active wallet")
	}
	toAddress, err := ParseAddress(to)
	if err != nil {
		return nil, err
	}
	if amountWei == nil || amountWei.Sign() <= 0 {
		return nil, invalidRequest("amount must be greater than zero")
	}

	quoted, err := b.node.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := b.node.GetPendingNonce(ctx, wallet.Address())
	if err != nil {
		return nil, err
	}

	req := &types.TransactionRequest{
		From:     wallet.Address(),
		To:       toAddress,
		ValueWei: new(big.Int).Set(amountWei),
		GasLimit: types.TransferGasLimit,
		GasPrice: MarkupGasPrice(quoted),
		Nonce:    nonce,
		ChainID:  new(big.Int).Set(b.chainID),
	}
	log.Debug().
		Str("from", req.From.Hex()).
		Str("to", req.To.Hex()).
		Str("quoted", quoted.String()).
		Str("gasPrice", req.GasPrice.String()).
		Uint64("nonce", req.Nonce).
		Msg("transaction built")
	return req, nil
}
