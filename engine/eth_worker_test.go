package engine_test

import (
	"context"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ethService 以 eth 命名空间注册到 rpc.Server
type ethService struct {
	mu           sync.Mutex
	balance      *big.Int
	nonce        uint64
	gasPrice     *big.Int
	sendErr      error
	sent         []hexutil.Bytes
	receiptAfter int
	polls        int
	blockTags    []string
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(5))
}

func (s *ethService) GetBalance(address common.Address, block string) *hexutil.Big {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockTags = append(s.blockTags, "balance:"+block)
	return (*hexutil.Big)(s.balance)
}

func (s *ethService) GetTransactionCount(address common.Address, block string) hexutil.Uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockTags = append(s.blockTags, "nonce:"+block)
	return hexutil.Uint64(s.nonce)
}

func (s *ethService) GasPrice() *hexutil.Big {
	return (*hexutil.Big)(s.gasPrice)
}

func (s *ethService) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}
	s.sent = append(s.sent, raw)
	tx := new(ethTypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (s *ethService) GetTransactionReceipt(hash common.Hash) (*ethTypes.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.receiptAfter < 0 || s.polls <= s.receiptAfter {
		return nil, nil
	}
	return &ethTypes.Receipt{
		Status:      ethTypes.ReceiptStatusSuccessful,
		TxHash:      hash,
		GasUsed:     21000,
		Logs:        []*ethTypes.Log{},
		BlockNumber: big.NewInt(12),
	}, nil
}

func newEthWorker(t *testing.T, svc *ethService) *engine.EthWorker {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})

	worker, err := engine.NewEthWorker(context.Background(), ts.URL)
	require.NoError(t, err)
	t.Cleanup(worker.Close)
	return worker
}

func signedTransfer(t *testing.T) *ethTypes.Transaction {
	t.Helper()
	key, err := crypto.HexToECDSA(knownKey[2:])
	require.NoError(t, err)
	to := common.HexToAddress(recipient)
	tx, err := ethTypes.SignTx(ethTypes.NewTx(&ethTypes.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(3),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(10),
	}), ethTypes.NewEIP155Signer(big.NewInt(5)), key)
	require.NoError(t, err)
	return tx
}

func TestEthWorker_Reads(t *testing.T) {
	svc := &ethService{balance: big.NewInt(99), nonce: 4, gasPrice: big.NewInt(7)}
	worker := newEthWorker(t, svc)
	ctx := context.Background()
	address := common.HexToAddress(knownAddress)

	balance, err := worker.GetBalance(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), balance)

	nonce, err := worker.GetPendingNonce(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), nonce)

	price, err := worker.GetGasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), price)

	chainID, err := worker.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), chainID)

	assert.Equal(t, []string{"balance:latest", "nonce:pending"}, svc.blockTags)
}

func TestEthWorker_Broadcast(t *testing.T) {
	svc := &ethService{}
	worker := newEthWorker(t, svc)
	tx := signedTransfer(t)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	hash, err := worker.Broadcast(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, raw, []byte(svc.sent[0]))
}

func TestEthWorker_BroadcastRejectionCarriesNodeData(t *testing.T) {
	svc := &ethService{sendErr: &nodeDataError{
		msg:  "insufficient funds for gas * price + value",
		data: map[string]interface{}{"required": "0x5208"},
	}}
	worker := newEthWorker(t, svc)
	raw, err := signedTransfer(t).MarshalBinary()
	require.NoError(t, err)

	_, err = worker.Broadcast(context.Background(), raw)
	require.Error(t, err)

	var funds *engine.InsufficientFundsError
	require.ErrorAs(t, engine.Classify(err, nil), &funds)
	assert.Equal(t, big.NewInt(21000), funds.RequiredWei)
}

func TestEthWorker_NodeDown(t *testing.T) {
	svc := &ethService{balance: big.NewInt(1)}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	ts := httptest.NewServer(server)
	worker, err := engine.NewEthWorker(context.Background(), ts.URL)
	require.NoError(t, err)
	defer worker.Close()
	ts.Close()

	_, err = worker.GetBalance(context.Background(), common.HexToAddress(knownAddress))
	var netErr *engine.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "eth_getBalance", netErr.Op)

	raw, err := signedTransfer(t).MarshalBinary()
	require.NoError(t, err)
	_, err = worker.Broadcast(context.Background(), raw)
	assert.ErrorAs(t, err, &netErr)
}

func TestEthWorker_AwaitReceipt(t *testing.T) {
	svc := &ethService{receiptAfter: 2}
	worker := newEthWorker(t, svc)
	hash := signedTransfer(t).Hash()

	receipt, err := worker.AwaitReceipt(context.Background(), hash, engine.ReceiptPolicy{
		Interval:    5 * time.Millisecond,
		MaxInterval: 20 * time.Millisecond,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, hash, receipt.TxHash)
	assert.Equal(t, big.NewInt(12), receipt.BlockNumber)
	assert.Equal(t, 3, svc.polls)
}

func TestEthWorker_AwaitReceiptTimeout(t *testing.T) {
	svc := &ethService{receiptAfter: -1}
	worker := newEthWorker(t, svc)

	_, err := worker.AwaitReceipt(context.Background(), common.Hash{1}, engine.ReceiptPolicy{
		Interval: 5 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	})
	assert.ErrorIs(t, err, engine.ErrReceiptTimeout)
	assert.GreaterOrEqual(t, svc.polls, 2)
}

func TestEthWorker_AwaitReceiptCancelled(t *testing.T) {
	svc := &ethService{receiptAfter: -1}
	worker := newEthWorker(t, svc)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := worker.AwaitReceipt(ctx, common.Hash{1}, engine.ReceiptPolicy{
		Interval: 5 * time.Millisecond,
		Timeout:  5 * time.Second,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
