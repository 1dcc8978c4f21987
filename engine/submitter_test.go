package engine_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/lmxdawn/ethwallet/db"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/lmxdawn/ethwallet/engine/enginetest"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oneEther = big.NewInt(1_000_000_000_000_000_000)

type submitFixture struct {
	node      *enginetest.Node
	keys      *engine.KeyStore
	history   db.Database
	wallet    *engine.Wallet
	submitter *engine.TransactionSubmitter
	refreshed int
}

func newSubmitFixture(t *testing.T, policy engine.ReceiptPolicy) *submitFixture {
	t.Helper()
	f := &submitFixture{node: enginetest.NewNode(1), history: newMemoryDB(t)}
	f.keys = engine.NewKeyStore(f.history, "")
	wallet, err := f.keys.CreateWallet()
	require.NoError(t, err)
	f.wallet = wallet
	f.node.SetBalance(wallet.Address(), oneEther)

	refresh := func(ctx context.Context) (*types.BalanceSnapshot, error) {
		f.refreshed++
		amount, err := f.node.GetBalance(ctx, wallet.Address())
		if err != nil {
			return nil, err
		}
		return &types.BalanceSnapshot{Address: wallet.Address(), AmountWei: amount, ObservedAt: uint64(f.refreshed)}, nil
	}
	f.submitter = engine.NewTransactionSubmitter(f.keys, f.node, policy, f.history, refresh)
	return f
}

func (f *submitFixture) request(t *testing.T, value *big.Int) *types.TransactionRequest {
	t.Helper()
	req, err := engine.NewTransactionBuilder(f.node, big.NewInt(1)).Build(context.Background(), f.wallet, recipient, value)
	require.NoError(t, err)
	return req
}

var quickReceipt = engine.ReceiptPolicy{Interval: time.Millisecond, Timeout: time.Second}

func TestSubmit_Mined(t *testing.T) {
	f := newSubmitFixture(t, quickReceipt)
	req := f.request(t, big.NewInt(1_000_000_000_000_000))

	var seen []types.TxStatus
	rec, err := f.submitter.Submit(context.Background(), f.wallet, req, func(rec types.TransactionRecord) {
		seen = append(seen, rec.Status)
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusMined, rec.Status)
	assert.NotEqual(t, [32]byte{}, [32]byte(rec.Hash))
	assert.NotNil(t, rec.BlockNumber)
	require.NotNil(t, rec.Balance)
	assert.Equal(t, 1, f.refreshed)
	assert.Equal(t, []types.TxStatus{types.StatusSubmitted, types.StatusMined}, seen)
	assert.Len(t, f.node.Broadcasts(), 1)

	history, err := db.GetTransferFromDB(f.history, f.wallet.Address())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, types.StatusMined, history[0].Status)
	assert.Equal(t, rec.Hash, history[0].Hash)
}

func TestSubmit_TimeoutIsUnknown(t *testing.T) {
	f := newSubmitFixture(t, quickReceipt)
	f.node.Mine = false

	rec, err := f.submitter.Submit(context.Background(), f.wallet, f.request(t, big.NewInt(1)), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnknown, rec.Status)
	assert.Len(t, f.node.Broadcasts(), 1, "never re-broadcast")
	assert.Zero(t, f.refreshed)
}

func TestSubmit_ZeroTimeoutReturnsSubmitted(t *testing.T) {
	f := newSubmitFixture(t, engine.ReceiptPolicy{})

	rec, err := f.submitter.Submit(context.Background(), f.wallet, f.request(t, big.NewInt(1)), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, rec.Status)
	assert.NotContains(t, f.node.CallLog(), "awaitReceipt")
}

func TestSubmit_Reverted(t *testing.T) {
	f := newSubmitFixture(t, quickReceipt)
	f.node.Revert = true

	_, err := f.submitter.Submit(context.Background(), f.wallet, f.request(t, big.NewInt(1)), nil)
	var failure *engine.TransactionFailureError
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Message, f.node.Broadcasts()[0].Hash().Hex())
}

func TestSubmit_BalanceRefreshFailureKeepsRecord(t *testing.T) {
	f := newSubmitFixture(t, quickReceipt)
	f.node.AfterMine = func() {
		f.node.BalanceErr = &engine.NetworkError{Op: "eth_getBalance"}
	}

	rec, err := f.submitter.Submit(context.Background(), f.wallet, f.request(t, big.NewInt(1)), nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusMined, rec.Status)
	assert.Nil(t, rec.Balance)
}

func TestSubmit_BroadcastRejected(t *testing.T) {
	f := newSubmitFixture(t, quickReceipt)
	f.node.SetBalance(f.wallet.Address(), big.NewInt(0))

	var notified bool
	_, err := f.submitter.Submit(context.Background(), f.wallet, f.request(t, big.NewInt(1)), func(types.TransactionRecord) {
		notified = true
	})
	require.Error(t, err)
	assert.False(t, notified)
	assert.Empty(t, f.node.Broadcasts())

	history, err := db.GetTransferFromDB(f.history, f.wallet.Address())
	require.NoError(t, err)
	assert.Empty(t, history)
}
