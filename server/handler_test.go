package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/websocket"
	"github.com/gin-gonic/gin"
	"github.com/lmxdawn/ethwallet/config"
	"github.com/lmxdawn/ethwallet/db"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/lmxdawn/ethwallet/engine/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey       = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress   = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	testRecipient = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testToken     = "export-token"
	testOrigin    = "http://localhost:3000"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	node   *enginetest.Node
	engine *engine.Engine
	router *gin.Engine
}

func newFixture(t *testing.T, opts ...engine.KeyStoreOption) *fixture {
	t.Helper()
	require.NoError(t, InitValidator())
	database, err := db.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	node := enginetest.NewNode(1)
	e := engine.NewEngine(engine.NewKeyStore(database, "", opts...), node, database, engine.Options{
		ChainID: big.NewInt(1),
		Receipt: engine.ReceiptPolicy{Interval: time.Millisecond, Timeout: time.Second},
	})
	router := NewRouter(e, RouterOptions{
		Swag:         true,
		AllowOrigins: []string{testOrigin},
		ExportGuard:  NewExportGuard(testToken),
	})
	return &fixture{node: node, engine: e, router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) testResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func (f *fixture) importWallet(t *testing.T) {
	t.Helper()
	res := f.do(t, http.MethodPost, "/importWallet", ImportWalletReq{PrivateKey: testKey})
	require.Equal(t, OK.Code, res.Code, res.Message)
}

func decode(t *testing.T, res testResponse, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(res.Data, v))
}

func TestSessionRequired(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/getBalance", "/getHistory", "/receive"} {
		res := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, ErrNoSession.Code, res.Code, path)
	}
}

func TestCreateWallet(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/createWallet", nil)
	require.Equal(t, OK.Code, res.Code)
	var wallet WalletRes
	decode(t, res, &wallet)
	assert.Equal(t, f.engine.Wallet().Address().Hex(), wallet.Address)
	assert.Len(t, wallet.PublicKey, 128)
	assert.NotContains(t, string(res.Data), "privateKey")

	res = f.do(t, http.MethodPost, "/createWallet", nil)
	assert.Equal(t, ErrInvalidRequest.Code, res.Code)
}

func TestImportAndSession(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, OK.Code, res.Code)
	var session SessionRes
	decode(t, res, &session)
	assert.Nil(t, session.Wallet)

	res = f.do(t, http.MethodPost, "/importWallet", ImportWalletReq{PrivateKey: "0x1234"})
	assert.Equal(t, ErrInvalidKeyMaterial.Code, res.Code)
	assert.NotContains(t, res.Message, "1234")

	res = f.do(t, http.MethodPost, "/importWallet", map[string]string{})
	assert.Equal(t, ErrInvalidRequest.Code, res.Code)

	f.importWallet(t)
	res = f.do(t, http.MethodGet, "/session", nil)
	decode(t, res, &session)
	require.NotNil(t, session.Wallet)
	assert.Equal(t, testAddress, session.Wallet.Address)

	res = f.do(t, http.MethodDelete, "/session", nil)
	assert.Equal(t, OK.Code, res.Code)
	assert.Nil(t, f.engine.Wallet())
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)
	f.node.SetBalance(f.engine.Wallet().Address(), big.NewInt(1_500_000_000_000_000_000))

	res := f.do(t, http.MethodGet, "/getBalance", nil)
	require.Equal(t, OK.Code, res.Code)
	var balance GetBalanceRes
	decode(t, res, &balance)
	assert.Equal(t, testAddress, balance.Address)
	assert.Equal(t, "1500000000000000000", balance.Balance)
	assert.Equal(t, "1.5", balance.Ether)

	f.node.BalanceErr = &engine.NetworkError{Op: "eth_getBalance"}
	res = f.do(t, http.MethodGet, "/getBalance", nil)
	assert.Equal(t, ErrNetwork.Code, res.Code)
}

func TestGetLinkStatus(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodGet, "/getLinkStatus", nil)
	require.Equal(t, OK.Code, res.Code)
	var status LinkStatus
	decode(t, res, &status)
	assert.Equal(t, "1000000000", status.GasPrice)
	assert.Equal(t, "1500000000", status.SubmitGasPrice)
}

func TestTransaction_Validation(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)
	calls := len(f.node.CallLog())

	cases := []TransactionReq{
		{To: "0x1234", Amount: "0.1"},
		{To: testRecipient, Amount: "0"},
		{To: testRecipient, Amount: "1e18"},
		{To: testRecipient},
	}
	for _, q := range cases {
		res := f.do(t, http.MethodPost, "/transaction", q)
		assert.Equal(t, ErrInvalidRequest.Code, res.Code, res.Message)
	}
	assert.Len(t, f.node.CallLog(), calls)
}

func TestTransaction_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)

	res := f.do(t, http.MethodPost, "/transaction", TransactionReq{To: testRecipient, Amount: "0.01"})
	require.Equal(t, ErrInsufficientFunds.Code, res.Code)
	var funds InsufficientFundsRes
	decode(t, res, &funds)
	assert.Equal(t, "10031500000000000", funds.RequiredWei)
	assert.Equal(t, "0.0100315", funds.RequiredEther)
}

func TestTransaction_Mined(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)
	f.node.SetBalance(f.engine.Wallet().Address(), big.NewInt(1_000_000_000_000_000_000))

	res := f.do(t, http.MethodPost, "/transaction", TransactionReq{To: testRecipient, Amount: "0.001"})
	require.Equal(t, OK.Code, res.Code, res.Message)
	var tx TransactionRes
	decode(t, res, &tx)
	assert.Equal(t, "Mined", string(tx.Status))
	assert.Equal(t, "1000000000000000", tx.Value)
	assert.Equal(t, "1500000000", tx.GasPrice)
	require.NotNil(t, tx.Balance)

	res = f.do(t, http.MethodGet, "/getHistory", nil)
	require.Equal(t, OK.Code, res.Code)
	var history []TransactionRes
	decode(t, res, &history)
	require.Len(t, history, 1)
	assert.Equal(t, tx.Hash, history[0].Hash)
}

func TestExportWallet(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)

	res := f.do(t, http.MethodPost, "/exportWallet", map[string]string{"address": testAddress})
	assert.Equal(t, ErrInvalidRequest.Code, res.Code)
	assert.NotContains(t, string(res.Data), "privateKey")

	res = f.do(t, http.MethodPost, "/exportWallet", ExportWalletReq{Secret: testAddress})
	assert.Equal(t, ErrNoPremission.Code, res.Code)

	res = f.do(t, http.MethodPost, "/exportWallet", ExportWalletReq{Secret: testToken})
	require.Equal(t, OK.Code, res.Code)
	var export ExportWalletRes
	decode(t, res, &export)
	assert.Equal(t, testKey, export.PrivateKey)

	// token 只能使用一次
	res = f.do(t, http.MethodPost, "/exportWallet", ExportWalletReq{Secret: testToken})
	assert.Equal(t, ErrNoPremission.Code, res.Code)
}

func TestExportWallet_Encrypted(t *testing.T) {
	f := newFixture(t, engine.WithPassphrase("correct horse", true))
	f.importWallet(t)

	res := f.do(t, http.MethodPost, "/exportWallet", ExportWalletReq{Secret: testToken})
	assert.Equal(t, ErrNoPremission.Code, res.Code)

	res = f.do(t, http.MethodPost, "/exportWallet", ExportWalletReq{Secret: "correct horse"})
	require.Equal(t, OK.Code, res.Code)
	var export ExportWalletRes
	decode(t, res, &export)
	assert.Equal(t, testKey, export.PrivateKey)
}

// 会话在 SessionRequired 之后被清除
func TestHandlers_SessionClearedMidRequest(t *testing.T) {
	f := newFixture(t)
	handlers := map[string]gin.HandlerFunc{
		"/receive":      Receive,
		"/exportWallet": ExportWallet,
	}
	for path, handler := range handlers {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := strings.NewReader(`{"secret":"` + testToken + `"}`)
		c.Request = httptest.NewRequest(http.MethodPost, path, body)
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set(engineKey, f.engine)
		c.Set(exportGuardKey, NewExportGuard(testToken))

		handler(c)

		var res testResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), path)
		assert.Equal(t, ErrNoSession.Code, res.Code, path)
	}
}

func TestReceive(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)

	res := f.do(t, http.MethodGet, "/receive", nil)
	require.Equal(t, OK.Code, res.Code)
	var receive ReceiveRes
	decode(t, res, &receive)
	assert.Equal(t, testAddress, receive.Address)

	png, err := base64.StdEncoding.DecodeString(receive.QRCode)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestCors(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)

	req := httptest.NewRequest(http.MethodOptions, "/transaction", nil)
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))

	requests := []*http.Request{
		httptest.NewRequest(http.MethodOptions, "/exportWallet", nil),
		httptest.NewRequest(http.MethodGet, "/session", nil),
		httptest.NewRequest(http.MethodPost, "/exportWallet", strings.NewReader(`{"secret":"`+testToken+`"}`)),
		httptest.NewRequest(http.MethodPost, "/transaction", strings.NewReader(`{"to":"`+testRecipient+`","amount":"0.001"}`)),
	}
	for _, req := range requests {
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, req.URL.Path)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), req.URL.Path)
		assert.NotContains(t, w.Body.String(), testAddress, req.URL.Path)
	}
	assert.Empty(t, f.node.Broadcasts())

	// 没有 Origin 的本机客户端不受影响
	res := f.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, OK.Code, res.Code)
}

func TestSwaggerDoc(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/transaction")
}

func TestTransactionWs(t *testing.T) {
	f := newFixture(t)
	f.importWallet(t)
	f.node.SetBalance(f.engine.Wallet().Address(), big.NewInt(1_000_000_000_000_000_000))

	ts := httptest.NewServer(f.router)
	defer ts.Close()

	query := url.Values{"to": {testRecipient}, "amount": {"0.001"}}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/transaction?" + query.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var statuses []string
	for {
		var msg WsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, OK.Code, msg.Code, msg.Message)
		statuses = append(statuses, msg.Message)
		if msg.Done {
			require.NotNil(t, msg.Transaction)
			assert.Equal(t, "Mined", string(msg.Transaction.Status))
			break
		}
	}
	assert.Equal(t, []string{"Submitted", "Mined", "Mined"}, statuses)
}

func TestDecodeErr(t *testing.T) {
	code, msg := DecodeErr(nil)
	assert.Equal(t, OK.Code, code)
	assert.Equal(t, OK.Message, msg)

	code, _ = DecodeErr(ErrNoSession)
	assert.Equal(t, ErrNoSession.Code, code)

	cases := map[*Errno]error{
		ErrInvalidRequest:     &engine.InvalidRequestError{Reason: "bad"},
		ErrInvalidKeyMaterial: &engine.InvalidKeyMaterialError{Reason: "bad"},
		ErrNetwork:            &engine.NetworkError{Op: "dial"},
		ErrInsufficientFunds:  &engine.InsufficientFundsError{RequiredWei: big.NewInt(1)},
		ErrTransactionFailure: &engine.TransactionFailureError{Message: "reverted"},
	}
	for errno, err := range cases {
		code, msg := DecodeErr(err)
		assert.Equal(t, errno.Code, code)
		assert.Equal(t, err.Error(), msg)
	}

	code, _ = DecodeErr(io.EOF)
	assert.Equal(t, InternalServerError.Code, code)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, config.StoreConfig{Driver: "leveldb", File: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = OpenStore(ctx, config.StoreConfig{Driver: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store driver "mongo"`)
}
