package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/pkg/errors"
)

// Response ...
type Response struct {
	Code    int         `json:"code"`    // 错误code码
	Message string      `json:"message"` // 错误信息
	Data    interface{} `json:"data"`    // 成功时返回的对象
}

// APIResponse ....
func APIResponse(Ctx *gin.Context, err error, data interface{}) {
	if err == nil {
		err = OK
	}
	codeNum, message := DecodeErr(err)
	if data == nil {
		data = errorData(err)
	}
	Ctx.JSON(http.StatusOK, Response{
		Code:    codeNum,
		Message: message,
		Data:    data,
	})
}

// errorData 余额不足时把所需金额返回给前端
func errorData(err error) interface{} {
	var funds *engine.InsufficientFundsError
	if errors.As(err, &funds) && funds.RequiredWei != nil {
		return InsufficientFundsRes{
			RequiredWei:   funds.RequiredWei.String(),
			RequiredEther: engine.FormatEther(funds.RequiredWei),
		}
	}
	return nil
}

// WalletRes 钱包公开信息
type WalletRes struct {
	Address   string `json:"address"`   // 钱包地址
	PublicKey string `json:"publicKey"` // 未压缩公钥（不含 04 前缀）
	Encrypted bool   `json:"encrypted"` // 私钥是否加密存储
}

// SessionRes 当前会话
type SessionRes struct {
	Wallet  *WalletRes     `json:"wallet"`  // 没有会话时为 null
	Balance *GetBalanceRes `json:"balance"` // 最近一次观察到的余额
}

type GetBalanceRes struct {
	Address    string `json:"address"`
	Balance    string `json:"balance"` // wei
	Ether      string `json:"ether"`
	ObservedAt uint64 `json:"observedAt"` // 会话内的逻辑序号
}

// LinkStatus 链上状态 gas gasPrice
type LinkStatus struct {
	GasPrice       string `json:"gasPrice"`       // 节点建议的 gasPrice
	SubmitGasPrice string `json:"submitGasPrice"` // 实际提交时使用的 gasPrice（加价 50%）
}

// TransactionRes 提交结果
type TransactionRes struct {
	Hash        string         `json:"hash"`
	Status      types.TxStatus `json:"status"` // Submitted / Mined / Unknown
	From        string         `json:"from"`
	To          string         `json:"to"`
	Value       string         `json:"value"` // wei
	GasPrice    string         `json:"gasPrice"`
	Nonce       uint64         `json:"nonce"`
	BlockNumber string         `json:"blockNumber,omitempty"`
	Balance     *GetBalanceRes `json:"balance,omitempty"` // 打包后刷新的余额
	TimeStamp   int64          `json:"timeStamp"`
}

// InsufficientFundsRes 余额不足时的 data
type InsufficientFundsRes struct {
	RequiredWei   string `json:"requiredWei"`
	RequiredEther string `json:"requiredEther"`
}

// ExportWalletRes 导出私钥
type ExportWalletRes struct {
	PrivateKey string `json:"privateKey"`
}

// ReceiveRes 收款地址和二维码
type ReceiveRes struct {
	Address string `json:"address"`
	QRCode  string `json:"qrCode"` // base64 PNG
}

// WsMessage websocket 推送的消息
type WsMessage struct {
	Code        int             `json:"code"`
	Message     string          `json:"message"`
	Transaction *TransactionRes `json:"transaction,omitempty"`
	Data        interface{}     `json:"data,omitempty"`
	Done        bool            `json:"done"` // 最后一条消息
}

func newWalletRes(w *engine.Wallet, encrypted bool) *WalletRes {
	return &WalletRes{
		Address:   w.Address().Hex(),
		PublicKey: w.PublicKeyHex(),
		Encrypted: encrypted,
	}
}

func newBalanceRes(b *types.BalanceSnapshot) *GetBalanceRes {
	if b == nil {
		return nil
	}
	return &GetBalanceRes{
		Address:    b.Address.Hex(),
		Balance:    b.AmountWei.String(),
		Ether:      engine.FormatEther(b.AmountWei),
		ObservedAt: b.ObservedAt,
	}
}

func newTransactionRes(rec *types.TransactionRecord) *TransactionRes {
	res := &TransactionRes{
		Hash:      rec.Hash.Hex(),
		Status:    rec.Status,
		From:      rec.From.Hex(),
		To:        rec.To.Hex(),
		Value:     rec.ValueWei.String(),
		GasPrice:  rec.GasPrice.String(),
		Nonce:     rec.Nonce,
		Balance:   newBalanceRes(rec.Balance),
		TimeStamp: rec.TimeStamp,
	}
	if rec.BlockNumber != nil {
		res.BlockNumber = rec.BlockNumber.String()
	}
	return res
}
