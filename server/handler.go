package server

import (
	"encoding/base64"

	"github.com/gin-gonic/gin"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// CreateWallet ...
// @Tags 钱包
// @Summary 创建钱包，已有钱包时失败
// @Produce json
// @Success 200 {object} Response{data=server.WalletRes}
// @Router /createWallet [post]
func CreateWallet(c *gin.Context) {
	e, ok := currentEngine(c)
	if !ok {
		APIResponse(c, ErrEngine, nil)
		return
	}

	wallet, err := e.CreateWallet(c.Request.Context())
	if err != nil {
		APIResponse(c, err, nil)
		return
	}

	APIResponse(c, nil, newWalletRes(wallet, e.Encrypted()))
}

// ImportWallet 从外部导入钱包
// @Tags 钱包
// @Summary 导入私钥
// @Produce json
// @Param body body ImportWalletReq true "参数"
// @Success 200 {object} Response{data=server.WalletRes}
// @Router /importWallet [post]
func ImportWallet(c *gin.Context) {
	var q ImportWalletReq
	if err := c.ShouldBindJSON(&q); err != nil {
		HandleValidatorError(c, err)
		return
	}
	e, ok := currentEngine(c)
	if !ok {
		APIResponse(c, ErrEngine, nil)
		return
	}

	wallet, err := e.ImportWallet(c.Request.Context(), q.PrivateKey)
	if err != nil {
		APIResponse(c, err, nil)
		return
	}

	APIResponse(c, nil, newWalletRes(wallet, e.Encrypted()))
}

// GetSession 获取当前钱包
// @Tags 钱包
// @Summary 当前会话，没有钱包时 wallet 为 null
// @Produce json
// @Success 200 {object} Response{data=server.SessionRes}
// @Router /session [get]
func GetSession(c *gin.Context) {
	e, ok := currentEngine(c)
	if !ok {
		APIResponse(c, ErrEngine, nil)
		return
	}
	res := SessionRes{}
	if wallet := e.Wallet(); wallet != nil {
		res.Wallet = newWalletRes(wallet, e.Encrypted())
		res.Balance = newBalanceRes(e.Balance())
	}
	APIResponse(c, nil, res)
}

// ClearSession 删除钱包
// @Tags 钱包
// @Summary 删除本地保存的私钥
// @Produce json
// @Success 200 {object} Response
// @Router /session [delete]
func ClearSession(c *gin.Context) {
	e, ok := currentEngine(c)
	if !ok {
		APIResponse(c, ErrEngine, nil)
		return
	}
	if err := e.ClearSession(); err != nil {
		APIResponse(c, err, nil)
		return
	}
	APIResponse(c, nil, nil)
}

// GetBalance 获取账户的余额信息
// @Tags 钱包
// @Summary 从节点读取余额
// @Produce json
// @Success 200 {object} Response{data=server.GetBalanceRes}
// @Router /getBalance [get]
func GetBalance(c *gin.Context) {
	e, _ := currentEngine(c)
	balance, err := e.GetBalance(c.Request.Context())
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	APIResponse(c, nil, newBalanceRes(balance))
}

// GetLinkStatus 获取实时的链上状态
// @Tags 链
// @Summary 当前 gasPrice
// @Produce json
// @Success 200 {object} Response{data=server.LinkStatus}
// @Router /getLinkStatus [get]
func GetLinkStatus(c *gin.Context) {
	e, ok := currentEngine(c)
	if !ok {
		APIResponse(c, ErrEngine, nil)
		return
	}
	price, err := e.GasPrice(c.Request.Context())
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	APIResponse(c, nil, LinkStatus{
		GasPrice:       price.String(),
		SubmitGasPrice: engine.MarkupGasPrice(price).String(),
	})
}

// Transaction
// @Tags 交易
// @Summary 发起一笔转账，等待打包或超时后返回
// @Produce json
// @Param body body TransactionReq true "参数"
// @Success 200 {object} Response{data=server.TransactionRes}
// @Router /transaction [post]
func Transaction(c *gin.Context) {
	var q TransactionReq
	if err := c.ShouldBindJSON(&q); err != nil {
		HandleValidatorError(c, err)
		return
	}
	e, _ := currentEngine(c)

	rec, err := e.SubmitEther(c.Request.Context(), q.To, q.Amount, nil)
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	APIResponse(c, nil, newTransactionRes(rec))
}

// GetHistory 获取钱包的交易记录
// @Tags 交易
// @Summary 本地保存的交易记录，新的在前
// @Produce json
// @Success 200 {object} Response{data=[]server.TransactionRes}
// @Router /getHistory [get]
func GetHistory(c *gin.Context) {
	e, _ := currentEngine(c)
	records, err := e.History()
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	res := make([]*TransactionRes, 0, len(records))
	for _, rec := range records {
		res = append(res, newTransactionRes(rec))
	}
	APIResponse(c, nil, res)
}

// ExportWallet 导出钱包
// @Tags 钱包
// @Summary 导出私钥，私钥加密存储时传 keystore 口令，否则传启动时终端打印的一次性 token
// @Produce json
// @Param body body ExportWalletReq true "参数"
// @Success 200 {object} Response{data=server.ExportWalletRes}
// @Router /exportWallet [post]
func ExportWallet(c *gin.Context) {
	var eW ExportWalletReq
	if err := c.ShouldBindJSON(&eW); err != nil {
		HandleValidatorError(c, err)
		return
	}
	e, _ := currentEngine(c)
	wallet := e.Wallet()
	if wallet == nil {
		APIResponse(c, ErrNoSession, nil)
		return
	}
	guard := currentExportGuard(c)
	if guard == nil || !guard.Allow(e, eW.Secret) {
		log.Warn().Str("address", wallet.Address().Hex()).Msg("private key export refused")
		APIResponse(c, ErrNoPremission, nil)
		return
	}

	privateKey, err := e.RevealPrivateKey()
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	log.Warn().Str("address", wallet.Address().Hex()).Msg("private key exported")
	APIResponse(c, nil, ExportWalletRes{PrivateKey: privateKey})
}

// Receive 收款地址二维码
// @Tags 钱包
// @Summary 收款地址和二维码（base64 PNG）
// @Produce json
// @Success 200 {object} Response{data=server.ReceiveRes}
// @Router /receive [get]
func Receive(c *gin.Context) {
	e, _ := currentEngine(c)
	wallet := e.Wallet()
	if wallet == nil {
		APIResponse(c, ErrNoSession, nil)
		return
	}
	address := wallet.Address().Hex()

	qr, err := qrcode.New("ethereum:"+address, qrcode.Medium)
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	png, err := qr.PNG(256)
	if err != nil {
		APIResponse(c, err, nil)
		return
	}
	APIResponse(c, nil, ReceiveRes{
		Address: address,
		QRCode:  base64.StdEncoding.EncodeToString(png),
	})
}
