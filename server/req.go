package server

// ImportWalletReq 导入私钥
type ImportWalletReq struct {
	PrivateKey string `json:"privateKey" binding:"required"` // 十六进制私钥，可带 0x
}

// TransactionReq 发起一笔转账
type TransactionReq struct {
	To     string `json:"to" form:"to" binding:"required,eth_addr"`           // 接收者
	Amount string `json:"amount" form:"amount" binding:"required,eth_amount"` // 数量，单位 ETH
}

// ExportWalletReq 导出私钥的凭证
type ExportWalletReq struct {
	Secret string `json:"secret" binding:"required"` // keystore 口令或一次性 token
}
