package engine

import (
	"crypto/ecdsa"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet 地址、公钥、私钥三者只能由私钥推导得到，保证一致
type Wallet struct {
	address    common.Address
	publicKey  *ecdsa.PublicKey
	privateKey *ecdsa.PrivateKey
}

func newWallet(privateKey *ecdsa.PrivateKey) *Wallet {
	publicKey := &privateKey.PublicKey
	return &Wallet{
		address:    crypto.PubkeyToAddress(*publicKey),
		publicKey:  publicKey,
		privateKey: privateKey,
	}
}

// Address 钱包地址
func (w *Wallet) Address() common.Address {
	return w.address
}

// PublicKeyHex 未压缩公钥，去掉 0x04 前缀
func (w *Wallet) PublicKeyHex() string {
	return hexutil.Encode(crypto.FromECDSAPub(w.publicKey))[4:]
}

// RevealPrivateKey 仅用于用户主动查看私钥
func (w *Wallet) RevealPrivateKey() string {
	return hexutil.Encode(crypto.FromECDSA(w.privateKey))
}

func (w *Wallet) String() string {
	return w.address.Hex()
}

// MarshalJSON 不输出私钥
func (w *Wallet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Address   string `json:"address"`
		PublicKey string `json:"publicKey"`
	}{
		Address:   w.address.Hex(),
		PublicKey: w.PublicKeyHex(),
	})
}
