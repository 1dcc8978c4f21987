package engine

import (
	"crypto/ecdsa"
	"crypto/subtle"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/lmxdawn/ethwallet/db"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultSlot 私钥存储的固定位置
const DefaultSlot = "privateKey"

// SignedTransaction 签名后的原始交易
type SignedTransaction struct {
	Raw  []byte
	Hash common.Hash
}

// KeyStore 负责私钥的生成、导入、持久化和签名
type KeyStore struct {
	db         db.Database
	slot       string
	passphrase string
	scryptN    int
	scryptP    int
}

type KeyStoreOption func(*KeyStore)

// WithPassphrase 私钥以 Web3 Secret Storage 格式加密存储
// light 为 true 时使用较低的 scrypt 参数
func WithPassphrase(passphrase string, light bool) KeyStoreOption {
	return func(ks *KeyStore) {
		ks.passphrase = passphrase
		if light {
			ks.scryptN, ks.scryptP = keystore.LightScryptN, keystore.LightScryptP
		}
	}
}

func NewKeyStore(database db.Database, slot string, opts ...KeyStoreOption) *KeyStore {
	if slot == "" {
		slot = DefaultSlot
	}
	ks := &KeyStore{
		db:      database,
		slot:    slot,
		scryptN: keystore.StandardScryptN,
		scryptP: keystore.StandardScryptP,
	}
	for _, opt := range opts {
		opt(ks)
	}
	return ks
}

// Encrypted 是否加密存储
func (ks *KeyStore) Encrypted() bool {
	return ks.passphrase != ""
}

// CheckPassphrase 常量时间比较
func (ks *KeyStore) CheckPassphrase(passphrase string) bool {
	if !ks.Encrypted() || passphrase == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(passphrase), []byte(ks.passphrase)) == 1
}

// Slot 存储位置名称
func (ks *KeyStore) Slot() string {
	return ks.slot
}

// CreateWallet 生成新的私钥并写入存储
func (ks *KeyStore) CreateWallet() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return ks.store(privateKey)
}

// ImportWallet 从十六进制私钥导入
func (ks *KeyStore) ImportWallet(hexKey string) (*Wallet, error) {
	privateKey, err := parseHexKey(hexKey)
	if err != nil {
		return nil, err
	}
	return ks.store(privateKey)
}

// Load 读取已存储的私钥，没有存储时返回 nil, nil
func (ks *KeyStore) Load() (*Wallet, error) {
	stored, err := ks.db.Get(ks.slot)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read slot %s", ks.slot)
	}
	privateKey, err := ks.decode(stored)
	if err != nil {
		return nil, err
	}
	return newWallet(privateKey), nil
}

// Clear 删除存储的私钥
func (ks *KeyStore) Clear() error {
	if err := ks.db.Delete(ks.slot); err != nil {
		return errors.Wrapf(err, "delete slot %s", ks.slot)
	}
	return nil
}

// Sign EIP-155 签名
func (ks *KeyStore) Sign(w *Wallet, req *types.TransactionRequest) (*SignedTransaction, error) {
	if w == nil || req == nil {
		return nil, invalidRequest("nothing to sign")
	}
	if req.From != w.address {
		return nil, invalidRequest("request sender %s does not match wallet %s", req.From.Hex(), w.address.Hex())
	}
	to := req.To
	tx := ethTypes.NewTx(&ethTypes.LegacyTx{
		Nonce:    req.Nonce,
		GasPrice: req.GasPrice,
		Gas:      req.GasLimit,
		To:       &to,
		Value:    req.ValueWei,
	})
	signTx, err := ethTypes.SignTx(tx, ethTypes.NewEIP155Signer(req.ChainID), w.privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}
	raw, err := signTx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "encode transaction")
	}
	return &SignedTransaction{Raw: raw, Hash: signTx.Hash()}, nil
}

func (ks *KeyStore) store(privateKey *ecdsa.PrivateKey) (*Wallet, error) {
	exists, err := ks.db.Has(ks.slot)
	if err != nil {
		return nil, errors.Wrapf(err, "check slot %s", ks.slot)
	}
	if exists {
		return nil, invalidRequest("a wallet is already stored in slot %q, clear the session first", ks.slot)
	}
	wallet := newWallet(privateKey)
	encoded, err := ks.encode(wallet)
	if err != nil {
		return nil, err
	}
	if err := ks.db.Put(ks.slot, encoded); err != nil {
		return nil, errors.Wrapf(err, "write slot %s", ks.slot)
	}
	if !ks.Encrypted() {
		log.Warn().Str("slot", ks.slot).Msg("private key stored unencrypted, configure a keystore passphrase")
	}
	return wallet, nil
}

func (ks *KeyStore) encode(w *Wallet) (string, error) {
	if !ks.Encrypted() {
		return hexutil.Encode(crypto.FromECDSA(w.privateKey)), nil
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generate key id")
	}
	keyJSON, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    w.address,
		PrivateKey: w.privateKey,
	}, ks.passphrase, ks.scryptN, ks.scryptP)
	if err != nil {
		return "", errors.Wrap(err, "encrypt key")
	}
	return string(keyJSON), nil
}

func (ks *KeyStore) decode(stored string) (*ecdsa.PrivateKey, error) {
	stored = strings.TrimSpace(stored)
	if !strings.HasPrefix(stored, "{") {
		return parseHexKey(stored)
	}
	if !ks.Encrypted() {
		return nil, invalidKey("stored key is encrypted and no passphrase is configured", nil)
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal([]byte(stored), &header); err != nil {
		return nil, invalidKey("malformed encrypted key document", err)
	}
	key, err := keystore.DecryptKey([]byte(stored), ks.passphrase)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, invalidKey("could not decrypt stored key, wrong passphrase", err)
	}
	if err != nil {
		return nil, invalidKey("malformed encrypted key document", err)
	}
	if header.Address != "" && common.HexToAddress(header.Address) != key.Address {
		return nil, invalidKey("stored address does not match the decrypted key", nil)
	}
	return key.PrivateKey, nil
}

func parseHexKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	if len(hexKey) != 64 {
		return nil, invalidKey("private key must be 32 bytes of hex", nil)
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, invalidKey("not a valid secp256k1 private key", err)
	}
	return privateKey, nil
}
