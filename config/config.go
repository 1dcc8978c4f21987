package config

import (
	"fmt"
	"time"

	"github.com/jinzhu/configor"
	"github.com/pkg/errors"
)

// DefaultPath 未指定配置文件时使用
const DefaultPath = "config/config-example.yml"

// ENVPrefix 环境变量前缀，例如 WALLET_NODE_RPC
const ENVPrefix = "WALLET"

type AppConfig struct {
	Host         string   `yaml:"host" default:"127.0.0.1"` // 默认只监听本机
	Port         uint     `yaml:"port" default:"10009"`
	Mode         string   `yaml:"mode" default:"release"` // debug / release
	AllowOrigins []string `yaml:"allow_origins"`          // 允许跨域访问的来源，默认不允许
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Pretty bool   `yaml:"pretty"`
}

type NodeConfig struct {
	Rpc     string `yaml:"rpc"`      // rpc配置
	ChainID uint64 `yaml:"chain_id"` // 为 0 时启动时向节点查询
}

type StoreConfig struct {
	Driver        string `yaml:"driver" default:"leveldb"` // leveldb / redis
	File          string `yaml:"file" default:"data/wallet"`
	RedisAddr     string `yaml:"redis_addr" default:"127.0.0.1:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Prefix        string `yaml:"prefix" default:"wallet:"` // 仅 redis 使用
}

type KeystoreConfig struct {
	Slot        string `yaml:"slot" default:"privateKey"`
	Encrypt     bool   `yaml:"encrypt"`
	Passphrase  string `yaml:"passphrase"`
	LightScrypt bool   `yaml:"light_scrypt"`
}

type SubmitConfig struct {
	ReceiptInterval    uint `yaml:"receipt_interval" default:"1"`     // 秒
	ReceiptMaxInterval uint `yaml:"receipt_max_interval" default:"8"` // 秒
	ReceiptTimeout     uint `yaml:"receipt_timeout" default:"120"`    // 秒，0 表示广播后立即返回
	Queue              bool `yaml:"queue"`
}

type Config struct {
	App      AppConfig
	Log      LogConfig
	Node     NodeConfig
	Store    StoreConfig
	Keystore KeystoreConfig
	Submit   SubmitConfig
}

func NewConfig(confPath string) (Config, error) {
	var config Config
	if confPath == "" {
		confPath = DefaultPath
	}
	err := configor.New(&configor.Config{ENVPrefix: ENVPrefix}).Load(&config, confPath)
	if err != nil {
		return config, errors.Wrapf(err, "load config %s", confPath)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate 检查必填项和取值范围
func (c Config) Validate() error {
	if c.Node.Rpc == "" {
		return errors.New("node.rpc is required")
	}
	switch c.Store.Driver {
	case "leveldb":
		if c.Store.File == "" {
			return errors.New("store.file is required for the leveldb driver")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Keystore.Encrypt && c.Keystore.Passphrase == "" {
		return errors.New("keystore.passphrase is required when keystore.encrypt is set")
	}
	if c.Submit.ReceiptInterval == 0 {
		return errors.New("submit.receipt_interval must be positive")
	}
	if c.Submit.ReceiptMaxInterval != 0 && c.Submit.ReceiptMaxInterval < c.Submit.ReceiptInterval {
		return errors.New("submit.receipt_max_interval must not be smaller than submit.receipt_interval")
	}
	return nil
}

func (s SubmitConfig) Interval() time.Duration {
	return time.Duration(s.ReceiptInterval) * time.Second
}

func (s SubmitConfig) MaxInterval() time.Duration {
	return time.Duration(s.ReceiptMaxInterval) * time.Second
}

func (s SubmitConfig) Timeout() time.Duration {
	return time.Duration(s.ReceiptTimeout) * time.Second
}
