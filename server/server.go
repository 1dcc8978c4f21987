package server

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gin-gonic/gin"
	"github.com/lmxdawn/ethwallet/config"
	"github.com/lmxdawn/ethwallet/db"
	_ "github.com/lmxdawn/ethwallet/docs"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/lmxdawn/ethwallet/logger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Start 启动服务
func Start(isSwag bool, configPath string) error {
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(conf.Log.Level, conf.Log.Pretty)
	if err := InitValidator(); err != nil {
		return err
	}

	ctx := context.Background()
	e, closeEngine, err := NewEngine(ctx, conf)
	if err != nil {
		return err
	}
	defer closeEngine()

	// 启动时恢复上次的钱包
	if _, err := e.LoadSession(ctx); err != nil {
		log.Error().Err(err).Msg("load session failed, clear it with DELETE /session")
	}

	if conf.App.Mode == gin.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	guard := NewExportGuard("")
	if !e.Encrypted() {
		log.Warn().Str("token", guard.Token()).Msg("export token, required by /exportWallet")
	}
	server := NewRouter(e, RouterOptions{
		Swag:         isSwag,
		AllowOrigins: conf.App.AllowOrigins,
		ExportGuard:  guard,
	})

	addr := fmt.Sprintf("%s:%v", conf.App.Host, conf.App.Port)
	log.Info().Msgf("start at %s ", addr)
	if err := server.Run(addr); err != nil {
		return errors.Wrap(err, "start error")
	}
	return nil
}

// RouterOptions 路由参数
type RouterOptions struct {
	Swag         bool
	AllowOrigins []string
	// ExportGuard 为空时随机生成 token
	ExportGuard *ExportGuard
}

// NewRouter 注册所有路由
func NewRouter(e *engine.Engine, opts RouterOptions) *gin.Engine {
	guard := opts.ExportGuard
	if guard == nil {
		guard = NewExportGuard("")
	}

	server := gin.New()
	// 中间件
	server.Use(gin.Logger())
	server.Use(gin.Recovery())
	server.Use(Cors(opts.AllowOrigins))
	server.Use(SetEngine(e))
	server.Use(SetExportGuard(guard))

	server.POST("/createWallet", CreateWallet)
	server.POST("/importWallet", ImportWallet)
	server.GET("/session", GetSession)
	// 私钥损坏时也要能删除，所以不需要会话
	server.DELETE("/session", ClearSession)
	// 获取实时的 gas 费用 链上状态
	server.GET("/getLinkStatus", GetLinkStatus)

	auth := server.Group("/", SessionRequired())
	{
		// 获取账户的余额信息
		auth.GET("/getBalance", GetBalance)
		auth.POST("/transaction", Transaction)
		auth.GET("/ws/transaction", TransactionWs)
		auth.GET("/getHistory", GetHistory)
		auth.POST("/exportWallet", ExportWallet)
		auth.GET("/receive", Receive)
	}

	if opts.Swag {
		server.GET("/swagger/*any", gin.WrapH(httpSwagger.WrapHandler))
	}
	return server
}

// NewEngine 打开存储、连接节点，返回的函数用于释放资源
func NewEngine(ctx context.Context, conf config.Config) (*engine.Engine, func(), error) {
	database, err := OpenStore(ctx, conf.Store)
	if err != nil {
		return nil, nil, err
	}
	worker, err := engine.NewEthWorker(ctx, conf.Node.Rpc)
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	closeAll := func() {
		worker.Close()
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("close store failed")
		}
	}

	chainID := new(big.Int).SetUint64(conf.Node.ChainID)
	if chainID.Sign() == 0 {
		chainID, err = worker.ChainID(ctx)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		log.Info().Str("chainId", chainID.String()).Msg("chain id from node")
	}

	var opts []engine.KeyStoreOption
	if conf.Keystore.Encrypt {
		opts = append(opts, engine.WithPassphrase(conf.Keystore.Passphrase, conf.Keystore.LightScrypt))
	}
	keys := engine.NewKeyStore(database, conf.Keystore.Slot, opts...)

	e := engine.NewEngine(keys, worker, database, engine.Options{
		ChainID: chainID,
		Receipt: engine.ReceiptPolicy{
			Interval:    conf.Submit.Interval(),
			MaxInterval: conf.Submit.MaxInterval(),
			Timeout:     conf.Submit.Timeout(),
		},
		Queue: conf.Submit.Queue,
	})
	return e, closeAll, nil
}

// OpenStore 根据 driver 打开 leveldb 或 redis
func OpenStore(ctx context.Context, conf config.StoreConfig) (db.Database, error) {
	switch conf.Driver {
	case "redis":
		rdb, err := db.NewRedisDB(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB, conf.Prefix)
		if err != nil {
			return nil, err
		}
		return rdb, nil
	case "leveldb", "":
		ldb, err := db.NewKeyDB(conf.File)
		if err != nil {
			return nil, err
		}
		return ldb, nil
	default:
		return nil, errors.Errorf("unknown store driver %q", conf.Driver)
	}
}
