package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lmxdawn/ethwallet/config"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/lmxdawn/ethwallet/logger"
	"github.com/lmxdawn/ethwallet/server"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "serve",
			Usage:  "启动 http 服务",
			Action: serve,
		},
		{
			Name:   "create",
			Usage:  "创建钱包",
			Action: withEngine(create),
		},
		{
			Name:      "import",
			Usage:     "导入私钥，不传参数时从终端读取",
			ArgsUsage: "[privateKey]",
			Action:    withEngine(importKey),
		},
		{
			Name:   "show",
			Usage:  "显示地址和余额",
			Action: withEngine(show),
		},
		{
			Name:  "send",
			Usage: "发起一笔转账",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "to", Usage: "接收地址"},
				cli.StringFlag{Name: "amount", Usage: "数量，单位 ETH"},
			},
			Action: withEngine(send),
		},
		{
			Name:   "history",
			Usage:  "本地交易记录",
			Action: withEngine(history),
		},
		{
			Name:   "status",
			Usage:  "当前 gasPrice",
			Action: withEngine(status),
		},
		{
			Name:  "reveal",
			Usage: "显示私钥",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "yes", Usage: "确认显示私钥"},
			},
			Action: withEngine(reveal),
		},
		{
			Name:  "clear",
			Usage: "删除本地保存的私钥",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "yes", Usage: "确认删除"},
			},
			Action: withEngine(clearWallet),
		},
	}
}

func serve(c *cli.Context) error {
	return server.Start(c.GlobalBool("swag") || c.Bool("swag"), configPath(c))
}

func configPath(c *cli.Context) string {
	if path := c.GlobalString("conf"); path != "" {
		return path
	}
	return c.String("conf")
}

type engineAction func(ctx context.Context, c *cli.Context, e *engine.Engine) error

// withEngine 加载配置、打开存储并恢复会话
func withEngine(action engineAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		conf, err := loadConfig(configPath(c))
		if err != nil {
			return err
		}
		logger.Init(conf.Log.Level, true)

		ctx := context.Background()
		e, closeEngine, err := server.NewEngine(ctx, conf)
		if err != nil {
			return err
		}
		defer closeEngine()

		// 私钥损坏时仍然允许 clear
		if _, err := e.LoadSession(ctx); err != nil {
			log.Error().Err(err).Msg("load session failed")
		}
		return action(ctx, c, e)
	}
}

func loadConfig(path string) (config.Config, error) {
	conf, err := config.NewConfig(path)
	if err == nil || !conf.Keystore.Encrypt || conf.Keystore.Passphrase != "" {
		return conf, err
	}
	// 只缺口令时从终端读取
	passphrase, perr := readSecret("Enter keystore passphrase: ")
	if perr != nil {
		return conf, perr
	}
	conf.Keystore.Passphrase = passphrase
	return conf, conf.Validate()
}

func readSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "read secret")
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", errors.New("input cannot be empty")
	}
	return secret, nil
}

func create(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	wallet, err := e.CreateWallet(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("address:   %s\npublicKey: %s\n", wallet.Address().Hex(), wallet.PublicKeyHex())
	return nil
}

func importKey(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	key := c.Args().First()
	if key == "" {
		var err error
		if key, err = readSecret("Enter private key: "); err != nil {
			return err
		}
	}
	wallet, err := e.ImportWallet(ctx, key)
	if err != nil {
		return err
	}
	fmt.Printf("address: %s\n", wallet.Address().Hex())
	return nil
}

func show(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	wallet := e.Wallet()
	if wallet == nil {
		fmt.Println("no wallet, run `ethwallet create` or `ethwallet import`")
		return nil
	}
	fmt.Printf("address: %s\n", wallet.Address().Hex())
	balance, err := e.GetBalance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("balance: %s ETH\n", engine.FormatEther(balance.AmountWei))
	return nil
}

func send(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	rec, err := e.SubmitEther(ctx, c.String("to"), c.String("amount"), func(rec types.TransactionRecord) {
		fmt.Printf("%-9s %s\n", rec.Status, rec.Hash.Hex())
	})
	if err != nil {
		var funds *engine.InsufficientFundsError
		if errors.As(err, &funds) && funds.RequiredWei != nil {
			return errors.Errorf("insufficient funds: %s ETH required", engine.FormatEther(funds.RequiredWei))
		}
		return err
	}
	if rec.Balance != nil {
		fmt.Printf("balance: %s ETH\n", engine.FormatEther(rec.Balance.AmountWei))
	}
	return nil
}

func history(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	records, err := e.History()
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%d  %-9s %s  %s -> %s  %s ETH\n",
			rec.Nonce, rec.Status, rec.Hash.Hex(), rec.From.Hex(), rec.To.Hex(), engine.FormatEther(rec.ValueWei))
	}
	return nil
}

func status(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	price, err := e.GasPrice(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("gasPrice: %s wei (submit with %s wei)\n", price, engine.MarkupGasPrice(price))
	return nil
}

func reveal(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	if !c.Bool("yes") {
		return errors.New("pass --yes to print the private key")
	}
	key, err := e.RevealPrivateKey()
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}

func clearWallet(ctx context.Context, c *cli.Context, e *engine.Engine) error {
	if !c.Bool("yes") {
		return errors.New("pass --yes to delete the stored private key")
	}
	return e.ClearSession()
}
