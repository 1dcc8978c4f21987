package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "ethwallet"
	app.Usage = "single account Ethereum wallet"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "conf, c",
			Value: "config/config-example.yml",
			Usage: "配置文件路径",
		},
		cli.BoolFlag{
			Name:  "swag, s",
			Usage: "开启 swagger 文档 /swagger/index.html",
		},
	}
	app.Action = serve
	app.Commands = commands()

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("ethwallet exited")
	}
}
