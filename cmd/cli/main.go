// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2021-2022 AdTech Data Ops Ltd. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/adtech-devops/cm360-relay/cmd"
)

const (
	appUsage     = "Relays conversion envelopes from stdin to the CM360 batch insert API"
	appCopyright = "(c) 2021-2022 AdTech Data Ops Ltd"
)

func main() {
	app := cli.NewApp()
	app.Name = cmd.AppName
	app.Usage = appUsage
	app.Version = cmd.AppVersion
	app.Copyright = appCopyright
	app.Compiled = time.Now()

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "base64",
			Usage: "treat each input line as base64 encoded, as delivered by Pub/Sub",
		},
	}

	app.Action = func(c *cli.Context) error {
		ctx := context.Background()

		cfg, _, err := cmd.Init()
		if err != nil {
			return err
		}

		sr, err := cfg.GetStatsReceiver()
		if err != nil {
			return err
		}
		if sr != nil {
			defer sr.Close()
		}

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			data := []byte(scanner.Text())
			if c.Bool("base64") {
				data, err = base64.StdEncoding.DecodeString(scanner.Text())
				if err != nil {
					log.Error(err)
					continue
				}
			}

			result, err := cmd.Process(ctx, cfg.Timezone, cfg.GetUploader, data)
			if err != nil {
				log.Error(err)
				continue
			}
			if sr != nil {
				sr.Send(result)
			}
		}

		if scanner.Err() != nil {
			log.Error(scanner.Err())
			return scanner.Err()
		}
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
