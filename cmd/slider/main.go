// Copyright 2018-2019 The logrange Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jrivets/log4g"
	"github.com/logrange/slider/pkg/series"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v2"
)

const (
	Version = "0.1.0"
)

const (
	// Common flag names
	argLogCfgFile = "log-config-file"
	argCfgFile    = "config-file"

	// Ingest command flag names
	argIngestInput     = "input"
	argIngestSeries    = "series"
	argIngestRows      = "rows"
	argIngestMaxAgeSec = "max-age-sec"
	argIngestMaxSeries = "max-series"
)

var log = log4g.GetLogger("slider")
var cfg = series.GetDefaultConfig()

func main() {
	defer log4g.Shutdown()

	app := &cli.App{
		Name:    "slider",
		Version: Version,
		Usage:   "Sliding window store for time series samples",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  argLogCfgFile,
				Usage: "The log4g configuration file name",
			},
			&cli.StringFlag{
				Name:  argCfgFile,
				Usage: "The store configuration file name (JSON)",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			&cli.Command{
				Name:   "ingest",
				Usage:  "Read logfmt samples and print the aligned series",
				Action: runIngest,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  argIngestInput,
						Usage: "File with logfmt samples, one sample per line. \"-\" means stdin",
						Value: "-",
					},
					&cli.StringSliceFlag{
						Name:  argIngestSeries,
						Usage: "Series to print, all series are printed if not specified",
					},
					&cli.IntFlag{
						Name:  argIngestRows,
						Usage: "Number of the most recent rows to print",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  argIngestMaxAgeSec,
						Usage: "Samples older than the value, in seconds, are pruned",
						Value: cfg.MaxAgeSec,
					},
					&cli.IntFlag{
						Name:  argIngestMaxSeries,
						Usage: "Maximum number of series in the store",
						Value: cfg.MaxSeries,
					},
				},
			},
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.FlagsByName(app.Commands[0].Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
	}
}

func before(c *cli.Context) error {
	logCfgFile := c.String(argLogCfgFile)
	if logCfgFile != "" {
		if _, err := os.Stat(logCfgFile); os.IsNotExist(err) {
			log.Warn("No file ", logCfgFile, " will use default log4g configuration")
		} else {
			log.Info("Loading log4g config from ", logCfgFile)
			err := log4g.ConfigF(logCfgFile)
			if err != nil {
				err := errors.Wrapf(err, "Could not parse %s file as a log4g configuration, please check syntax ", logCfgFile)
				log.Fatal(err)
				return err
			}
		}
	}

	fc, err := series.ReadConfigFromFile(c.String(argCfgFile))
	if err != nil {
		return err
	}
	// overwrite default settings from file
	cfg.Apply(fc)
	return nil
}

func runIngest(c *cli.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigChan:
			log.Info("Got signal \"", s, "\", cancelling context ")
			cancel()
		case <-ctx.Done():
		}
	}()

	applyParamsToCfg(c)
	if err := cfg.Check(); err != nil {
		return errors.Wrapf(err, "wrong configuration")
	}

	in := os.Stdin
	if fn := c.String(argIngestInput); fn != "-" {
		f, err := os.Open(fn)
		if err != nil {
			return errors.Wrapf(err, "could not open input file %s", fn)
		}
		defer f.Close()
		in = f
	}

	ing := newIngestor(in, os.Stdout)
	ing.names = c.StringSlice(argIngestSeries)
	ing.rows = c.Int(argIngestRows)
	return run(ctx, cfg, ing)
}

func applyParamsToCfg(c *cli.Context) {
	dc := series.GetDefaultConfig()
	if mas := c.Int(argIngestMaxAgeSec); dc.MaxAgeSec != mas {
		cfg.MaxAgeSec = mas
	}
	if ms := c.Int(argIngestMaxSeries); dc.MaxSeries != ms {
		cfg.MaxSeries = ms
	}
}
