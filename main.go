// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/metalayerd/blockchain"
	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/configuration"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/interpreter"
	"github.com/bitmark-inc/metalayerd/mode"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/storage"
	"github.com/bitmark-inc/metalayerd/tally"
)

type globalFlags struct {
	config                 string
	startClean             bool
	seedBlockFilter        bool
	skipStoringState       bool
	activationAllowSender  bool
	activationIgnoreSender bool
	overrideForcedShutdown bool
	progressFrequency      int
	debug                  cli.StringSlice
}

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	globals := globalFlags{}

	app := cli.NewApp()
	app.Name = "metalayerd"
	app.Usage = "meta token layer daemon"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Value:       "",
			Usage:       "*configuration file",
			Destination: &globals.config,
		},
		cli.BoolFlag{
			Name:        "startclean",
			Usage:       " wipe all state and rebuild from the first protocol block",
			Destination: &globals.startClean,
		},
		cli.BoolTFlag{
			Name:        "seedblockfilter",
			Usage:       " skip scanning blocks known to carry no protocol tx",
			Destination: &globals.seedBlockFilter,
		},
		cli.BoolFlag{
			Name:        "skipstoringstate",
			Usage:       " store periodic state even below the configured height",
			Destination: &globals.skipStoringState,
		},
		cli.BoolFlag{
			Name:        "activationallowsender",
			Usage:       " accept feature activations from any sender",
			Destination: &globals.activationAllowSender,
		},
		cli.BoolFlag{
			Name:        "activationignoresender",
			Usage:       " ignore all feature activations",
			Destination: &globals.activationIgnoreSender,
		},
		cli.BoolFlag{
			Name:        "overrideforcedshutdown",
			Usage:       " keep persisted state on a fatal inconsistency",
			Destination: &globals.overrideForcedShutdown,
		},
		cli.IntFlag{
			Name:        "progressfrequency",
			Value:       30,
			Usage:       " seconds between progress log lines",
			Destination: &globals.progressFrequency,
		},
		cli.StringSliceFlag{
			Name:  "debug",
			Usage: " enable a debug logging category",
			Value: &globals.debug,
		},
	}
	app.Action = func(c *cli.Context) error {
		run(&globals)
		return nil
	}

	if err := app.Run(os.Args); nil != err {
		exitwithstatus.Message("Error: %s\n", err)
	}
}

func run(globals *globalFlags) {
	if "" == globals.config {
		exitwithstatus.Message("Error: configuration file is required\n")
	}

	options, err := configuration.GetConfiguration(globals.config)
	if nil != err {
		exitwithstatus.Message("Error: configuration: %s\n", err)
	}
	for _, category := range globals.debug {
		if !configuration.ValidDebugCategory(category) {
			exitwithstatus.Message("Error: unknown debug category: %q\n", category)
		}
		options.Debug = append(options.Debug, category)
	}
	applyDebugCategories(options)

	if err := logger.Initialise(options.Logging); nil != err {
		exitwithstatus.Message("Error: logger setup failed: %s\n", err)
	}
	defer logger.Finalise()

	log := logger.New("main")
	log.Infof("metalayerd: %s  chain: %s", version, options.Chain)

	if err := mode.Initialise(options.Chain); nil != err {
		exitwithstatus.Message("Error: mode setup failed: %s\n", err)
	}
	defer mode.Finalise()

	params := chain.Params(options.Chain)

	database := filepath.Join(options.DataDirectory, "state.leveldb")
	erased, err := storage.Initialise(database, globals.startClean)
	if nil != err {
		exitwithstatus.Message("Error: storage setup failed: %s\n", err)
	}
	defer storage.Finalise()
	if erased {
		log.Warn("database was erased: a full rescan will run")
	}

	if err := tally.Initialise(); nil != err {
		exitwithstatus.Message("Error: tally setup failed: %s\n", err)
	}
	defer tally.Finalise()

	if err := property.Initialise(params.ExodusAddress); nil != err {
		exitwithstatus.Message("Error: property setup failed: %s\n", err)
	}
	defer property.Finalise()

	if err := nft.Initialise(); nil != err {
		exitwithstatus.Message("Error: nft setup failed: %s\n", err)
	}
	defer nft.Finalise()

	if err := interpreter.Initialise(params, interpreter.Options{
		ActivationAllowAnySender: globals.activationAllowSender,
		ActivationIgnoreSenders:  globals.activationIgnoreSender,
	}); nil != err {
		exitwithstatus.Message("Error: interpreter setup failed: %s\n", err)
	}
	defer interpreter.Finalise()

	// the embedding host node provides the chain and coin views plus
	// the event feed; the bridge is resolved at link time, the stub
	// here keeps the daemon inert when started standalone
	chains, coins, events := hostBridge(log)

	snapshots := filepath.Join(options.DataDirectory, "snapshots")
	if err := blockchain.Initialise(params, chains, coins, host.Hooks{
		ShutdownRequested: shutdownRequested,
		AbortNode: func(message string) {
			exitwithstatus.Message("Fatal: %s\n", message)
		},
	}, snapshots, chain.IsTestnet(options.Chain), blockchain.Options{
		SeedBlockFilter:        globals.seedBlockFilter && options.SeedBlockFilter,
		SkipStoringGate:        globals.skipStoringState || options.SkipStoringState,
		OverrideForcedShutdown: globals.overrideForcedShutdown,
		ProgressFrequency:      globals.progressFrequency,
	}); nil != err {
		exitwithstatus.Message("Error: blockchain setup failed: %s\n", err)
	}
	defer blockchain.Finalise()

	if !globals.startClean && !erased {
		if height, err := blockchain.RestoreLatest(); nil != err {
			log.Criticalf("snapshot restore failed: %s", err)
			exitwithstatus.Message("Error: snapshot restore failed: %s\n", err)
		} else if height > 0 {
			log.Infof("resuming from snapshot at height %d", height)
		}
	}

	mode.Set(mode.Resynchronise)
	if nil != chains {
		if err := blockchain.InitialScan(); nil != err {
			exitwithstatus.Message("Error: initial scan failed: %s\n", err)
		}
	}
	mode.Set(mode.Normal)

	if nil != events {
		blockchain.Start(events)
		defer blockchain.Stop()
	}

	// wait for a termination request
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	sig := <-ch
	log.Infof("signal: %v — shutting down", sig)
	requestShutdown()
}

// map debug categories onto logger channel levels
func applyDebugCategories(options *configuration.Configuration) {
	for _, category := range options.Debug {
		switch category {
		case "all":
			options.Logging.Levels[logger.DefaultTag] = "debug"
		case "none":
			options.Logging.Levels[logger.DefaultTag] = "error"
		default:
			options.Logging.Levels[category] = "debug"
		}
	}
}

func hostBridge(log *logger.L) (host.ChainView, host.CoinView, <-chan host.Event) {
	log.Warn("no host bridge linked: running inert, state queries only")
	return nil, nil, nil
}
