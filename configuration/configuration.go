// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - read the Lua configuration file
package configuration

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/fault"
)

// Configuration - the full configuration file contents
type Configuration struct {
	Chain             string   `gluamapper:"chain" json:"chain"`
	DataDirectory     string   `gluamapper:"data_directory" json:"data_directory"`
	SeedBlockFilter   bool     `gluamapper:"seed_block_filter" json:"seed_block_filter"`
	SkipStoringState  bool     `gluamapper:"skip_storing_state" json:"skip_storing_state"`
	ProgressFrequency int      `gluamapper:"progress_frequency" json:"progress_frequency"`
	Debug             []string `gluamapper:"debug" json:"debug"`

	Logging logger.Configuration `gluamapper:"logging" json:"logging"`
}

// the closed set of recognised debug categories
var debugCategories = map[string]struct{}{
	"parser":      {},
	"interpreter": {},
	"metadex":     {},
	"nft":         {},
	"fees":        {},
	"blockchain":  {},
	"all":         {},
	"none":        {},
}

// ValidDebugCategory - check one -debug argument
func ValidDebugCategory(category string) bool {
	_, ok := debugCategories[category]
	return ok
}

// GetConfiguration - read and validate a configuration file
func GetConfiguration(fileName string) (*Configuration, error) {

	options := &Configuration{
		Chain:             chain.Bitcoin,
		SeedBlockFilter:   true,
		ProgressFrequency: 30,
	}

	if err := ParseConfigurationFile(fileName, options); nil != err {
		return nil, err
	}

	if !chain.Valid(options.Chain) {
		return nil, fault.InvalidChain
	}
	if "" == options.DataDirectory {
		options.DataDirectory = filepath.Dir(fileName)
	}
	if info, err := os.Stat(options.DataDirectory); nil != err || !info.IsDir() {
		return nil, fault.ConfigDirectoryPath
	}
	for _, category := range options.Debug {
		if !ValidDebugCategory(category) {
			return nil, fault.InvalidDebugCategory
		}
	}

	// fill in logging defaults the way the daemon expects them
	if "" == options.Logging.Directory {
		options.Logging.Directory = filepath.Join(options.DataDirectory, "log")
	}
	if "" == options.Logging.File {
		options.Logging.File = "metalayerd.log"
	}
	if 0 == options.Logging.Size {
		options.Logging.Size = 1048576
	}
	if 0 == options.Logging.Count {
		options.Logging.Count = 10
	}
	if nil == options.Logging.Levels {
		options.Logging.Levels = map[string]string{logger.DefaultTag: "info"}
	}

	return options, nil
}
