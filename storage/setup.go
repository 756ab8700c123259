// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	TxList           *PoolHandle `prefix:"T"`
	TradeList        *PoolHandle `prefix:"M"`
	StoList          *PoolHandle `prefix:"S"`
	Properties       *PoolHandle `prefix:"P"`
	PropertyHistory  *PoolHandle `prefix:"Q"`
	PropertyTxIndex  *PoolHandle `prefix:"L"`
	UniqueFlags      *PoolHandle `prefix:"U"`
	NFTRanges        *PoolHandle `prefix:"N"`
	NFTRollback      *PoolHandle `prefix:"R"`
	FeeCache         *PoolHandle `prefix:"F"`
	FeeHistory       *PoolHandle `prefix:"G"`
	Activations      *PoolHandle `prefix:"V"`
	Alerts           *PoolHandle `prefix:"W"`
	TestData         *PoolHandle `prefix:"Z"`
}

// Pool - the set of exported pools
var Pool pools

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

// bump this if any pool prefix or key layout changes
// a mismatch on startup wipes the database and forces a rescan
const currentDBVersion = 8

// holds the database handle
var poolData struct {
	sync.RWMutex
	db *leveldb.DB
}

// Initialise - open up the database connection
//
// this must be called before any pool is accessed
//
// returns true if the database was erased: either the caller requested
// a clean start or the version did not match, in both cases the chain
// must be rescanned from the first protocol block
func Initialise(database string, startClean bool) (bool, error) {
	poolData.Lock()
	defer poolData.Unlock()

	if nil != poolData.db {
		return false, fault.AlreadyInitialised
	}

	erased := false

	if startClean {
		if err := os.RemoveAll(database); nil != err {
			return false, err
		}
		erased = true
	}

	db, version, err := getDB(database)
	if nil != err {
		return false, err
	}

	if 0 != version && currentDBVersion != version {
		logger.Criticalf("database version: %d ≠ current version: %d — rebuilding", version, currentDBVersion)
		db.Close()
		if err := os.RemoveAll(database); nil != err {
			return false, err
		}
		db, version, err = getDB(database)
		if nil != err {
			return false, err
		}
		erased = true
	}

	if 0 == version {
		if err := putVersion(db, currentDBVersion); nil != err {
			db.Close()
			return false, err
		}
	}

	poolData.db = db

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return erased, fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix: prefix,
			limit:  limit,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	return erased, nil
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	if nil != poolData.db {
		poolData.db.Close()
		poolData.db = nil
	}
	poolData.Unlock()
}

// IsInitialised - check the database is open
func IsInitialised() bool {
	poolData.RLock()
	defer poolData.RUnlock()
	return nil != poolData.db
}

// Clear - erase every record in every pool
//
// the version key is preserved so a subsequent restart does not see an
// empty database as a downgrade
func Clear() error {
	poolData.RLock()
	defer poolData.RUnlock()

	if nil == poolData.db {
		return fault.DatabaseIsNotSet
	}

	batch := new(leveldb.Batch)
	iter := poolData.db.NewIterator(&ldb_util.Range{Start: []byte{0x01}, Limit: nil}, nil)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}
	return poolData.db.Write(batch, nil)
}

// return:
//   database handle
//   version number
func getDB(name string) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
