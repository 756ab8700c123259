// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintains a single LevelDB database containing a number of pools,
// each pool being distinguished by a one byte prefix on its keys
//
// keys are constructed so that the natural byte-wise ordering of the
// underlying store yields the logical ordering required by a pool:
// big-endian fixed width integers sort ascending, their bitwise
// complements sort descending and varints keep short keys compact
//
// ephemeral data is not stored here: only state that must survive a
// restart or be rolled back over a chain reorganisation
package storage
