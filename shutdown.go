// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"sync/atomic"
)

// polled by the pipeline at transaction boundaries
var shutdownFlag uint32

func requestShutdown() {
	atomic.StoreUint32(&shutdownFlag, 1)
}

func shutdownRequested() bool {
	return 1 == atomic.LoadUint32(&shutdownFlag)
}
