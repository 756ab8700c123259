// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

// set by the linker in release builds:
//   go build -ldflags "-X main.version=…"
var version = "0.1.0"
