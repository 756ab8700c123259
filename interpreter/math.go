// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"math/bits"
)

// 128 bit intermediate arithmetic for proportional shares
//
// the quotient always fits: the numerator is amount × held with
// held ≤ total, so amount × held / total ≤ amount < 2⁶³

func mul64(a uint64, b uint64) (uint64, uint64) {
	return bits.Mul64(a, b)
}

func div128(hi uint64, lo uint64, divisor uint64) uint64 {
	quotient, _ := bits.Div64(hi, lo, divisor)
	return quotient
}
