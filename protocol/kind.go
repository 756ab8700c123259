// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

// PropertyKind - divisibility class of a property
type PropertyKind uint16

// all property kinds
const (
	KindIndivisible          PropertyKind = 1
	KindDivisible            PropertyKind = 2
	KindNonFungible          PropertyKind = 5
	KindIndivisibleReplacing PropertyKind = 65
	KindDivisibleReplacing   PropertyKind = 66
	KindIndivisibleAppending PropertyKind = 129
	KindDivisibleAppending   PropertyKind = 130
)

// Valid - range check for payload fields
func (k PropertyKind) Valid() bool {
	switch k {
	case KindIndivisible, KindDivisible, KindNonFungible,
		KindIndivisibleReplacing, KindDivisibleReplacing,
		KindIndivisibleAppending, KindDivisibleAppending:
		return true
	default:
		return false
	}
}

// IsDivisible - eight fractional digits
func (k PropertyKind) IsDivisible() bool {
	switch k {
	case KindDivisible, KindDivisibleReplacing, KindDivisibleAppending:
		return true
	default:
		return false
	}
}

// IsNonFungible - range addressable unique tokens
func (k PropertyKind) IsNonFungible() bool {
	return KindNonFungible == k
}

// String - printable kind
func (k PropertyKind) String() string {
	switch k {
	case KindIndivisible:
		return "indivisible"
	case KindDivisible:
		return "divisible"
	case KindNonFungible:
		return "non-fungible"
	case KindIndivisibleReplacing:
		return "indivisible replacing"
	case KindDivisibleReplacing:
		return "divisible replacing"
	case KindIndivisibleAppending:
		return "indivisible appending"
	case KindDivisibleAppending:
		return "divisible appending"
	default:
		return "* unknown kind *"
	}
}
