// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/bitmark-inc/metalayerd/protocol"
)

// OwnerChange - one historical issuer or delegate change
//
// Block/Index order the change within the chain; Address is the value
// in effect from that point on
type OwnerChange struct {
	Block   uint32 `json:"block"`
	Index   uint32 `json:"index"`
	Address string `json:"address"`
}

// Entry - everything recorded about one property
//
// the registry keeps the current entry plus historical copies keyed by
// the block that superseded them
type Entry struct {
	Issuer          string        `json:"issuer"`
	IssuerHistory   []OwnerChange `json:"issuerHistory,omitempty"`
	Delegate        string        `json:"delegate,omitempty"`
	DelegateHistory []OwnerChange `json:"delegateHistory,omitempty"`

	Kind        protocol.PropertyKind `json:"kind"`
	Name        string                `json:"name"`
	Category    string                `json:"category,omitempty"`
	Subcategory string                `json:"subcategory,omitempty"`
	URL         string                `json:"url,omitempty"`
	Data        string                `json:"data,omitempty"`

	// crowdsale parameters, only meaningful while Fixed and Manual
	// are both false
	PropertyDesired  protocol.PropertyId `json:"propertyDesired,omitempty"`
	TokensPerUnit    protocol.Amount     `json:"tokensPerUnit,omitempty"`
	Deadline         int64               `json:"deadline,omitempty"`
	EarlyBirdBonus   uint8               `json:"earlyBirdBonus,omitempty"`
	IssuerPercentage uint8               `json:"issuerPercentage,omitempty"`

	Fixed  bool `json:"fixed"`
	Manual bool `json:"manual"`
	Unique bool `json:"unique"`

	NumTokens    protocol.Amount `json:"numTokens"`
	MissedTokens protocol.Amount `json:"missedTokens,omitempty"`

	CreationTx    string `json:"creationTx"` // hex transaction id
	CreationBlock uint32 `json:"creationBlock"`
	UpdateBlock   uint32 `json:"updateBlock"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pack - serialise an entry for storage
func (entry *Entry) Pack() []byte {
	data, err := json.Marshal(entry)
	if nil != err {
		// entries contain no unmarshalable types
		panic("property: entry pack failed: " + err.Error())
	}
	return data
}

// Unpack - deserialise a stored entry
func Unpack(data []byte) (*Entry, error) {
	entry := &Entry{}
	if err := json.Unmarshal(data, entry); nil != err {
		return nil, err
	}
	return entry, nil
}

// IssuerAt - the issuer as of a block
//
// the greatest history element with block ≤ the requested block wins;
// with no such element the current issuer applies
func (entry *Entry) IssuerAt(block uint32) string {
	issuer := entry.Issuer
	for i := len(entry.IssuerHistory) - 1; i >= 0; i -= 1 {
		if entry.IssuerHistory[i].Block <= block {
			issuer = entry.IssuerHistory[i].Address
			break
		}
	}
	return issuer
}

// DelegateAt - the delegate as of a block, same rule as IssuerAt
func (entry *Entry) DelegateAt(block uint32) string {
	delegate := entry.Delegate
	for i := len(entry.DelegateHistory) - 1; i >= 0; i -= 1 {
		if entry.DelegateHistory[i].Block <= block {
			delegate = entry.DelegateHistory[i].Address
			break
		}
	}
	return delegate
}

// RecordIssuerChange - append to the issuer history and set the new
// current issuer
func (entry *Entry) RecordIssuerChange(block uint32, index uint32, newIssuer string) {
	entry.IssuerHistory = append(entry.IssuerHistory, OwnerChange{
		Block:   block,
		Index:   index,
		Address: newIssuer,
	})
	entry.Issuer = newIssuer
}

// RecordDelegateChange - append to the delegate history and set the
// new current delegate; empty address removes the delegate
func (entry *Entry) RecordDelegateChange(block uint32, index uint32, newDelegate string) {
	entry.DelegateHistory = append(entry.DelegateHistory, OwnerChange{
		Block:   block,
		Index:   index,
		Address: newDelegate,
	})
	entry.Delegate = newDelegate
}
