// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metatx

import (
	"encoding/binary"

	"github.com/bitmark-inc/metalayerd/protocol"
)

// writer - sequential big-endian field encoder
type writer struct {
	data []byte
}

func (w *writer) u8(v uint8) {
	w.data = append(w.data, v)
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.data = append(w.data, b[:]...)
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.data = append(w.data, b[:]...)
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.data = append(w.data, b[:]...)
}

func (w *writer) str(s string) {
	if len(s) > protocol.MaxStringFieldLength {
		s = s[:protocol.MaxStringFieldLength]
	}
	w.data = append(w.data, s...)
	w.data = append(w.data, 0)
}

func (w *writer) propertyInfo(info PropertyInfo) {
	w.u8(uint8(info.Ecosystem))
	w.u16(uint16(info.Kind))
	w.u32(uint32(info.PreviousId))
	w.str(info.Category)
	w.str(info.Subcategory)
	w.str(info.Name)
	w.str(info.URL)
	w.str(info.Data)
}

// Pack - serialise a record to its wire payload
//
// the exact inverse of Unpack for every record type; unknown concrete
// types panic as they cannot occur outside a coding error
func Pack(record Record) Packed {
	w := &writer{}
	w.u16(record.TxVersion())
	w.u16(uint16(record.TxType()))

	switch tx := record.(type) {

	case *SimpleSend:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))

	case *SendToOwners:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))
		if tx.TxVersion() >= protocol.VersionOne {
			w.u32(uint32(tx.DistributionProperty))
		}

	case *SendAll:
		w.u8(uint8(tx.Ecosystem))

	case *SendNonFungible:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.TokenStart))
		w.u64(uint64(tx.TokenEnd))

	case *SendToMany:
		w.u32(uint32(tx.PropertyId))
		w.u8(uint8(len(tx.Outputs)))
		for _, out := range tx.Outputs {
			w.u8(out.OutputIndex)
			w.u64(uint64(out.Amount))
		}

	case *TradeOffer:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))
		w.u64(uint64(tx.AmountDesired))
		w.u8(tx.PaymentWindow)
		w.u64(uint64(tx.MinAcceptFee))
		if tx.TxVersion() >= protocol.VersionOne {
			w.u8(tx.SubAction)
		}

	case *AcceptOffer:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))

	case *MetaDExTrade:
		w.u32(uint32(tx.PropertyForSale))
		w.u64(uint64(tx.AmountForSale))
		w.u32(uint32(tx.PropertyDesired))
		w.u64(uint64(tx.AmountDesired))

	case *MetaDExCancelPrice:
		w.u32(uint32(tx.PropertyForSale))
		w.u64(uint64(tx.AmountForSale))
		w.u32(uint32(tx.PropertyDesired))
		w.u64(uint64(tx.AmountDesired))

	case *MetaDExCancelPair:
		w.u32(uint32(tx.PropertyForSale))
		w.u32(uint32(tx.PropertyDesired))

	case *MetaDExCancelEcosystem:
		w.u8(uint8(tx.Ecosystem))

	case *CreatePropertyFixed:
		w.propertyInfo(tx.PropertyInfo)
		w.u64(uint64(tx.Amount))

	case *CreatePropertyVariable:
		w.propertyInfo(tx.PropertyInfo)
		w.u32(uint32(tx.PropertyDesired))
		w.u64(uint64(tx.TokensPerUnit))
		w.u64(uint64(tx.Deadline))
		w.u8(tx.EarlyBirdBonus)
		w.u8(tx.IssuerPercentage)

	case *CloseCrowdsale:
		w.u32(uint32(tx.PropertyId))

	case *CreatePropertyManaged:
		w.propertyInfo(tx.PropertyInfo)

	case *GrantTokens:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))
		if "" != tx.GrantData {
			w.str(tx.GrantData)
		}

	case *RevokeTokens:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))
		if "" != tx.Memo {
			w.str(tx.Memo)
		}

	case *ChangeIssuer:
		w.u32(uint32(tx.PropertyId))

	case *EnableFreezing:
		w.u32(uint32(tx.PropertyId))

	case *DisableFreezing:
		w.u32(uint32(tx.PropertyId))

	case *AddDelegate:
		w.u32(uint32(tx.PropertyId))

	case *RemoveDelegate:
		w.u32(uint32(tx.PropertyId))

	case *FreezeTokens:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))
		w.str(tx.Address)

	case *UnfreezeTokens:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.Amount))
		w.str(tx.Address)

	case *AnyData:
		w.data = append(w.data, tx.Data...)

	case *SetNonFungibleData:
		w.u32(uint32(tx.PropertyId))
		w.u64(uint64(tx.TokenStart))
		w.u64(uint64(tx.TokenEnd))
		if tx.IssuerData {
			w.u8(1)
		} else {
			w.u8(0)
		}
		w.str(tx.Data)

	case *Deactivation:
		w.u16(tx.FeatureId)

	case *Activation:
		w.u16(tx.FeatureId)
		w.u32(tx.ActivationBlock)
		w.u32(tx.MinClientVersion)

	case *Alert:
		w.u16(tx.AlertType)
		w.u32(tx.ExpiryValue)
		w.str(tx.Text)

	default:
		panic("metatx: pack of unknown record type")
	}

	return Packed(w.data)
}
