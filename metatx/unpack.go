// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metatx

import (
	"encoding/binary"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/protocol"
)

// reader - sequential big-endian field decoder over a payload
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) u8() uint8 {
	if nil != r.err {
		return 0
	}
	if r.pos+1 > len(r.data) {
		r.err = fault.TruncatedPayload
		return 0
	}
	v := r.data[r.pos]
	r.pos += 1
	return v
}

func (r *reader) u16() uint16 {
	if nil != r.err {
		return 0
	}
	if r.pos+2 > len(r.data) {
		r.err = fault.TruncatedPayload
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u32() uint32 {
	if nil != r.err {
		return 0
	}
	if r.pos+4 > len(r.data) {
		r.err = fault.TruncatedPayload
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u64() uint64 {
	if nil != r.err {
		return 0
	}
	if r.pos+8 > len(r.data) {
		r.err = fault.TruncatedPayload
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

// amount - a 64 bit field that must fit the 63 bit bound
func (r *reader) amount() protocol.Amount {
	v := r.u64()
	if nil == r.err && v > uint64(protocol.MaxAmount) {
		r.err = fault.OutOfRangeAmount
	}
	return protocol.Amount(v)
}

// str - zero terminated ASCII, clamped to the field limit
func (r *reader) str() string {
	if nil != r.err {
		return ""
	}
	limit := r.pos + protocol.MaxStringFieldLength + 1
	if limit > len(r.data) {
		limit = len(r.data)
	}
	for i := r.pos; i < limit; i += 1 {
		if 0 == r.data[i] {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s
		}
	}
	// an unterminated final field is taken to the clamp, matching the
	// forgiving decoder of the original encoding
	s := string(r.data[r.pos:limit])
	r.pos = limit
	return s
}

// rest - every remaining byte
func (r *reader) rest() []byte {
	if nil != r.err {
		return nil
	}
	v := make([]byte, len(r.data)-r.pos)
	copy(v, r.data[r.pos:])
	r.pos = len(r.data)
	return v
}

func (r *reader) propertyInfo() PropertyInfo {
	info := PropertyInfo{}
	info.Ecosystem = protocol.Ecosystem(r.u8())
	info.Kind = protocol.PropertyKind(r.u16())
	info.PreviousId = protocol.PropertyId(r.u32())
	info.Category = r.str()
	info.Subcategory = r.str()
	info.Name = r.str()
	info.URL = r.str()
	info.Data = r.str()
	return info
}

// Unpack - decode a payload into its typed record
//
// the leading version and type select the record; unknown types and
// versions fail so that they can be recorded as invalid with the
// right reason
func (p Packed) Unpack() (Record, error) {
	r := &reader{data: p}

	version := r.u16()
	txType := protocol.TxType(r.u16())
	if nil != r.err {
		return nil, r.err
	}

	h := header{Version: version}

	var record Record

	switch txType {

	case protocol.TxSimpleSend:
		tx := &SimpleSend{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = r.amount()
		record = tx

	case protocol.TxSendToOwners:
		tx := &SendToOwners{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = r.amount()
		tx.DistributionProperty = tx.PropertyId
		if version >= protocol.VersionOne {
			tx.DistributionProperty = protocol.PropertyId(r.u32())
		}
		record = tx

	case protocol.TxSendAll:
		tx := &SendAll{header: h}
		tx.Ecosystem = protocol.Ecosystem(r.u8())
		record = tx

	case protocol.TxSendNonFungible:
		tx := &SendNonFungible{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.TokenStart = r.amount()
		tx.TokenEnd = r.amount()
		record = tx

	case protocol.TxSendToMany:
		tx := &SendToMany{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		count := r.u8()
		for i := uint8(0); i < count; i += 1 {
			out := SendToManyOutput{}
			out.OutputIndex = r.u8()
			out.Amount = r.amount()
			tx.Outputs = append(tx.Outputs, out)
		}
		record = tx

	case protocol.TxTradeOffer:
		tx := &TradeOffer{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = r.amount()
		tx.AmountDesired = r.amount()
		tx.PaymentWindow = r.u8()
		tx.MinAcceptFee = r.amount()
		tx.SubAction = 1
		if version >= protocol.VersionOne {
			tx.SubAction = r.u8()
		}
		record = tx

	case protocol.TxAcceptOffer:
		tx := &AcceptOffer{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = r.amount()
		record = tx

	case protocol.TxMetaDExTrade:
		tx := &MetaDExTrade{header: h}
		tx.PropertyForSale = protocol.PropertyId(r.u32())
		tx.AmountForSale = r.amount()
		tx.PropertyDesired = protocol.PropertyId(r.u32())
		tx.AmountDesired = r.amount()
		record = tx

	case protocol.TxMetaDExCancelPrice:
		tx := &MetaDExCancelPrice{header: h}
		tx.PropertyForSale = protocol.PropertyId(r.u32())
		tx.AmountForSale = r.amount()
		tx.PropertyDesired = protocol.PropertyId(r.u32())
		tx.AmountDesired = r.amount()
		record = tx

	case protocol.TxMetaDExCancelPair:
		tx := &MetaDExCancelPair{header: h}
		tx.PropertyForSale = protocol.PropertyId(r.u32())
		tx.PropertyDesired = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxMetaDExCancelEco:
		tx := &MetaDExCancelEcosystem{header: h}
		tx.Ecosystem = protocol.Ecosystem(r.u8())
		record = tx

	case protocol.TxCreateFixed:
		tx := &CreatePropertyFixed{header: h}
		tx.PropertyInfo = r.propertyInfo()
		tx.Amount = r.amount()
		record = tx

	case protocol.TxCreateCrowdsale:
		tx := &CreatePropertyVariable{header: h}
		tx.PropertyInfo = r.propertyInfo()
		tx.PropertyDesired = protocol.PropertyId(r.u32())
		tx.TokensPerUnit = r.amount()
		tx.Deadline = int64(r.u64())
		tx.EarlyBirdBonus = r.u8()
		tx.IssuerPercentage = r.u8()
		record = tx

	case protocol.TxCloseCrowdsale:
		tx := &CloseCrowdsale{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxCreateManaged:
		tx := &CreatePropertyManaged{header: h}
		tx.PropertyInfo = r.propertyInfo()
		record = tx

	case protocol.TxGrantTokens:
		tx := &GrantTokens{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = r.amount()
		if r.pos < len(r.data) {
			tx.GrantData = r.str()
		}
		record = tx

	case protocol.TxRevokeTokens:
		tx := &RevokeTokens{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = r.amount()
		if r.pos < len(r.data) {
			tx.Memo = r.str()
		}
		record = tx

	case protocol.TxChangeIssuer:
		tx := &ChangeIssuer{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxEnableFreezing:
		tx := &EnableFreezing{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxDisableFreezing:
		tx := &DisableFreezing{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxAddDelegate:
		tx := &AddDelegate{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxRemoveDelegate:
		tx := &RemoveDelegate{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		record = tx

	case protocol.TxFreezeTokens:
		tx := &FreezeTokens{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = protocol.Amount(r.u64())
		tx.Address = r.str()
		record = tx

	case protocol.TxUnfreezeTokens:
		tx := &UnfreezeTokens{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.Amount = protocol.Amount(r.u64())
		tx.Address = r.str()
		record = tx

	case protocol.TxAnyData:
		tx := &AnyData{header: h}
		tx.Data = r.rest()
		record = tx

	case protocol.TxNonFungibleData:
		tx := &SetNonFungibleData{header: h}
		tx.PropertyId = protocol.PropertyId(r.u32())
		tx.TokenStart = r.amount()
		tx.TokenEnd = r.amount()
		tx.IssuerData = 0 != r.u8()
		tx.Data = r.str()
		record = tx

	case protocol.TxDeactivation:
		tx := &Deactivation{header: h}
		tx.FeatureId = r.u16()
		record = tx

	case protocol.TxActivation:
		tx := &Activation{header: h}
		tx.FeatureId = r.u16()
		tx.ActivationBlock = r.u32()
		tx.MinClientVersion = r.u32()
		record = tx

	case protocol.TxAlert:
		tx := &Alert{header: h}
		tx.AlertType = r.u16()
		tx.ExpiryValue = r.u32()
		tx.Text = r.str()
		record = tx

	default:
		return nil, fault.UnknownTransactionType
	}

	if nil != r.err {
		return nil, r.err
	}
	return record, nil
}
