// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

// ActivationRecord - one scheduled feature activation, persisted so
// that a restart re-arms pending features
type ActivationRecord struct {
	FeatureId        uint16 `json:"featureId"`
	LiveBlock        uint32 `json:"liveBlock"`
	MinClientVersion uint32 `json:"minClientVersion"`
	Block            uint32 `json:"block"` // where it was scheduled
	Active           bool   `json:"active"`
}

// AlertRecord - one stored alert
type AlertRecord struct {
	Sender      string `json:"sender"`
	AlertType   uint16 `json:"alertType"`
	ExpiryBlock uint32 `json:"expiryBlock"`
	Text        string `json:"text"`
	Block       uint32 `json:"block"`
}

func activationKey(featureId uint16) []byte {
	return []byte{byte(featureId >> 8), byte(featureId)}
}

// the alert sender address doubles as the key: one alert per source
func alertKey(sender string) []byte {
	return []byte(sender)
}

// authorised sender for activations and alerts: the exodus address,
// subject to the operator overrides
func adminSenderAllowed(sender string) bool {
	if globalData.options.ActivationIgnoreSenders {
		return false
	}
	if globalData.options.ActivationAllowAnySender {
		return true
	}
	return sender == globalData.params.ExodusAddress
}

// doActivation - type 65534
func doActivation(meta *parser.MetaTransaction, tx *metatx.Activation) protocol.Reason {
	if !adminSenderAllowed(meta.Sender) {
		return protocol.ReasonUnauthorised
	}
	if tx.ActivationBlock <= meta.Block {
		return protocol.ReasonInvalidAmount
	}

	record := &ActivationRecord{
		FeatureId:        tx.FeatureId,
		LiveBlock:        tx.ActivationBlock,
		MinClientVersion: tx.MinClientVersion,
		Block:            meta.Block,
	}
	data, _ := json.Marshal(record)
	storage.Pool.Activations.Put(activationKey(tx.FeatureId), data)

	globalData.log.Infof("feature %d scheduled to activate at block %d", tx.FeatureId, tx.ActivationBlock)
	return protocol.ReasonValid
}

// doDeactivation - type 65533
func doDeactivation(meta *parser.MetaTransaction, tx *metatx.Deactivation) protocol.Reason {
	if !adminSenderAllowed(meta.Sender) {
		return protocol.ReasonUnauthorised
	}

	key := activationKey(tx.FeatureId)
	if !storage.Pool.Activations.Has(key) {
		return protocol.ReasonNotYetActive
	}
	storage.Pool.Activations.Delete(key)

	globalData.log.Infof("feature %d deactivated", tx.FeatureId)
	return protocol.ReasonValid
}

// doAlert - type 65535
func doAlert(meta *parser.MetaTransaction, tx *metatx.Alert) protocol.Reason {
	if !adminSenderAllowed(meta.Sender) {
		return protocol.ReasonUnauthorised
	}

	record := &AlertRecord{
		Sender:      meta.Sender,
		AlertType:   tx.AlertType,
		ExpiryBlock: tx.ExpiryValue,
		Text:        tx.Text,
		Block:       meta.Block,
	}
	data, _ := json.Marshal(record)
	storage.Pool.Alerts.Put(alertKey(meta.Sender), data)

	globalData.log.Warnf("alert: %s", tx.Text)
	return protocol.ReasonValid
}

// ApplyPendingActivations - block begin: mark features whose live
// block arrived
func ApplyPendingActivations(block uint32) {
	type pending struct {
		key    []byte
		record ActivationRecord
	}
	updates := []pending(nil)

	_ = storage.Pool.Activations.NewFetchCursor().Map(func(key []byte, value []byte) error {
		record := ActivationRecord{}
		if err := json.Unmarshal(value, &record); nil != err {
			return nil
		}
		if !record.Active && record.LiveBlock <= block {
			record.Active = true
			updates = append(updates, pending{key: append([]byte(nil), key...), record: record})
		}
		return nil
	})

	for _, u := range updates {
		data, _ := json.Marshal(&u.record)
		storage.Pool.Activations.Put(u.key, data)
		globalData.log.Infof("feature %d live at block %d", u.record.FeatureId, block)
	}
}

// IsFeatureActive - query a feature gate
func IsFeatureActive(featureId uint16, block uint32) bool {
	data := storage.Pool.Activations.Get(activationKey(featureId))
	if nil == data {
		return false
	}
	record := ActivationRecord{}
	if err := json.Unmarshal(data, &record); nil != err {
		return false
	}
	return record.LiveBlock <= block
}

// ExpireAlerts - block end: drop alerts whose expiry passed
func ExpireAlerts(block uint32) {
	expired := [][]byte(nil)
	_ = storage.Pool.Alerts.NewFetchCursor().Map(func(key []byte, value []byte) error {
		record := AlertRecord{}
		if err := json.Unmarshal(value, &record); nil != err {
			return nil
		}
		if record.ExpiryBlock <= block {
			expired = append(expired, append([]byte(nil), key...))
		}
		return nil
	})
	for _, key := range expired {
		storage.Pool.Alerts.Delete(key)
		globalData.log.Infof("alert expired at block %d", block)
	}
}

// RollbackAdminAbove - reorganisation: drop activations and alerts
// recorded at or above a block
func RollbackAdminAbove(block uint32) {
	drop := [][]byte(nil)
	_ = storage.Pool.Activations.NewFetchCursor().Map(func(key []byte, value []byte) error {
		record := ActivationRecord{}
		if err := json.Unmarshal(value, &record); nil == err && record.Block >= block {
			drop = append(drop, append([]byte(nil), key...))
		}
		return nil
	})
	for _, key := range drop {
		storage.Pool.Activations.Delete(key)
	}

	drop = nil
	_ = storage.Pool.Alerts.NewFetchCursor().Map(func(key []byte, value []byte) error {
		record := AlertRecord{}
		if err := json.Unmarshal(value, &record); nil == err && record.Block >= block {
			drop = append(drop, append([]byte(nil), key...))
		}
		return nil
	})
	for _, key := range drop {
		storage.Pool.Alerts.Delete(key)
	}
}
