// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payload

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/metalayerd/fault"
)

// class B packet geometry: every extra public key of a bare multisig
// output carries one packet of a sequence byte plus thirty data bytes
const (
	packetSize     = 31
	packetDataSize = packetSize - 1
	maxPackets     = 255
)

// obfuscationStream - the per-packet XOR masks derived from the
// sender address
//
// the first mask is the SHA-256 of the address string; every further
// mask hashes the upper case hex rendering of the previous digest,
// exactly one mask per packet and applied uniformly
func obfuscationStream(senderAddress string, count int) [][]byte {
	masks := make([][]byte, count)
	seed := senderAddress
	for i := 0; i < count; i += 1 {
		digest := sha256.Sum256([]byte(seed))
		masks[i] = digest[:]
		seed = strings.ToUpper(hex.EncodeToString(digest[:]))
	}
	return masks
}

func xorPacket(packet []byte, mask []byte) {
	for i := range packet {
		packet[i] ^= mask[i]
	}
}

func hasMultisigOutput(tx *wire.MsgTx) bool {
	for _, out := range tx.TxOut {
		if txscript.MultiSigTy == txscript.GetScriptClass(out.PkScript) {
			return true
		}
	}
	return false
}

// extractClassB - reassemble packets from the multisig outputs
//
// packets are taken in output order, deobfuscated, ordered by their
// sequence byte and the payload cut to its sixteen bit size prefix
func extractClassB(tx *wire.MsgTx, senderAddress string) ([]byte, bool) {
	packets := [][]byte(nil)

	for _, out := range tx.TxOut {
		if txscript.MultiSigTy != txscript.GetScriptClass(out.PkScript) {
			continue
		}
		pushes, err := txscript.PushedData(out.PkScript)
		if nil != err || len(pushes) < 2 {
			continue
		}
		// the first key is the redeemable key, every further key is a
		// packet: prefix byte, packet, one padding byte
		for _, key := range pushes[1:] {
			if len(key) != packetSize+2 {
				continue
			}
			packet := make([]byte, packetSize)
			copy(packet, key[1:1+packetSize])
			packets = append(packets, packet)
		}
	}

	if 0 == len(packets) || len(packets) > maxPackets {
		return nil, false
	}

	masks := obfuscationStream(senderAddress, len(packets))

	assembled := make([]byte, len(packets)*packetDataSize)
	seen := make(map[byte]bool)
	for i, packet := range packets {
		xorPacket(packet, masks[i])
		seq := packet[0]
		if seq < 1 || int(seq) > len(packets) || seen[seq] {
			return nil, false
		}
		seen[seq] = true
		copy(assembled[int(seq-1)*packetDataSize:], packet[1:])
	}

	if len(assembled) < 2 {
		return nil, false
	}
	size := int(binary.BigEndian.Uint16(assembled[:2]))
	if size > len(assembled)-2 {
		return nil, false
	}
	return assembled[2 : 2+size], true
}

// EncodeClassB - split a payload into obfuscated packets
//
// returns one 33 byte pseudo public key per packet; the caller embeds
// each as an extra key of a bare multisig output alongside the
// redeemable key
func EncodeClassB(data []byte, senderAddress string) ([][]byte, error) {
	prefixed := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(prefixed, uint16(len(data)))
	copy(prefixed[2:], data)

	count := (len(prefixed) + packetDataSize - 1) / packetDataSize
	if count > maxPackets {
		return nil, fault.PayloadTooLong
	}

	masks := obfuscationStream(senderAddress, count)

	keys := make([][]byte, count)
	for i := 0; i < count; i += 1 {
		packet := make([]byte, packetSize)
		packet[0] = byte(i + 1)
		chunk := prefixed[i*packetDataSize:]
		if len(chunk) > packetDataSize {
			chunk = chunk[:packetDataSize]
		}
		copy(packet[1:], chunk)
		xorPacket(packet, masks[i])

		key := make([]byte, packetSize+2)
		key[0] = 0x02
		copy(key[1:], packet)
		key[packetSize+1] = 0x01 // padding, not part of the packet
		keys[i] = key
	}
	return keys, nil
}
