// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
)

// key field encoders
//
// each appends one field to a key under construction and returns the
// extended slice; the encodings are chosen so that the byte-wise
// ordering of the whole key is the logical ordering of its fields

// AppendUint32 - big-endian, sorts ascending
func AppendUint32(key []byte, n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return append(key, b[:]...)
}

// AppendUint32Desc - complemented big-endian, sorts descending
//
// used for "most recent block first" orderings
func AppendUint32Desc(key []byte, n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], ^n)
	return append(key, b[:]...)
}

// AppendUint64 - big-endian, sorts ascending
func AppendUint64(key []byte, n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return append(key, b[:]...)
}

// AppendUint64Desc - complemented big-endian, sorts descending
func AppendUint64Desc(key []byte, n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], ^n)
	return append(key, b[:]...)
}

// AppendUvarint - compact size field, for counts that do not take part
// in ordering
func AppendUvarint(key []byte, n uint64) []byte {
	var b [binary.MaxVarintLen64]byte
	i := binary.PutUvarint(b[:], n)
	return append(key, b[:i]...)
}

// AppendString - varint length prefixed bytes
//
// the length prefix keeps distinct field tuples from colliding when a
// variable length field is not the last one in the key
func AppendString(key []byte, s string) []byte {
	key = AppendUvarint(key, uint64(len(s)))
	return append(key, s...)
}

// Uint32 - decode a big-endian field
func Uint32(key []byte) uint32 {
	return binary.BigEndian.Uint32(key)
}

// Uint32Desc - decode a complemented big-endian field
func Uint32Desc(key []byte) uint32 {
	return ^binary.BigEndian.Uint32(key)
}

// Uint64 - decode a big-endian field
func Uint64(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// Uint64Desc - decode a complemented big-endian field
func Uint64Desc(key []byte) uint64 {
	return ^binary.BigEndian.Uint64(key)
}

// DecodeString - decode a varint length prefixed field
//
// returns the string and the number of key bytes consumed, or -1 if
// the field is truncated
func DecodeString(key []byte) (string, int) {
	length, i := binary.Uvarint(key)
	if i <= 0 || uint64(len(key)-i) < length {
		return "", -1
	}
	return string(key[i : i+int(length)]), i + int(length)
}
