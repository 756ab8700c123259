// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised        = ProcessError("already initialised")
	BatchNotOpen              = ProcessError("batch not open")
	CannotDecodeAddress       = InvalidError("cannot decode address")
	ChainCheckpointMismatch   = ProcessError("chain checkpoint mismatch")
	ConfigDirectoryPath       = InvalidError("config data directory is not a folder")
	CrowdsaleAlreadyActive    = ExistsError("crowdsale already active")
	CrowdsaleNotOpen          = NotFoundError("crowdsale not open")
	DatabaseIsNotSet          = ProcessError("database is not set")
	FeeCacheOverflow          = ProcessError("fee cache overflow")
	InsufficientBalance       = InvalidError("insufficient balance")
	InvalidAmount             = InvalidError("invalid amount")
	InvalidBlockHeight        = InvalidError("invalid block height")
	InvalidBucket             = InvalidError("invalid balance bucket")
	InvalidChain              = InvalidError("invalid chain")
	InvalidCount              = InvalidError("invalid count")
	InvalidCursor             = InvalidError("invalid cursor")
	InvalidDebugCategory      = InvalidError("invalid debug category")
	InvalidEcosystem          = InvalidError("invalid ecosystem")
	InvalidKeyLength          = InvalidError("invalid key length")
	InvalidPayload            = InvalidError("invalid payload")
	InvalidPropertyKind       = InvalidError("invalid property kind")
	InvalidScriptType         = InvalidError("invalid script type")
	InvalidStructPointer      = InvalidError("invalid struct pointer")
	InvalidTokenRange         = InvalidError("invalid token range")
	MissingOwnerOfRange       = NotFoundError("missing owner of range")
	MissingPayloadMarker      = NotFoundError("missing payload marker")
	MissingReferenceRecipient = NotFoundError("missing reference recipient")
	MissingSender             = NotFoundError("missing sender")
	NotInitialised            = ProcessError("not initialised")
	OutOfRangeAmount          = InvalidError("amount out of range")
	OverflowTally             = ProcessError("tally overflow")
	PayloadTooLong            = InvalidError("payload too long")
	PropertyExists            = ExistsError("property already exists")
	PropertyNotFound          = NotFoundError("property not found")
	PropertyNotManaged        = InvalidError("property not managed")
	PropertyTotalMismatch     = ProcessError("property total mismatch")
	SnapshotNotFound          = NotFoundError("snapshot not found")
	TruncatedPayload          = InvalidError("truncated payload")
	UnknownTransactionType    = InvalidError("unknown transaction type")
	UnknownTransactionVersion = InvalidError("unknown transaction version")
	WrongNetworkForAddress    = InvalidError("wrong network for address")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// Error - the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - determine the class of an error
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrNotFound - determine the class of an error
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - determine the class of an error
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }
