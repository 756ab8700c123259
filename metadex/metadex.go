// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metadex - the token for token order book
//
// orders rest per trading pair ordered by unit price then arrival;
// matching walks the opposite book best price first and always
// exchanges at the resting order's price; the book itself never
// touches balances, the interpreter applies the returned fills
package metadex

import (
	"math/big"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitmark-inc/metalayerd/protocol"
)

// Order - one resting order
//
// AmountForSale and AmountDesired shrink together on partial fills so
// that the original unit price AmountDesired/AmountForSale is kept
type Order struct {
	Address         string              `json:"address"`
	PropertyForSale protocol.PropertyId `json:"propertyForSale"`
	AmountForSale   protocol.Amount     `json:"amountForSale"`
	PropertyDesired protocol.PropertyId `json:"propertyDesired"`
	AmountDesired   protocol.Amount     `json:"amountDesired"`

	// the original amounts fix the unit price forever
	OriginalForSale protocol.Amount `json:"originalForSale"`
	OriginalDesired protocol.Amount `json:"originalDesired"`

	Block uint32         `json:"block"`
	Index uint32         `json:"index"`
	TxId  chainhash.Hash `json:"txId"`
}

// Fill - one exchange produced by matching
type Fill struct {
	Maker *Order // the resting order, amounts already reduced
	Taker *Order

	// what moved: the taker paid TakerGave of the taker's for-sale
	// property and received TakerGot of the desired property
	TakerGave protocol.Amount
	TakerGot  protocol.Amount
}

type pair struct {
	forSale protocol.PropertyId
	desired protocol.PropertyId
}

var globalData struct {
	sync.RWMutex
	books map[pair][]*Order
}

func init() {
	globalData.books = make(map[pair][]*Order)
}

// Clear - drop every resting order
func Clear() {
	globalData.Lock()
	globalData.books = make(map[pair][]*Order)
	globalData.Unlock()
}

// unit price comparison by cross multiplication, free of overflow and
// rounding: price(a) = a.Desired/a.ForSale against price(b)
func cheaper(a *Order, b *Order) int {
	lhs := new(big.Int).Mul(big.NewInt(a.OriginalDesired), big.NewInt(b.OriginalForSale))
	rhs := new(big.Int).Mul(big.NewInt(b.OriginalDesired), big.NewInt(a.OriginalForSale))
	return lhs.Cmp(rhs)
}

// ordering of one book: ascending unit price, ties by arrival
func sortBook(book []*Order) {
	sort.SliceStable(book, func(i, j int) bool {
		c := cheaper(book[i], book[j])
		if 0 != c {
			return c < 0
		}
		if book[i].Block != book[j].Block {
			return book[i].Block < book[j].Block
		}
		return book[i].Index < book[j].Index
	})
}

func insert(order *Order) {
	key := pair{forSale: order.PropertyForSale, desired: order.PropertyDesired}
	book := append(globalData.books[key], order)
	sortBook(book)
	globalData.books[key] = book
}

func remove(order *Order) {
	key := pair{forSale: order.PropertyForSale, desired: order.PropertyDesired}
	book := globalData.books[key]
	for i, o := range book {
		if o == order {
			globalData.books[key] = append(book[:i], book[i+1:]...)
			break
		}
	}
	if 0 == len(globalData.books[key]) {
		delete(globalData.books, key)
	}
}

// Trade - match a new order against the opposite book and rest any
// remainder
//
// the opposite book is walked best price first; a resting order
// matches while it offers at least the taker's limit rate, and every
// exchange settles at the resting order's rate; returns the fills in
// match order and the resting remainder of the new order, nil when it
// filled completely
func Trade(taker *Order) ([]Fill, *Order) {
	globalData.Lock()
	defer globalData.Unlock()

	opposite := pair{forSale: taker.PropertyDesired, desired: taker.PropertyForSale}
	fills := []Fill(nil)

matching:
	for taker.AmountForSale > 0 {
		book := globalData.books[opposite]
		if 0 == len(book) {
			break matching
		}
		maker := book[0]

		// maker offers maker.ForSale of the taker's desired property
		// at rate maker.Desired per maker.ForSale; it matches while
		// maker gives at least taker.Desired/taker.ForSale units per
		// unit paid: maker.ForSale * taker.ForSale ≥
		// taker.Desired * maker.Desired
		lhs := new(big.Int).Mul(big.NewInt(maker.OriginalForSale), big.NewInt(taker.OriginalForSale))
		rhs := new(big.Int).Mul(big.NewInt(taker.OriginalDesired), big.NewInt(maker.OriginalDesired))
		if lhs.Cmp(rhs) < 0 {
			break matching
		}

		// the maker's rate wins: to lift the whole maker the taker
		// pays maker.AmountDesired
		var gave, got protocol.Amount
		if taker.AmountForSale >= maker.AmountDesired {
			// complete fill of the maker
			gave = maker.AmountDesired
			got = maker.AmountForSale
		} else {
			// partial: settle at the maker's original rate, the
			// remainder of the division stays with the maker
			gave = taker.AmountForSale
			g := new(big.Int).Mul(big.NewInt(gave), big.NewInt(maker.OriginalForSale))
			g.Quo(g, big.NewInt(maker.OriginalDesired))
			got = g.Int64()
			if 0 == got {
				// too small to buy a single unit at this price
				break matching
			}
		}

		maker.AmountForSale -= got
		maker.AmountDesired -= gave
		taker.AmountForSale -= gave
		taker.AmountDesired -= got
		if taker.AmountDesired < 0 {
			taker.AmountDesired = 0
		}

		fills = append(fills, Fill{
			Maker:     maker,
			Taker:     taker,
			TakerGave: gave,
			TakerGot:  got,
		})

		if 0 == maker.AmountForSale || 0 == maker.AmountDesired {
			remove(maker)
		}
	}

	if taker.AmountForSale > 0 {
		insert(taker)
		return fills, taker
	}
	return fills, nil
}

// CancelAtPrice - remove the sender's orders on a pair at an exact
// unit price
func CancelAtPrice(address string, forSale protocol.PropertyId, desired protocol.PropertyId, amountForSale protocol.Amount, amountDesired protocol.Amount) []*Order {
	probe := &Order{
		OriginalForSale: amountForSale,
		OriginalDesired: amountDesired,
	}
	return cancelMatching(func(o *Order) bool {
		return o.Address == address &&
			o.PropertyForSale == forSale &&
			o.PropertyDesired == desired &&
			0 == cheaper(o, probe)
	})
}

// CancelPair - remove every order of the sender on a pair
func CancelPair(address string, forSale protocol.PropertyId, desired protocol.PropertyId) []*Order {
	return cancelMatching(func(o *Order) bool {
		return o.Address == address &&
			o.PropertyForSale == forSale &&
			o.PropertyDesired == desired
	})
}

// CancelEcosystem - remove every order of the sender in an ecosystem
func CancelEcosystem(address string, ecosystem protocol.Ecosystem) []*Order {
	return cancelMatching(func(o *Order) bool {
		return o.Address == address &&
			protocol.EcosystemOf(o.PropertyForSale) == ecosystem
	})
}

func cancelMatching(match func(*Order) bool) []*Order {
	globalData.Lock()
	defer globalData.Unlock()

	cancelled := []*Order(nil)
	for key, book := range globalData.books {
		kept := book[:0]
		for _, o := range book {
			if match(o) {
				cancelled = append(cancelled, o)
			} else {
				kept = append(kept, o)
			}
		}
		if 0 == len(kept) {
			delete(globalData.books, key)
		} else {
			globalData.books[key] = kept
		}
	}

	// deterministic refund order
	sort.Slice(cancelled, func(i, j int) bool {
		if cancelled[i].Block != cancelled[j].Block {
			return cancelled[i].Block < cancelled[j].Block
		}
		return cancelled[i].Index < cancelled[j].Index
	})
	return cancelled
}

// crossExists - do two opposite orders match at their original
// rates; used by the crossing test
func crossExists(a *Order, b *Order) bool {
	lhs := new(big.Int).Mul(big.NewInt(a.OriginalForSale), big.NewInt(b.OriginalForSale))
	rhs := new(big.Int).Mul(big.NewInt(a.OriginalDesired), big.NewInt(b.OriginalDesired))
	return lhs.Cmp(rhs) >= 0
}

// HasCross - true if the two books of a pair still contain orders
// that would match; after any trade this must be false
func HasCross(propertyA protocol.PropertyId, propertyB protocol.PropertyId) bool {
	globalData.RLock()
	defer globalData.RUnlock()

	side := globalData.books[pair{forSale: propertyA, desired: propertyB}]
	other := globalData.books[pair{forSale: propertyB, desired: propertyA}]
	for _, a := range side {
		for _, b := range other {
			if crossExists(a, b) {
				return true
			}
		}
	}
	return false
}

// Orders - every resting order ordered by (pair, price, arrival), for
// the consensus hash and the snapshot
func Orders() []*Order {
	globalData.RLock()
	defer globalData.RUnlock()

	keys := make([]pair, 0, len(globalData.books))
	for key := range globalData.books {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].forSale != keys[j].forSale {
			return keys[i].forSale < keys[j].forSale
		}
		return keys[i].desired < keys[j].desired
	})

	result := []*Order(nil)
	for _, key := range keys {
		result = append(result, globalData.books[key]...)
	}
	return result
}

// OrdersOf - every resting order of one address
func OrdersOf(address string) []*Order {
	globalData.RLock()
	defer globalData.RUnlock()

	result := []*Order(nil)
	for _, book := range globalData.books {
		for _, o := range book {
			if o.Address == address {
				result = append(result, o)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Block != result[j].Block {
			return result[i].Block < result[j].Block
		}
		return result[i].Index < result[j].Index
	})
	return result
}

// Export - copy every order for snapshot writing
func Export() []Order {
	orders := Orders()
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out
}

// Restore - replace the whole book from a snapshot
func Restore(orders []Order) {
	globalData.Lock()
	defer globalData.Unlock()

	globalData.books = make(map[pair][]*Order)
	for i := range orders {
		copied := orders[i]
		insert(&copied)
	}
}
