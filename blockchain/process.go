// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/bitmark-inc/metalayerd/host"
)

// the single event consumer: all state mutation funnels through one
// goroutine so that block N completes before block N+1 begins
type backgroundHandle struct {
	shutdown chan struct{}
	finished chan struct{}
}

// Start - launch the event consumer over the host's channel
func Start(events <-chan host.Event) {
	handle := &backgroundHandle{
		shutdown: make(chan struct{}),
		finished: make(chan struct{}),
	}

	globalData.Lock()
	globalData.background = handle
	globalData.Unlock()

	go handle.run(events)
}

// Stop - drain and stop the event consumer
func Stop() {
	globalData.Lock()
	handle := globalData.background
	globalData.background = nil
	globalData.Unlock()

	if nil != handle {
		close(handle.shutdown)
		<-handle.finished
	}
}

func (handle *backgroundHandle) run(events <-chan host.Event) {
	log := globalData.log
	log.Info("event consumer started")

loop:
	for {
		select {
		case <-handle.shutdown:
			break loop

		case event, ok := <-events:
			if !ok {
				break loop
			}
			if err := HandleEvent(event); nil != err {
				log.Criticalf("event handling failed: %s", err)
			}
		}
	}

	log.Info("event consumer stopped")
	close(handle.finished)
}
