// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"fmt"
	"sync"
	"time"
)

type BlockIngestion struct {
	Head          uint32     `json:"head"`
	HeadTimestamp *time.Time `json:"headTimestamp"`
}

type Status struct {
	Healthy        bool            `json:"healthy"`
	BlockIngestion *BlockIngestion `json:"blockIngestion"`
	EventsIndexed  bool            `json:"eventsIndexed"`
	EventsError    string          `json:"eventsError,omitempty"`
}

// Health tracks committed blocks and whether their events reached the event db.
// A failed event write leaves a gap in the event log, so the node stays unhealthy afterwards.
type Health struct {
	lock        sync.RWMutex
	head        uint32
	headTime    time.Time
	eventsBlock uint32
	eventsErr   error
}

func (h *Health) NewBlock(num uint32) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.head = num
	h.headTime = time.Now()
}

func (h *Health) EventsWriteFailed(num uint32, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.eventsErr == nil {
		h.eventsBlock = num
		h.eventsErr = err
	}
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	status := &Status{
		Healthy:       h.eventsErr == nil,
		EventsIndexed: h.eventsErr == nil,
		BlockIngestion: &BlockIngestion{
			Head: h.head,
		},
	}
	if !h.headTime.IsZero() {
		t := h.headTime
		status.BlockIngestion.HeadTimestamp = &t
	}
	if h.eventsErr != nil {
		status.EventsError = fmt.Sprintf("block %d: %v", h.eventsBlock, h.eventsErr)
	}
	return status
}
