/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package fake provides a deterministic, in-memory radio.HAL used by loop
// tests that exercise upstream/downstream behavior without real hardware.
package fake

import (
	"sync"

	"github.com/lorafwd/gateway/internal/radio"
)

// HAL is an in-memory radio.HAL implementation: Receive drains a queue that
// tests populate with Inject, Send appends to a log tests can inspect.
type HAL struct {
	mu      sync.Mutex
	pending []radio.RxPacket
	sent    []radio.TxPacket
	status  radio.Status
	trigCnt uint32
	sendErr error
}

// New returns a ready-to-use fake HAL.
func New() *HAL {
	return &HAL{status: radio.StatusFree}
}

// Start is a no-op.
func (h *HAL) Start() error { return nil }

// Stop is a no-op.
func (h *HAL) Stop() error { return nil }

// Inject queues packets to be returned by the next Receive call(s).
func (h *HAL) Inject(pkts ...radio.RxPacket) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, pkts...)
}

// Receive returns up to max queued packets.
func (h *HAL) Receive(max int) ([]radio.RxPacket, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return nil, nil
	}
	n := max
	if n > len(h.pending) {
		n = len(h.pending)
	}
	out := h.pending[:n]
	h.pending = h.pending[n:]
	return out, nil
}

// SetSendErr makes subsequent Send calls fail with err.
func (h *HAL) SetSendErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendErr = err
}

// Send records pkt in the sent log, honoring SetSendErr.
func (h *HAL) Send(pkt radio.TxPacket) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	h.sent = append(h.sent, pkt)
	return nil
}

// Sent returns a copy of everything submitted to Send so far.
func (h *HAL) Sent() []radio.TxPacket {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]radio.TxPacket, len(h.sent))
	copy(out, h.sent)
	return out
}

// SetStatus controls what Status reports.
func (h *HAL) SetStatus(s radio.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = s
}

// Status reports the configured transmit chain state.
func (h *HAL) Status() (radio.Status, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status, nil
}

// SetTrigCnt controls what TrigCnt reports.
func (h *HAL) SetTrigCnt(v uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trigCnt = v
}

// TrigCnt reports the configured free-running counter value.
func (h *HAL) TrigCnt() (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.trigCnt, nil
}
