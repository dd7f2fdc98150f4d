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

package radio

import "sync"

// Concentrator serializes all access to a HAL behind a single mutex
// (mx_concent): at most one of {upstream fetch,
// downstream TX, beacon TX, trigger-counter read} runs at a time.
type Concentrator struct {
	mu  sync.Mutex
	hal HAL
}

// NewConcentrator wraps a HAL implementation with the serializing lock.
func NewConcentrator(hal HAL) *Concentrator {
	return &Concentrator{hal: hal}
}

// Lock exposes the underlying mutex directly for call sequences that need
// to hold it across more than one HAL operation (e.g. beacon submit-then-
// poll in internal/beacon.Emit).
func (c *Concentrator) Lock()   { c.mu.Lock() }
func (c *Concentrator) Unlock() { c.mu.Unlock() }

// HAL returns the wrapped HAL for use while the caller already holds Lock.
func (c *Concentrator) HAL() HAL { return c.hal }

func (c *Concentrator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hal.Start()
}

func (c *Concentrator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hal.Stop()
}

func (c *Concentrator) Receive(max int) ([]RxPacket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hal.Receive(max)
}

func (c *Concentrator) Send(pkt TxPacket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hal.Send(pkt)
}

func (c *Concentrator) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hal.Status()
}

func (c *Concentrator) TrigCnt() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hal.TrigCnt()
}
