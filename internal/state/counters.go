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

// Package state holds the process-wide shared state: the two counter
// groups, the GPS time reference, and the status-report buffer. Each
// mutable group is guarded by its own lock. The stats reporter reads a
// counter group only through SnapshotAndReset, which resets it, so no
// sample is double-counted or lost across a stats interval; Snapshot reads
// without resetting.
package state

import "sync"

// saturatingAdd adds delta to v without wrapping past math.MaxUint32.
func saturatingAdd(v *uint32, delta uint32) {
	if *v > ^uint32(0)-delta {
		*v = ^uint32(0)
		return
	}
	*v += delta
}

// UpstreamCounters is the C1 upstream counter group.
type UpstreamCounters struct {
	mu sync.Mutex

	RxRcv         uint32
	RxOk          uint32
	RxBad         uint32
	RxNoCRC       uint32
	UpPktFwd      uint32
	UpNetworkByte uint32
	UpPayloadByte uint32
	UpDgramSent   uint32
	UpAckRcv      uint32
}

// IncRxRcv increments the count of every received packet, forwarded or not.
func (c *UpstreamCounters) IncRxRcv() {
	c.mu.Lock()
	saturatingAdd(&c.RxRcv, 1)
	c.mu.Unlock()
}

// IncRxStatus increments the counter matching the CRC outcome of a received
// packet (RxOk/RxBad/RxNoCRC). Unknown statuses increment none of them.
func (c *UpstreamCounters) IncRxStatus(ok, bad, noCRC bool) {
	c.mu.Lock()
	if ok {
		saturatingAdd(&c.RxOk, 1)
	}
	if bad {
		saturatingAdd(&c.RxBad, 1)
	}
	if noCRC {
		saturatingAdd(&c.RxNoCRC, 1)
	}
	c.mu.Unlock()
}

// IncForwarded records a packet that passed the CRC-forwarding policy.
func (c *UpstreamCounters) IncForwarded(payloadBytes uint32) {
	c.mu.Lock()
	saturatingAdd(&c.UpPktFwd, 1)
	saturatingAdd(&c.UpPayloadByte, payloadBytes)
	c.mu.Unlock()
}

// IncDgramSent records a datagram sent to one server.
func (c *UpstreamCounters) IncDgramSent(networkBytes uint32) {
	c.mu.Lock()
	saturatingAdd(&c.UpDgramSent, 1)
	saturatingAdd(&c.UpNetworkByte, networkBytes)
	c.mu.Unlock()
}

// IncAckRcv records a valid, matching PUSH_ACK.
func (c *UpstreamCounters) IncAckRcv() {
	c.mu.Lock()
	saturatingAdd(&c.UpAckRcv, 1)
	c.mu.Unlock()
}

// Snapshot copies out the current values without resetting them.
func (c *UpstreamCounters) Snapshot() UpstreamCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c
	cp.mu = sync.Mutex{}
	return cp
}

// SnapshotAndReset atomically copies out the current values and zeroes them;
// it is how the stats reporter reads these counters.
func (c *UpstreamCounters) SnapshotAndReset() UpstreamCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c
	cp.mu = sync.Mutex{}
	*c = UpstreamCounters{}
	return cp
}

// DownstreamCounters is the C1 downstream counter group, one instance per
// server.
type DownstreamCounters struct {
	mu sync.Mutex

	DwPullSent    uint32
	DwAckRcv      uint32
	DwDgramRcv    uint32
	DwNetworkByte uint32
	DwPayloadByte uint32
	NbTxOk        uint32
	NbTxFail      uint32
}

// IncPullSent records a PULL_DATA keepalive sent.
func (c *DownstreamCounters) IncPullSent() {
	c.mu.Lock()
	saturatingAdd(&c.DwPullSent, 1)
	c.mu.Unlock()
}

// IncAckRcv records a matching PULL_ACK.
func (c *DownstreamCounters) IncAckRcv() {
	c.mu.Lock()
	saturatingAdd(&c.DwAckRcv, 1)
	c.mu.Unlock()
}

// IncDgramRcv records a successfully parsed PULL_RESP datagram.
func (c *DownstreamCounters) IncDgramRcv(networkBytes, payloadBytes uint32) {
	c.mu.Lock()
	saturatingAdd(&c.DwDgramRcv, 1)
	saturatingAdd(&c.DwNetworkByte, networkBytes)
	saturatingAdd(&c.DwPayloadByte, payloadBytes)
	c.mu.Unlock()
}

// IncTxOk records a packet the radio accepted for transmission.
func (c *DownstreamCounters) IncTxOk() {
	c.mu.Lock()
	saturatingAdd(&c.NbTxOk, 1)
	c.mu.Unlock()
}

// IncTxFail records a packet the radio rejected.
func (c *DownstreamCounters) IncTxFail() {
	c.mu.Lock()
	saturatingAdd(&c.NbTxFail, 1)
	c.mu.Unlock()
}

// Snapshot copies out the current values without resetting them.
func (c *DownstreamCounters) Snapshot() DownstreamCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c
	cp.mu = sync.Mutex{}
	return cp
}

// SnapshotAndReset atomically copies out the current values and zeroes them.
func (c *DownstreamCounters) SnapshotAndReset() DownstreamCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c
	cp.mu = sync.Mutex{}
	*c = DownstreamCounters{}
	return cp
}
