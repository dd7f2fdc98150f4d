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

package state

import (
	"fmt"
	"sync"
)

// StatusReportMaxLen is the fixed buffer size: the report plus its ready
// flag live in a 328-byte bounded buffer, so the rendered fragment itself
// must be at most 327 bytes.
const StatusReportMaxLen = 328

// StatusReport is the bounded producer/consumer buffer bridging C8 (the
// stats reporter, producer) and C3 (the upstream loop, consumer). A new
// report always overwrites the previous one, consumed or not.
type StatusReport struct {
	mu    sync.Mutex
	buf   []byte
	ready bool
}

// Publish stores a freshly rendered status fragment, marking it ready.
// Fragments longer than StatusReportMaxLen-1 are rejected: the fixed
// buffer cannot hold them.
func (s *StatusReport) Publish(fragment []byte) error {
	if len(fragment) >= StatusReportMaxLen {
		return fmt.Errorf("status fragment of %d bytes exceeds buffer of %d", len(fragment), StatusReportMaxLen)
	}
	s.mu.Lock()
	s.buf = append(s.buf[:0], fragment...)
	s.ready = true
	s.mu.Unlock()
	return nil
}

// TakeIfReady returns the current fragment and clears the ready flag, iff a
// fragment is currently ready. It does not clear the underlying buffer, only
// the flag - a dirty read of readiness is acceptable, but the actual
// consume-and-clear must happen under the lock.
func (s *StatusReport) TakeIfReady() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, false
	}
	s.ready = false
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out, true
}

// IsReady reports readiness without consuming it - used for the peek in
// the upstream loop's iteration-skip check. It takes the lock; the answer
// can be stale by the time the caller acts on it.
func (s *StatusReport) IsReady() bool {
	s.mu.Lock()
	r := s.ready
	s.mu.Unlock()
	return r
}
