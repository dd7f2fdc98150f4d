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

// Package transport holds the per-server UDP socket pair: a server that
// fails resolution, socket creation, or connect
// at startup is marked non-live, and startup continues regardless.
package transport

import (
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// PushTimeoutHalf is the default upstream socket receive timeout (half of
// PUSH_TIMEOUT_MS).
const PushTimeoutHalf = 50 * time.Millisecond

// PullTimeout is the fixed downstream socket receive timeout.
const PullTimeout = 200 * time.Millisecond

// ServerEndpoint is one configured network server: an address plus its
// connected upstream and downstream UDP sockets. Invariant: when Live is
// false, neither socket is used; when true, both are.
type ServerEndpoint struct {
	Name string
	Addr string

	Live bool

	up   *net.UDPConn
	down *net.UDPConn
}

// Dial resolves addr:portUp and addr:portDown and connects both sockets.
// On any failure the returned endpoint has Live=false and the error is
// returned for logging only — callers must not abort startup on it.
func Dial(name, addr string, portUp, portDown int, pushTimeoutHalf time.Duration) (*ServerEndpoint, error) {
	ep := &ServerEndpoint{Name: name, Addr: addr}

	upAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", addr, portUp))
	if err != nil {
		return ep, fmt.Errorf("resolving upstream address for %s: %w", name, err)
	}
	downAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", addr, portDown))
	if err != nil {
		return ep, fmt.Errorf("resolving downstream address for %s: %w", name, err)
	}

	up, err := net.DialUDP("udp", nil, upAddr)
	if err != nil {
		return ep, fmt.Errorf("connecting upstream socket for %s: %w", name, err)
	}
	down, err := net.DialUDP("udp", nil, downAddr)
	if err != nil {
		up.Close()
		return ep, fmt.Errorf("connecting downstream socket for %s: %w", name, err)
	}

	if err := setReuseAddr(up); err != nil {
		log.WithError(err).Warningf("%s: SO_REUSEADDR not set on upstream socket", name)
	}
	if err := setReuseAddr(down); err != nil {
		log.WithError(err).Warningf("%s: SO_REUSEADDR not set on downstream socket", name)
	}
	if pushTimeoutHalf <= 0 {
		pushTimeoutHalf = PushTimeoutHalf
	}

	ep.up = up
	ep.down = down
	ep.Live = true
	log.Infof("%s: connected to %s (up=%d down=%d)", name, addr, portUp, portDown)
	return ep, nil
}

// setReuseAddr reaches past net.UDPConn to set SO_REUSEADDR, matching how
// ptp4u's server pokes at a raw fd for a socket option the stdlib wrapper
// doesn't expose directly.
func setReuseAddr(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

// SendUp transmits buf on the upstream socket.
func (e *ServerEndpoint) SendUp(buf []byte) error {
	_, err := e.up.Write(buf)
	return err
}

// SendDown transmits buf on the downstream socket (PULL_DATA keepalives).
func (e *ServerEndpoint) SendDown(buf []byte) error {
	_, err := e.down.Write(buf)
	return err
}

// RecvUp reads one datagram from the upstream socket with the configured
// receive timeout, returning (0, nil) on timeout (EAGAIN-equivalent).
func (e *ServerEndpoint) RecvUp(buf []byte, timeout time.Duration) (int, error) {
	return recvWithTimeout(e.up, buf, timeout)
}

// RecvDown reads one datagram from the downstream socket with the given
// receive timeout, returning (0, nil) on timeout.
func (e *ServerEndpoint) RecvDown(buf []byte, timeout time.Duration) (int, error) {
	return recvWithTimeout(e.down, buf, timeout)
}

func recvWithTimeout(conn *net.UDPConn, buf []byte, timeout time.Duration) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Close releases both sockets. Safe to call on a non-live endpoint.
func (e *ServerEndpoint) Close() {
	if e.up != nil {
		e.up.Close()
	}
	if e.down != nil {
		e.down.Close()
	}
}
