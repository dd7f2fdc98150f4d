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

package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDialMarksLiveOnSuccess(t *testing.T) {
	up := listenUDP(t)
	down := listenUDP(t)

	ep, err := Dial("test", "127.0.0.1", up.LocalAddr().(*net.UDPAddr).Port, down.LocalAddr().(*net.UDPAddr).Port, 0)
	require.NoError(t, err)
	assert.True(t, ep.Live)
	defer ep.Close()

	require.NoError(t, ep.SendUp([]byte("hello")))
	buf := make([]byte, 16)
	n, _, err := up.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestDialFailsOnUnresolvableAddress(t *testing.T) {
	ep, err := Dial("test", "this.host.does.not.exist.invalid", 1700, 1700, 0)
	assert.Error(t, err)
	assert.False(t, ep.Live)
}

func TestRecvUpTimesOutWithoutError(t *testing.T) {
	up := listenUDP(t)
	down := listenUDP(t)
	ep, err := Dial("test", "127.0.0.1", up.LocalAddr().(*net.UDPAddr).Port, down.LocalAddr().(*net.UDPAddr).Port, 0)
	require.NoError(t, err)
	defer ep.Close()

	buf := make([]byte, 16)
	n, err := ep.RecvUp(buf, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecvUpReceivesReply(t *testing.T) {
	up := listenUDP(t)
	down := listenUDP(t)
	ep, err := Dial("test", "127.0.0.1", up.LocalAddr().(*net.UDPAddr).Port, down.LocalAddr().(*net.UDPAddr).Port, 0)
	require.NoError(t, err)
	defer ep.Close()

	require.NoError(t, ep.SendUp([]byte("ping")))
	sendBuf := make([]byte, 16)
	n, raddr, err := up.ReadFrom(sendBuf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(sendBuf[:n]))
	_, err = up.WriteTo([]byte("pong"), raddr)
	require.NoError(t, err)

	recvBuf := make([]byte, 16)
	n, err = ep.RecvUp(recvBuf, 200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(recvBuf[:n]))
}
