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

package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lorafwd/gateway/internal/config"
	"github.com/lorafwd/gateway/internal/radio/fake"
)

// freeUDPPort binds an ephemeral UDP port, closes it, and returns the port
// number for the server under test to bind its own loopback listener to.
func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func loopbackConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		GatewayID:         0x0102030405060708,
		Servers:           []config.ServerConfig{{Address: "127.0.0.1", PortUp: freeUDPPort(t), PortDown: freeUDPPort(t), Enabled: true}},
		KeepaliveInterval: 10 * time.Millisecond,
		StatInterval:      10 * time.Millisecond,
		AutoquitThreshold: 1,
		Upstream:          true,
		Downstream:        true,
		Radiostream:       true,
		Statusstream:      false,
	}
}

func TestNewFailsWhenNoServerComesUpLive(t *testing.T) {
	cfg := &config.Config{
		Servers: []config.ServerConfig{{Address: "127.0.0.1", PortUp: 1, PortDown: 2, Enabled: false}},
	}
	_, err := New(cfg, fake.New())
	require.Error(t, err)
}

func TestRunShutsDownCleanlyOnAutoquitThreshold(t *testing.T) {
	cfg := loopbackConfig(t)
	g, err := New(cfg, fake.New())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after auto-quit threshold was reached")
	}
}

func TestNewWarnsButSucceedsWithGhoststreamAndMonitorEnabled(t *testing.T) {
	cfg := loopbackConfig(t)
	cfg.Ghoststream = true
	cfg.Monitor = true
	g, err := New(cfg, fake.New())
	require.NoError(t, err)
	require.NotNil(t, g)
}
