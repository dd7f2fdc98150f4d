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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMergesGlobalAndLocalWithLocalWinning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "global_conf.json", `{
		"gateway_conf": {
			"servers": [{"server_address": "global.example.com", "serv_port_up": 1700, "serv_port_down": 1700}],
			"keepalive_interval": 5,
			"gps": false
		}
	}`)
	writeFile(t, dir, "local_conf.json", `{
		"gateway_conf": {
			// local overrides the gateway id and enables gps
			"gateway_ID": "00800000A0001B23",
			"gps": true,
			"gps_tty_path": "/dev/ttyAMA0"
		}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "global.example.com", cfg.Servers[0].Address)
	assert.True(t, cfg.GPS)
	assert.Equal(t, "/dev/ttyAMA0", cfg.GPSTTYPath)
	assert.Equal(t, uint64(0x00800000A0001B23), cfg.GatewayID)
}

func TestLoadDebugConfShortCircuits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "global_conf.json", `{"gateway_conf": {"servers": [{"server_address": "a", "serv_port_up": 1, "serv_port_down": 2}]}}`)
	writeFile(t, dir, "debug_conf.json", `{"gateway_conf": {"servers": [{"server_address": "debug.example.com", "serv_port_up": 9999, "serv_port_down": 9998}]}}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug.example.com", cfg.Servers[0].Address)
}

func TestLoadRejectsUnsupportedSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "global_conf.json", `{
		"config_schema": "2.0.0",
		"gateway_conf": {"servers": [{"server_address": "a", "serv_port_up": 1, "serv_port_down": 2}]}
	}`)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadMissingFilesErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestValidateRequiresAtLeastOneServer(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresTTYPathWhenGPSEnabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Servers = []ServerConfig{{Address: "a", PortUp: 1, PortDown: 2, Enabled: true}}
	cfg.GPS = true
	assert.Error(t, cfg.Validate())
	cfg.FakeGPS = true
	assert.NoError(t, cfg.Validate())
}

func TestStripJSONCommentsPreservesStringsContainingSlashes(t *testing.T) {
	in := []byte(`{"server_address": "http://example.com"} // trailing comment`)
	out := stripJSONComments(in)
	assert.Contains(t, string(out), `"http://example.com"`)
	assert.NotContains(t, string(out), "trailing comment")
}
