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

// Package config loads the gateway's JSON configuration section
// 6.4: debug_conf.json short-circuits everything else; otherwise
// global_conf.json and local_conf.json are merged, with local winning.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
)

// ServerConfig describes one upstream/downstream server pair.
type ServerConfig struct {
	Address  string
	PortUp   int
	PortDown int
	Enabled  bool
}

// Config is the fully resolved, defaulted gateway configuration.
type Config struct {
	GatewayID uint64
	Servers   []ServerConfig

	KeepaliveInterval time.Duration
	StatInterval      time.Duration
	PushTimeoutMs     int
	AutoquitThreshold int

	Upstream     bool
	Downstream   bool
	Ghoststream  bool
	Radiostream  bool
	Statusstream bool
	GPS          bool
	BeaconStream bool
	Monitor      bool

	ForwardCRCValid    bool
	ForwardCRCError    bool
	ForwardCRCDisabled bool

	BeaconPeriod int
	BeaconOffset int
	BeaconFreqHz uint32

	GPSTTYPath string
	FakeGPS    bool

	RefLatitude  float64
	RefLongitude float64
	RefAltitude  float64

	Platform     string
	ContactEmail string
	Description  string

	// MonitoringPort binds the JSON+Prometheus stats HTTP server. 0 disables it.
	MonitoringPort int
}

// rawServer mirrors one entry of gateway_conf.servers.
type rawServer struct {
	Address  string `json:"server_address"`
	PortUp   int    `json:"serv_port_up"`
	PortDown int    `json:"serv_port_down"`
	Enabled  *bool  `json:"serv_enabled"`
}

// rawGatewayConf mirrors the gateway_conf object, using pointers so we can
// tell "absent" from "explicitly false/zero" while merging two files.
type rawGatewayConf struct {
	Servers  []rawServer `json:"servers"`
	Address  *string     `json:"server_address"`
	PortUp   *int        `json:"serv_port_up"`
	PortDown *int        `json:"serv_port_down"`

	GatewayID *string `json:"gateway_ID"`

	KeepaliveInterval *int `json:"keepalive_interval"`
	StatInterval      *int `json:"stat_interval"`
	PushTimeoutMs     *int `json:"push_timeout_ms"`
	AutoquitThreshold *int `json:"autoquit_threshold"`

	Upstream     *bool `json:"upstream"`
	Downstream   *bool `json:"downstream"`
	Ghoststream  *bool `json:"ghoststream"`
	Radiostream  *bool `json:"radiostream"`
	Statusstream *bool `json:"statusstream"`
	GPS          *bool `json:"gps"`
	Beacon       *bool `json:"beacon"`
	Monitor      *bool `json:"monitor"`

	ForwardCRCValid    *bool `json:"forward_crc_valid"`
	ForwardCRCError    *bool `json:"forward_crc_error"`
	ForwardCRCDisabled *bool `json:"forward_crc_disabled"`

	BeaconPeriod *int    `json:"beacon_period"`
	BeaconOffset *int    `json:"beacon_offset"`
	BeaconFreqHz *uint32 `json:"beacon_freq_hz"`

	GPSTTYPath *string `json:"gps_tty_path"`
	FakeGPS    *bool   `json:"fake_gps"`

	RefLatitude  *float64 `json:"ref_latitude"`
	RefLongitude *float64 `json:"ref_longitude"`
	RefAltitude  *float64 `json:"ref_altitude"`

	Platform     *string `json:"platform"`
	ContactEmail *string `json:"contact_email"`
	Description  *string `json:"description"`

	MonitoringPort *int `json:"monitoring_port"`
}

type rawFile struct {
	ConfigSchema *string        `json:"config_schema"`
	GatewayConf  rawGatewayConf `json:"gateway_conf"`
}

// supportedSchema is the range of config_schema values this build accepts.
// Absent config_schema is always accepted (legacy configs predate the key).
var supportedSchema = mustConstraint(">= 1.0.0, < 2.0.0")

func mustConstraint(s string) version.Constraints {
	c, err := version.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Load resolves the configuration: debug_conf.json, if
// present and readable, is used alone; otherwise global_conf.json and
// local_conf.json are merged, local winning.
func Load(dir string) (*Config, error) {
	debugPath := filepath.Join(dir, "debug_conf.json")
	if data, err := readFile(debugPath); err == nil {
		log.Warningf("using %s, ignoring global/local config", debugPath)
		return resolve(data)
	}

	globalPath := filepath.Join(dir, "global_conf.json")
	localPath := filepath.Join(dir, "local_conf.json")

	globalData, globalErr := readFile(globalPath)
	localData, localErr := readFile(localPath)
	if globalErr != nil && localErr != nil {
		return nil, fmt.Errorf("no configuration file found in %s", dir)
	}

	var sources [][]byte
	if globalErr == nil {
		sources = append(sources, globalData)
	}
	if localErr == nil {
		sources = append(sources, localData)
	}
	return resolve(sources...)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return stripJSONComments(data), nil
}

func resolve(sources ...[]byte) (*Config, error) {
	var raw rawFile
	for _, data := range sources {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if raw.ConfigSchema != nil {
		v, err := version.NewVersion(*raw.ConfigSchema)
		if err != nil {
			return nil, fmt.Errorf("invalid config_schema %q: %w", *raw.ConfigSchema, err)
		}
		if !supportedSchema.Check(v) {
			return nil, fmt.Errorf("config_schema %s is not supported by this build (need %s)", v, supportedSchema)
		}
	}

	cfg := defaultConfig()
	if err := applyRaw(&cfg, raw.GatewayConf); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		KeepaliveInterval: 5 * time.Second,
		StatInterval:      30 * time.Second,
		PushTimeoutMs:     100,
		AutoquitThreshold: 0,
		Upstream:          true,
		Downstream:        true,
		Radiostream:       true,
		Statusstream:      true,
		MonitoringPort:    8080,
	}
}

func applyRaw(cfg *Config, raw rawGatewayConf) error {
	if len(raw.Servers) > 0 {
		if len(raw.Servers) > 4 {
			return fmt.Errorf("at most 4 servers are supported, got %d", len(raw.Servers))
		}
		cfg.Servers = nil
		for _, rs := range raw.Servers {
			enabled := true
			if rs.Enabled != nil {
				enabled = *rs.Enabled
			}
			cfg.Servers = append(cfg.Servers, ServerConfig{
				Address: rs.Address, PortUp: rs.PortUp, PortDown: rs.PortDown, Enabled: enabled,
			})
		}
	} else if raw.Address != nil && raw.PortUp != nil && raw.PortDown != nil {
		// legacy single-server form
		cfg.Servers = []ServerConfig{{Address: *raw.Address, PortUp: *raw.PortUp, PortDown: *raw.PortDown, Enabled: true}}
	}

	if raw.GatewayID != nil {
		id, err := parseGatewayID(*raw.GatewayID)
		if err != nil {
			return err
		}
		cfg.GatewayID = id
	}

	setDuration := func(dst *time.Duration, src *int) {
		if src != nil {
			*dst = time.Duration(*src) * time.Second
		}
	}
	setDuration(&cfg.KeepaliveInterval, raw.KeepaliveInterval)
	setDuration(&cfg.StatInterval, raw.StatInterval)

	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setInt(&cfg.PushTimeoutMs, raw.PushTimeoutMs)
	setInt(&cfg.AutoquitThreshold, raw.AutoquitThreshold)
	setInt(&cfg.BeaconPeriod, raw.BeaconPeriod)
	setInt(&cfg.BeaconOffset, raw.BeaconOffset)
	setInt(&cfg.MonitoringPort, raw.MonitoringPort)

	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&cfg.Upstream, raw.Upstream)
	setBool(&cfg.Downstream, raw.Downstream)
	setBool(&cfg.Ghoststream, raw.Ghoststream)
	setBool(&cfg.Radiostream, raw.Radiostream)
	setBool(&cfg.Statusstream, raw.Statusstream)
	setBool(&cfg.GPS, raw.GPS)
	setBool(&cfg.BeaconStream, raw.Beacon)
	setBool(&cfg.Monitor, raw.Monitor)
	setBool(&cfg.ForwardCRCValid, raw.ForwardCRCValid)
	setBool(&cfg.ForwardCRCError, raw.ForwardCRCError)
	setBool(&cfg.ForwardCRCDisabled, raw.ForwardCRCDisabled)
	setBool(&cfg.FakeGPS, raw.FakeGPS)

	if raw.BeaconFreqHz != nil {
		cfg.BeaconFreqHz = *raw.BeaconFreqHz
	}

	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat(&cfg.RefLatitude, raw.RefLatitude)
	setFloat(&cfg.RefLongitude, raw.RefLongitude)
	setFloat(&cfg.RefAltitude, raw.RefAltitude)

	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&cfg.GPSTTYPath, raw.GPSTTYPath)
	setStr(&cfg.Platform, raw.Platform)
	setStr(&cfg.ContactEmail, raw.ContactEmail)
	setStr(&cfg.Description, raw.Description)

	return nil
}

func parseGatewayID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) != 16 {
		return 0, fmt.Errorf("gateway_ID must be 16 hex digits, got %q", s)
	}
	return strconv.ParseUint(s, 16, 64)
}

// Validate checks invariants the loader can't express through defaulting
// alone, mirroring a section-by-section Validate() layout.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("at least one server must be configured")
	}
	if len(c.Servers) > 4 {
		return fmt.Errorf("at most 4 servers are supported")
	}
	if c.GPS && c.GPSTTYPath == "" && !c.FakeGPS {
		return fmt.Errorf("gps is enabled but gps_tty_path is empty")
	}
	if c.BeaconStream && c.BeaconPeriod < 0 {
		return fmt.Errorf("beacon_period must not be negative")
	}
	return nil
}
