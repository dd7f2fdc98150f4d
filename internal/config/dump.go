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

import "gopkg.in/yaml.v2"

// dumpView is a YAML-friendly projection of Config for the `dump-config`
// subcommand. It exists only for output; Load never reads YAML.
type dumpView struct {
	GatewayID         string         `yaml:"gateway_id"`
	Servers           []ServerConfig `yaml:"servers"`
	KeepaliveInterval string         `yaml:"keepalive_interval"`
	StatInterval      string         `yaml:"stat_interval"`
	PushTimeoutMs     int            `yaml:"push_timeout_ms"`
	AutoquitThreshold int            `yaml:"autoquit_threshold"`
	Upstream          bool           `yaml:"upstream"`
	Downstream        bool           `yaml:"downstream"`
	Ghoststream       bool           `yaml:"ghoststream"`
	Radiostream       bool           `yaml:"radiostream"`
	Statusstream      bool           `yaml:"statusstream"`
	GPS               bool           `yaml:"gps"`
	Beacon            bool           `yaml:"beacon"`
	Monitor           bool           `yaml:"monitor"`
	BeaconPeriod      int            `yaml:"beacon_period"`
	BeaconOffset      int            `yaml:"beacon_offset"`
	BeaconFreqHz      uint32         `yaml:"beacon_freq_hz"`
	GPSTTYPath        string         `yaml:"gps_tty_path,omitempty"`
	FakeGPS           bool           `yaml:"fake_gps"`
	RefLatitude       float64        `yaml:"ref_latitude"`
	RefLongitude      float64        `yaml:"ref_longitude"`
	RefAltitude       float64        `yaml:"ref_altitude"`
	Platform          string         `yaml:"platform,omitempty"`
	MonitoringPort    int            `yaml:"monitoring_port"`
}

// DumpYAML renders the resolved configuration as YAML, for operators to
// confirm what the merge of global/local config actually produced. The
// CRC-forwarding flags, contact email and description are not included.
func (c *Config) DumpYAML() ([]byte, error) {
	v := dumpView{
		GatewayID:         formatGatewayID(c.GatewayID),
		Servers:           c.Servers,
		KeepaliveInterval: c.KeepaliveInterval.String(),
		StatInterval:      c.StatInterval.String(),
		PushTimeoutMs:     c.PushTimeoutMs,
		AutoquitThreshold: c.AutoquitThreshold,
		Upstream:          c.Upstream,
		Downstream:        c.Downstream,
		Ghoststream:       c.Ghoststream,
		Radiostream:       c.Radiostream,
		Statusstream:      c.Statusstream,
		GPS:               c.GPS,
		Beacon:            c.BeaconStream,
		Monitor:           c.Monitor,
		BeaconPeriod:      c.BeaconPeriod,
		BeaconOffset:      c.BeaconOffset,
		BeaconFreqHz:      c.BeaconFreqHz,
		GPSTTYPath:        c.GPSTTYPath,
		FakeGPS:           c.FakeGPS,
		RefLatitude:       c.RefLatitude,
		RefLongitude:      c.RefLongitude,
		RefAltitude:       c.RefAltitude,
		Platform:          c.Platform,
		MonitoringPort:    c.MonitoringPort,
	}
	return yaml.Marshal(v)
}

func formatGatewayID(id uint64) string {
	const hexDigits = "0123456789ABCDEF"
	b := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		b[i] = hexDigits[id&0xF]
		id >>= 4
	}
	return string(b)
}
