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

package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildNetworkIDAndFieldTime(t *testing.T) {
	// spec scenario 5: beacon_period=128, offset=0, k=1 -> fieldTime=128
	b := Build(128, Coord{Latitude: 48.858, Longitude: 2.295})
	assert.Equal(t, []byte{0xEE, 0xFF, 0xC0}, b[0:3])
	assert.Equal(t, byte(128), b[3])
	assert.Equal(t, byte(0), b[4])
	assert.Equal(t, byte(0), b[5])
	assert.Equal(t, byte(0), b[6])
}

func TestBuildCRC8CoversBytesZeroToSix(t *testing.T) {
	b := Build(3512348672, Coord{Latitude: 48.858, Longitude: 2.295})
	assert.Equal(t, CRC8CCITT(b[0:7]), b[7])
}

func TestBuildCRC16CoversBytesEightToFourteen(t *testing.T) {
	b := Build(42, Coord{Latitude: -33.87, Longitude: 151.21})
	want := CRC16CCITT(b[8:15])
	got := uint16(b[15]) | uint16(b[16])<<8
	assert.Equal(t, want, got)
}

func TestBuildLatitudeSaturatesAtPositiveLimit(t *testing.T) {
	b := Build(0, Coord{Latitude: 90, Longitude: 0})
	lat := int32(b[9]) | int32(b[10])<<8 | int32(b[11])<<16
	assert.Equal(t, int32(1<<23-1), lat)
}

func TestBuildLongitudeWraps(t *testing.T) {
	b := Build(0, Coord{Latitude: 0, Longitude: 180})
	lon := uint32(b[12]) | uint32(b[13])<<8 | uint32(b[14])<<16
	want := uint32(int64(1<<23)) & 0x00FFFFFF
	assert.Equal(t, want, lon)
}

func TestPayloadSize(t *testing.T) {
	b := Build(1, Coord{})
	assert.Len(t, b, PayloadSize)
}
