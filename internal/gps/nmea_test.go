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

package gps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNMEAValidRMC(t *testing.T) {
	// $GPRMC,hhmmss.ss,A,4851.48,N,00217.70,E,...,ddmmyy,...
	fix, ok, err := ParseNMEA("$GPRMC,102215.00,A,4851.4800,N,00217.7000,E,0.0,0.0,170423,,,A*5F")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fix.Valid)
	assert.Equal(t, time.Date(2023, 4, 17, 10, 22, 15, 0, time.UTC), fix.UTC)
	assert.InDelta(t, 48.858, fix.Coord.Latitude, 1e-3)
	assert.InDelta(t, 2.295, fix.Coord.Longitude, 1e-3)
}

func TestParseNMEAVoidRMC(t *testing.T) {
	fix, ok, err := ParseNMEA("$GPRMC,102215.00,V,,,,,,,170423,,,N*7B")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, fix.Valid)
}

func TestParseNMEAIgnoresNonRMC(t *testing.T) {
	_, ok, err := ParseNMEA("$GPGGA,102215.00,4851.48,N,00217.70,E,1,08,0.9,545.4,M,46.9,M,,*64")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseNMEARejectsBadChecksum(t *testing.T) {
	_, _, err := ParseNMEA("$GPRMC,102215.00,A,4851.4800,N,00217.7000,E,0.0,0.0,170423,,,A*00")
	assert.Error(t, err)
}

func TestParseNMEARejectsNonSentence(t *testing.T) {
	_, _, err := ParseNMEA("not a sentence")
	assert.Error(t, err)
}

func TestParseLatLonSouthWestNegative(t *testing.T) {
	lat, err := parseLatLon("3352.2000", "S")
	require.NoError(t, err)
	assert.Less(t, lat, 0.0)

	lon, err := parseLatLon("15112.6000", "W")
	require.NoError(t, err)
	assert.Less(t, lon, 0.0)
}
