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

package downstream

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
)

func pullRespBody(fields string) []byte {
	payload := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02})
	return []byte(`{"txpk":{` + fields + `,"data":"` + payload + `"}}`)
}

func TestParsePullRespImmediateLoRa(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"powe":14,"modu":"LORA","datr":"SF7BW125","codr":"4/5","size":2`)

	pkt, err := parsePullResp(body, nil)
	require.NoError(t, err)
	assert.Equal(t, radio.TxImmediate, pkt.TxMode)
	assert.Equal(t, radio.ModulationLoRa, pkt.Modulation)
	assert.Equal(t, 7, pkt.DatrLoRaSF)
	assert.Equal(t, 125000, pkt.Bandwidth)
	assert.Equal(t, "4/5", pkt.CodeRate)
	assert.Equal(t, int8(14), pkt.RFPower)
	assert.Equal(t, uint16(8), pkt.Preamble)
	assert.Equal(t, uint32(868100000), pkt.FreqHz)
}

func TestParsePullRespTimestamped(t *testing.T) {
	body := pullRespBody(`"tmst":123456,"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF12BW500","codr":"4/8","size":2`)

	pkt, err := parsePullResp(body, nil)
	require.NoError(t, err)
	assert.Equal(t, radio.TxTimestamped, pkt.TxMode)
	assert.Equal(t, uint32(123456), pkt.CountUs)
	assert.Equal(t, 12, pkt.DatrLoRaSF)
	assert.Equal(t, 500000, pkt.Bandwidth)
	assert.Equal(t, "4/8", pkt.CodeRate)
}

func TestParsePullRespCodrAliasResolvesToCanonicalForm(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"2/3","size":2`)

	pkt, err := parsePullResp(body, nil)
	require.NoError(t, err)
	assert.Equal(t, "4/6", pkt.CodeRate)
}

func TestParsePullRespTimeModeUsesTimeReference(t *testing.T) {
	var ref state.TimeReference
	ref.Update(time.Now(), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 5000000)

	target := time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC)
	body := pullRespBody(`"time":"` + target.Format(time.RFC3339Nano) + `","freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"4/5","size":2`)

	pkt, err := parsePullResp(body, &ref)
	require.NoError(t, err)
	assert.Equal(t, radio.TxTimestamped, pkt.TxMode)
	assert.Equal(t, uint32(6000000), pkt.CountUs)
}

func TestParsePullRespTimeModeWithoutReferenceErrors(t *testing.T) {
	body := pullRespBody(`"time":"2024-06-01T12:00:01Z","freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"4/5","size":2`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}

func TestParsePullRespNoTimingModeErrors(t *testing.T) {
	body := pullRespBody(`"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"4/5","size":2`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}

func TestParsePullRespRejectsUnknownCodr(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"9/9","size":2`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}

func TestParsePullRespRejectsMalformedDatr(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF13BW125","codr":"4/5","size":2`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}

func TestParsePullRespClampsShortPreambleToMinimum(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"4/5","size":2,"prea":3`)

	pkt, err := parsePullResp(body, nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(6), pkt.Preamble)
}

func TestParsePullRespFSK(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"FSK","datr":"50000","fdev":25000,"size":2`)

	pkt, err := parsePullResp(body, nil)
	require.NoError(t, err)
	assert.Equal(t, radio.ModulationFSK, pkt.Modulation)
	assert.Equal(t, uint32(50000), pkt.FSKDatarate)
	assert.Equal(t, uint8(25), pkt.FDevHz)
	assert.Equal(t, uint16(4), pkt.Preamble)
}

func TestParsePullRespFSKRequiresFDev(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"FSK","datr":"50000","size":2`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}

func TestParsePullRespRejectsUnknownModulation(t *testing.T) {
	body := pullRespBody(`"imme":true,"freq":868.1,"rfch":0,"modu":"OOK","datr":"50000","size":2`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}

func TestParsePullRespRejectsBadBase64(t *testing.T) {
	body := []byte(`{"txpk":{"imme":true,"freq":868.1,"rfch":0,"modu":"LORA","datr":"SF7BW125","codr":"4/5","size":2,"data":"not-base64!!"}}`)

	_, err := parsePullResp(body, nil)
	assert.Error(t, err)
}
