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
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/lorafwd/gateway/internal/radio"
	"github.com/lorafwd/gateway/internal/state"
)

var loraDatrPattern = regexp.MustCompile(`^SF(7|8|9|10|11|12)BW(125|250|500)$`)

var codrAliases = map[string]string{
	"4/5": "4/5",
	"4/6": "4/6",
	"2/3": "4/6",
	"4/7": "4/7",
	"4/8": "4/8",
	"1/2": "4/8",
}

type txpkBody struct {
	TxPk txpkRaw `json:"txpk"`
}

type txpkRaw struct {
	Imme *bool   `json:"imme"`
	Tmst *uint32 `json:"tmst"`
	Time *string `json:"time"`
	Freq float64 `json:"freq"`
	RFCh uint8   `json:"rfch"`
	Powe *int8   `json:"powe"`
	Modu string  `json:"modu"`
	Datr string  `json:"datr"`
	Codr string  `json:"codr"`
	Size uint16  `json:"size"`
	Data string  `json:"data"`
	NCRC *bool   `json:"ncrc"`
	IPol *bool   `json:"ipol"`
	Prea *uint16 `json:"prea"`
	FDev *uint16 `json:"fdev"`
}

// parsePullResp parses a PULL_RESP body, converting it
// into a radio.TxPacket. timeRef resolves "time"-mode frames into
// concentrator counter values; it may be nil if GPS is not configured, in
// which case such frames are rejected.
func parsePullResp(body []byte, timeRef *state.TimeReference) (radio.TxPacket, error) {
	var parsed txpkBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return radio.TxPacket{}, fmt.Errorf("invalid PULL_RESP JSON: %w", err)
	}
	tx := parsed.TxPk

	payload, err := base64.StdEncoding.DecodeString(tx.Data)
	if err != nil {
		return radio.TxPacket{}, fmt.Errorf("invalid base64 payload: %w", err)
	}

	pkt := radio.TxPacket{
		FreqHz:  uint32(tx.Freq * 1e6),
		RFChain: tx.RFCh,
		Size:    tx.Size,
		Payload: payload,
	}

	switch {
	case tx.Imme != nil && *tx.Imme:
		pkt.TxMode = radio.TxImmediate
	case tx.Tmst != nil:
		pkt.TxMode = radio.TxTimestamped
		pkt.CountUs = *tx.Tmst
	case tx.Time != nil:
		if timeRef == nil {
			return radio.TxPacket{}, fmt.Errorf("PULL_RESP uses \"time\" but GPS is inactive")
		}
		t, err := time.Parse(time.RFC3339Nano, *tx.Time)
		if err != nil {
			return radio.TxPacket{}, fmt.Errorf("invalid time field: %w", err)
		}
		cnt, err := timeRef.Utc2Cnt(t)
		if err != nil {
			return radio.TxPacket{}, fmt.Errorf("time reference invalid: %w", err)
		}
		pkt.TxMode = radio.TxTimestamped
		pkt.CountUs = cnt
	default:
		return radio.TxPacket{}, fmt.Errorf("PULL_RESP has no timing mode")
	}

	if tx.Powe != nil {
		pkt.RFPower = *tx.Powe
	}
	if tx.NCRC != nil {
		pkt.NoCRC = *tx.NCRC
	}
	if tx.IPol != nil {
		pkt.InvertPol = *tx.IPol
	}

	switch tx.Modu {
	case "LORA":
		pkt.Modulation = radio.ModulationLoRa
		m := loraDatrPattern.FindStringSubmatch(tx.Datr)
		if m == nil {
			return radio.TxPacket{}, fmt.Errorf("invalid LoRa datr %q", tx.Datr)
		}
		sf := 0
		bw := 0
		fmt.Sscanf(m[1], "%d", &sf)
		fmt.Sscanf(m[2], "%d", &bw)
		pkt.DatrLoRaSF = sf
		pkt.Bandwidth = bw * 1000

		codr, ok := codrAliases[tx.Codr]
		if !ok {
			return radio.TxPacket{}, fmt.Errorf("invalid LoRa codr %q", tx.Codr)
		}
		pkt.CodeRate = codr

		pkt.Preamble = 8
		if tx.Prea != nil {
			pkt.Preamble = *tx.Prea
			if pkt.Preamble < 6 {
				pkt.Preamble = 6
			}
		}
	case "FSK":
		pkt.Modulation = radio.ModulationFSK
		var bps uint32
		if _, err := fmt.Sscanf(tx.Datr, "%d", &bps); err != nil {
			return radio.TxPacket{}, fmt.Errorf("invalid FSK datr %q", tx.Datr)
		}
		pkt.FSKDatarate = bps
		if tx.FDev == nil {
			return radio.TxPacket{}, fmt.Errorf("FSK frame missing fdev")
		}
		pkt.FDevHz = uint8(*tx.FDev / 1000)

		pkt.Preamble = 4
		if tx.Prea != nil {
			pkt.Preamble = *tx.Prea
			if pkt.Preamble < 3 {
				pkt.Preamble = 3
			}
		}
	default:
		return radio.TxPacket{}, fmt.Errorf("unknown modulation %q", tx.Modu)
	}

	return pkt, nil
}
