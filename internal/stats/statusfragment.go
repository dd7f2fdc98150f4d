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

package stats

import (
	"encoding/json"
	"fmt"
	"time"
)

const isoLayout = "2006-01-02T15:04:05Z"

// statusFields is the GPS-enriched stat object. The three location fields
// are omitted (via omitempty and a pointer) when the GPS fix isn't
// currently valid, producing the abbreviated form without a second struct
// definition.
type statusFields struct {
	Time string   `json:"time"`
	Lati *float64 `json:"lati,omitempty"`
	Long *float64 `json:"long,omitempty"`
	Alti *float64 `json:"alti,omitempty"`
	Rxnb uint32   `json:"rxnb"`
	Rxok uint32   `json:"rxok"`
	Rxfw uint32   `json:"rxfw"`
	Ackr float64  `json:"ackr"`
	Dwnb uint32   `json:"dwnb"`
	Txnb uint32   `json:"txnb"`
	Pfrm string   `json:"pfrm"`
	Mail string   `json:"mail"`
	Desc string   `json:"desc"`
}

// renderStatusFragment builds the mandated `"stat":{...}` fragment, ready
// to be embedded directly into a PUSH_DATA body alongside "rxpk" (see
// internal/upstream's status-fragment consumer).
func renderStatusFragment(snap Snapshot, now time.Time, platform, contactEmail, description string) ([]byte, error) {
	txOk, _, dwnb := snap.downstreamTotal()

	f := statusFields{
		Time: now.UTC().Format(isoLayout),
		Rxnb: snap.Upstream.RxRcv,
		Rxok: snap.Upstream.RxOk,
		Rxfw: snap.Upstream.UpPktFwd,
		Ackr: snap.UpAckRatio,
		Dwnb: dwnb,
		Txnb: txOk,
		Pfrm: platform,
		Mail: contactEmail,
		Desc: description,
	}
	if snap.GPSValid {
		f.Lati = &snap.Latitude
		f.Long = &snap.Longitude
		f.Alti = &snap.Altitude
	}

	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("rendering status fragment: %w", err)
	}
	return append([]byte(`"stat":`), body...), nil
}
