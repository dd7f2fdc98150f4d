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
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

// printHumanReport renders "print the human report" as a
// counter/value/ratio table, colorized when stdout is a terminal.
func printHumanReport(w io.Writer, snap Snapshot) {
	colorize := false
	if f, ok := w.(*os.File); ok {
		colorize = term.IsTerminal(int(f.Fd()))
	}

	table := tablewriter.NewWriter(w)
	table.SetColWidth(24)
	table.SetHeader([]string{"counter", "value", "ratio"})

	table.Append([]string{"rx_rcv", fmt.Sprint(snap.Upstream.RxRcv), ""})
	table.Append([]string{"rx_ok", fmt.Sprint(snap.Upstream.RxOk), fmt.Sprintf("%.1f%%", snap.RxOkRatio*100)})
	table.Append([]string{"rx_bad", fmt.Sprint(snap.Upstream.RxBad), ""})
	table.Append(fwdRow(colorize, snap))
	table.Append([]string{"up_ack_rcv", fmt.Sprint(snap.Upstream.UpAckRcv), fmt.Sprintf("%.1f%%", snap.UpAckRatio*100)})

	for _, srv := range snap.Servers {
		table.Append([]string{srv.Name + ".pull_sent", fmt.Sprint(srv.Counters.DwPullSent), ""})
		table.Append([]string{srv.Name + ".ack_rcv", fmt.Sprint(srv.Counters.DwAckRcv), ""})
		table.Append([]string{srv.Name + ".tx_ok", fmt.Sprint(srv.Counters.NbTxOk), ""})
		table.Append([]string{srv.Name + ".tx_fail", fmt.Sprint(srv.Counters.NbTxFail), ""})
	}

	if snap.XtalValid {
		table.Append([]string{"xtal_correct", fmt.Sprintf("%.9f", snap.XtalCorrect), ""})
	}

	table.Render()
}

// fwdRow highlights the "packets received but none forwarded" condition in
// red when writing to a terminal.
func fwdRow(colorize bool, snap Snapshot) []string {
	value := fmt.Sprint(snap.Upstream.UpPktFwd)
	ratio := fmt.Sprintf("%.1f%%", snap.ForwardRatio*100)
	if colorize && snap.Upstream.RxRcv > 0 && snap.Upstream.UpPktFwd == 0 {
		red := color.New(color.FgRed).SprintFunc()
		return []string{"up_pkt_fwd", red(value), red(ratio)}
	}
	return []string{"up_pkt_fwd", value, ratio}
}
