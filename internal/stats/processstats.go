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
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var processStartTime = time.Now()

// processStats gathers the gateway process's own resource usage, surfaced
// under the "process.*" keys of the JSON stats endpoint, trimmed to
// process-level fields only: Go-runtime memstats have no
// equivalent here since nothing downstream cares about this process's GC
// pressure specifically.
func processStats() (map[string]uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	stats := map[string]uint64{
		"process.uptime": uint64(time.Since(processStartTime).Seconds()),
	}

	if pct, err := proc.Percent(0); err == nil {
		stats["process.cpu_pct"] = uint64(pct * 100)
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		stats["process.rss"] = mem.RSS
		stats["process.vms"] = mem.VMS
		stats["process.swap"] = mem.Swap
	}
	if fds, err := proc.NumFDs(); err == nil {
		stats["process.num_fds"] = uint64(fds)
	}
	if threads, err := proc.NumThreads(); err == nil {
		stats["process.num_threads"] = uint64(threads)
	}

	return stats, nil
}
