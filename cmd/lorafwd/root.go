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

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd is the entry point; it defaults to the same behavior as the
// explicit "run" subcommand when invoked with no subcommand.
var rootCmd = &cobra.Command{
	Use:   "lorafwd",
	Short: "LoRa packet forwarder gateway bridge",
	RunE:  runE,
}

var (
	configDirFlag string
	logLevelFlag  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", ".", "directory holding global_conf.json/local_conf.json/debug_conf.json")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "loglevel", "info", "log level: debug, info, warning, error")
	rootCmd.AddCommand(runCmd, dumpConfigCmd, versionCmd)
}

// configureLogLevel applies logLevelFlag; called by every subcommand before
// doing real work, matching cmd/ptpcheck's ConfigureVerbosity pattern.
func configureLogLevel() {
	switch logLevelFlag {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("unrecognized log level: %s", logLevelFlag)
	}
}

// Execute is the process entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
