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

	"github.com/spf13/cobra"

	"github.com/lorafwd/gateway/internal/config"
)

var dumpConfigCmd = &cobra.Command{
	Use:   "dump-config",
	Short: "load, merge and validate the configuration, then print it as YAML",
	RunE:  dumpConfigE,
}

func dumpConfigE(_ *cobra.Command, _ []string) error {
	configureLogLevel()

	cfg, err := config.Load(configDirFlag)
	if err != nil {
		return err
	}
	out, err := cfg.DumpYAML()
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
