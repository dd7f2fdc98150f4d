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
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lorafwd/gateway/internal/config"
	"github.com/lorafwd/gateway/internal/gateway"
	"github.com/lorafwd/gateway/internal/radio/fake"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the gateway and block until shutdown",
	RunE:  runE,
}

func runE(_ *cobra.Command, _ []string) error {
	configureLogLevel()

	cfg, err := config.Load(configDirFlag)
	if err != nil {
		return err
	}

	// No real SX130x/libloragw binding ships in this build; the fake,
	// deterministic software concentrator stands in for it so the gateway
	// is runnable without hardware attached.
	g, err := gateway.New(cfg, fake.New())
	if err != nil {
		return err
	}

	log.Infof("lorafwd starting, gateway_id=%016X, %d server(s) configured", cfg.GatewayID, len(cfg.Servers))
	return g.Run(context.Background())
}
