/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"os"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/spf13/cobra"
)

// ConfigFile is the path given with --config, falling back to CERTREG_CONFIG_FILE.
var ConfigFile string

// AddConfigFlag registers --config on cmd and its children.
func AddConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "path of a config file merged over the defaults")
}

// LoadConfig loads the configuration and initialises logging from it.
func LoadConfig() (*config.Configuration, error) {
	file := ConfigFile
	if len(file) == 0 {
		file = os.Getenv(config.ConfigFileEnv)
	}
	c, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Spec: c.Logging.Spec, Format: c.Logging.Format})
	return c, nil
}
