/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"fmt"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/common"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Cmd returns the Cobra Command for config handling.
func Cmd() *cobra.Command {
	configCobraCommand.AddCommand(printCobraCommand)
	return configCobraCommand
}

var configCobraCommand = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration.",
}

var printCobraCommand = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration.",
	Long:  `Print the configuration that results from the defaults, the config file and CERTREG_ environment overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		c, err := common.LoadConfig()
		if err != nil {
			return errors.WithMessage(err, "failed loading configuration")
		}
		out, err := config.Print(c)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
