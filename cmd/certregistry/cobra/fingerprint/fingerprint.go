/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fingerprint

import (
	"fmt"
	"os"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Algorithm selects the digest, sha512 or sha3-512.
var Algorithm string

// Cmd returns the Cobra Command for Fingerprint
func Cmd() *cobra.Command {
	cobraCommand.Flags().StringVarP(&Algorithm, "algorithm", "a", string(fingerprint.SHA512), "digest algorithm (sha512 or sha3-512)")
	return cobraCommand
}

var cobraCommand = &cobra.Command{
	Use:   "fingerprint FILE...",
	Short: "Print the fingerprint of certificate files.",
	Long:  `Print the fingerprint the registry records for each file, one "<fingerprint>  <file>" line per file.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		engine, err := fingerprint.NewEngine(fingerprint.Algorithm(Algorithm))
		if err != nil {
			return err
		}
		for _, path := range args {
			fp, err := fingerprintFile(engine, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", fp, path)
		}
		return nil
	},
}

func fingerprintFile(engine *fingerprint.Engine, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed opening [%s]", path)
	}
	defer f.Close()
	fp, _, err := engine.FingerprintReader(f)
	return fp, err
}
