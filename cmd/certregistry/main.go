/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/common"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/config"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/fingerprint"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/reconcile"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/serve"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/version"
	"github.com/spf13/cobra"
)

// The main command describes the service and
// defaults to printing the help message.
var mainCmd = &cobra.Command{Use: version.ProgramName}

func main() {
	common.AddConfigFlag(mainCmd)
	mainCmd.AddCommand(serve.Cmd())
	mainCmd.AddCommand(fingerprint.Cmd())
	mainCmd.AddCommand(reconcile.Cmd())
	mainCmd.AddCommand(config.Cmd())
	mainCmd.AddCommand(version.Cmd())

	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
