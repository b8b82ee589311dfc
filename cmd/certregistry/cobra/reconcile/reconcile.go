/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package reconcile

import (
	"context"
	"fmt"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/common"
	sdk "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/sdk/dig"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// InstitutionID is the institution whose ledger registrations are scanned.
	InstitutionID string
	// Repair re-records missing certificates and applies ledger revocations.
	Repair bool
)

// Cmd returns the Cobra Command for Reconcile
func Cmd() *cobra.Command {
	flags := cobraCommand.Flags()
	flags.StringVarP(&InstitutionID, "institution", "i", "", "id of the institution to reconcile")
	flags.BoolVarP(&Repair, "repair", "r", false, "repair the discrepancies that can be repaired")
	return cobraCommand
}

var cobraCommand = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare ledger registrations with the registry.",
	Long:  `Scan the ledger registrations of an institution and report, and optionally repair, the ones the registry does not reflect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		if len(InstitutionID) == 0 {
			return errors.New("--institution is required")
		}
		cmd.SilenceUsage = true

		c, err := common.LoadConfig()
		if err != nil {
			return errors.WithMessage(err, "failed loading configuration")
		}
		s := sdk.NewSDK(c)
		if err := s.Install(); err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		services, err := s.Services()
		if err != nil {
			return err
		}

		report, err := services.Reconcile.Run(context.Background(), InstitutionID, Repair)
		if err != nil {
			return errors.WithMessagef(err, "failed reconciling [%s]", InstitutionID)
		}
		out, err := yaml.Marshal(report)
		if err != nil {
			return errors.Wrap(err, "failed marshalling report")
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
