/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import (
	"fmt"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
)

// PartialReplaceError reports a replacement whose revocation was confirmed
// but whose new registration failed. The old fingerprint stays revoked.
type PartialReplaceError struct {
	OldFingerprint string
	NewFingerprint string
	Revocation     *driver.Receipt
	Cause          error
}

func (e *PartialReplaceError) Error() string {
	return fmt.Sprintf("replacement of [%s] revoked it in [%s] but registering [%s] failed: %v",
		e.OldFingerprint, e.Revocation.TxRef, e.NewFingerprint, e.Cause)
}

func (e *PartialReplaceError) Unwrap() error { return e.Cause }
