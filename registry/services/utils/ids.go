/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"github.com/hashicorp/go-uuid"
	"github.com/pkg/errors"
)

// IDGenerator returns a fresh opaque identifier.
type IDGenerator func() (string, error)

// NewID returns a random UUID.
func NewID() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", errors.Wrap(err, "failed generating id")
	}
	return id, nil
}
