/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cases := []struct {
		err      error
		kind     Kind
		sentinel error
	}{
		{Validation("reason required"), KindValidation, ErrValidation},
		{Conflict("duplicate certificate"), KindConflict, ErrConflict},
		{Forbidden("not the owner"), KindForbidden, ErrForbidden},
		{NotFound("student [%s] not found", "s1"), KindNotFound, ErrNotFound},
		{Integrity("ledger entry missing"), KindIntegrity, ErrIntegrity},
	}
	for _, c := range cases {
		wrapped := errors.WithMessage(c.err, "failed recording certificate")
		assert.Equal(t, c.kind, KindOf(wrapped))
		assert.True(t, errors.Is(wrapped, c.sentinel))
		for _, other := range sentinels {
			if other != c.sentinel {
				assert.False(t, errors.Is(wrapped, other))
			}
		}
	}
}

func TestWrapfKeepsCause(t *testing.T) {
	cause := errors.New("unique constraint")
	err := Wrapf(KindConflict, cause, "student [%s] already exists", "21BCE001")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "student [21BCE001] already exists", Message(err))
	assert.Contains(t, err.Error(), "unique constraint")
}

func TestKindOfPlain(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(errors.Wrap(ErrNotFound, "lookup")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
