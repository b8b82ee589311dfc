/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fingerprint

import (
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"strings"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

type Algorithm string

const (
	// SHA512 matches the digest browsers compute with WebCrypto, so a file hashed
	// client side and a file hashed here agree byte for byte.
	SHA512   Algorithm = "sha512"
	SHA3_512 Algorithm = "sha3-512"
)

var defaultEngine = &Engine{algorithm: SHA512, newHash: sha512.New}

// Fingerprint returns the lowercase hex SHA-512 digest of b.
func Fingerprint(b []byte) string {
	return defaultEngine.Fingerprint(b)
}

// Engine computes fingerprints with a fixed algorithm.
// The same engine must serve issuance and verification.
type Engine struct {
	algorithm Algorithm
	newHash   func() hash.Hash
}

func NewEngine(algorithm Algorithm) (*Engine, error) {
	switch strings.ToLower(string(algorithm)) {
	case "", string(SHA512):
		return &Engine{algorithm: SHA512, newHash: sha512.New}, nil
	case string(SHA3_512):
		return &Engine{algorithm: SHA3_512, newHash: sha3.New512}, nil
	}
	return nil, errors.Errorf("unsupported fingerprint algorithm [%s]", algorithm)
}

func (e *Engine) Algorithm() Algorithm { return e.algorithm }

// HexLength is the length of a well-formed fingerprint.
func (e *Engine) HexLength() int { return e.newHash().Size() * 2 }

func (e *Engine) Fingerprint(b []byte) string {
	h := e.newHash()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintReader streams r through the hash.
func (e *Engine) FingerprintReader(r io.Reader) (string, int64, error) {
	h := e.newHash()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, errors.Wrapf(err, "failed reading content")
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Validate normalises a presented fingerprint to lower case and checks its
// length and alphabet.
func (e *Engine) Validate(fp string) (string, error) {
	fp = strings.ToLower(strings.TrimSpace(fp))
	if len(fp) != e.HexLength() {
		return "", errs.Validation("malformed fingerprint: expected %d hex characters, got %d", e.HexLength(), len(fp))
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return "", errs.Validation("malformed fingerprint: not hex encoded")
	}
	return fp, nil
}
