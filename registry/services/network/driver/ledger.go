/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"math/big"
	"time"
)

type Operation string

const (
	Register Operation = "register"
	Revoke   Operation = "revoke"
	Replace  Operation = "replace"
)

// EntryMetadata is what a registration binds to a fingerprint on the ledger.
type EntryMetadata struct {
	StudentName        string `json:"studentName"`
	RegistrationNumber string `json:"registrationNumber"`
	FileName           string `json:"fileName"`
	StorageLocator     string `json:"storageLocator"`
	StorageContentID   string `json:"storageContentId,omitempty"`
	CertificateName    string `json:"certificateName,omitempty"`
	ByteSize           int64  `json:"byteSize,omitempty"`
}

// Entry is the ledger view of a registered fingerprint.
type Entry struct {
	Fingerprint      string        `json:"fingerprint"`
	Metadata         EntryMetadata `json:"metadata"`
	Issuer           string        `json:"issuer"`
	TxRef            string        `json:"txRef"`
	BlockRef         uint64        `json:"blockRef"`
	RegisteredAt     time.Time     `json:"registeredAt"`
	Revoked          bool          `json:"revoked"`
	RevocationReason string        `json:"revocationReason,omitempty"`
	RevokedAt        *time.Time    `json:"revokedAt,omitempty"`
	RevocationTxRef  string        `json:"revocationTxRef,omitempty"`
	ReplacedBy       string        `json:"replacedBy,omitempty"`
}

// Call is a state-changing ledger invocation.
type Call struct {
	Op             Operation
	Fingerprint    string
	Metadata       EntryMetadata
	Reason         string
	NewFingerprint string
}

// Key identifies the call for deduplication.
func (c Call) Key() string {
	return string(c.Op) + ":" + c.Fingerprint
}

type TxOptions struct {
	Nonce    uint64
	GasLimit uint64
	GasPrice *big.Int
}

type PendingTx struct {
	Hash  string
	From  string
	Nonce uint64
}

type Receipt struct {
	TxRef    string `json:"txRef"`
	BlockRef uint64 `json:"blockRef"`
	GasUsed  uint64 `json:"gasUsed"`
}

// Ledger is the client of the append-only registry contract.
// Addresses are lower-case hex strings.
type Ledger interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	// GetEntry returns errs.ErrNotFound for unknown fingerprints.
	GetEntry(ctx context.Context, fingerprint string) (*Entry, error)
	// Entries lists the entries registered by issuer in registration order.
	Entries(ctx context.Context, issuer string) ([]*Entry, error)
	// Nonce returns the next nonce of address; pending includes unconfirmed transactions.
	Nonce(ctx context.Context, address string, pending bool) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	// EstimateCost simulates the call and returns the gas it would use.
	EstimateCost(ctx context.Context, from string, call Call) (uint64, error)
	Submit(ctx context.Context, from string, call Call, opts TxOptions) (*PendingTx, error)
	AwaitConfirmation(ctx context.Context, tx *PendingTx) (*Receipt, error)
	// SupportsAtomicReplace reports whether the Replace operation is available.
	SupportsAtomicReplace() bool
}
