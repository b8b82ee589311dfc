/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"math/big"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/memory"
	"github.com/pkg/errors"
)

const Memory = "memory"

type LedgerConfig struct {
	Driver        string        `mapstructure:"driver" yaml:"driver"`
	AtomicReplace bool          `mapstructure:"atomicReplace" yaml:"atomicReplace"`
	Latency       time.Duration `mapstructure:"latency" yaml:"latency"`
	// GasPrice in wei; zero keeps the driver default.
	GasPrice int64 `mapstructure:"gasPrice" yaml:"gasPrice"`
}

type ContentConfig struct {
	Driver  string `mapstructure:"driver" yaml:"driver"`
	Gateway string `mapstructure:"gateway" yaml:"gateway"`
}

// NewLedger returns the ledger client named by c.Driver.
func NewLedger(c LedgerConfig) (driver.Ledger, error) {
	switch c.Driver {
	case Memory, "":
		opts := []memory.Option{memory.WithAtomicReplace(c.AtomicReplace), memory.WithLatency(c.Latency)}
		if c.GasPrice > 0 {
			opts = append(opts, memory.WithGasPrice(big.NewInt(c.GasPrice)))
		}
		return memory.NewLedger(opts...), nil
	}
	return nil, errors.Errorf("unknown ledger driver [%s]", c.Driver)
}

// NewContentStore returns the content store named by c.Driver, or nil for "none".
func NewContentStore(c ContentConfig) (driver.ContentStore, error) {
	switch c.Driver {
	case Memory, "":
		return memory.NewContentStore(c.Gateway), nil
	case "none":
		return nil, nil
	}
	return nil, errors.Errorf("unknown content store driver [%s]", c.Driver)
}
