/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"fmt"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/sql/sqlite"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/utils"
	"github.com/pkg/errors"
)

const Persistence = "memory"

// Store is a sqlite store whose database lives in memory.
type Store = sqlite.Store

type Config struct {
	TablePrefix string `mapstructure:"tablePrefix" yaml:"tablePrefix"`
}

// NewStore opens a private in-memory database. Each call gets its own
// database, dropped when the store is closed.
func NewStore(c Config) (*Store, error) {
	name, err := utils.NewID()
	if err != nil {
		return nil, errors.Wrap(err, "failed naming in-memory db")
	}
	return sqlite.NewStore(sqlite.Config{
		DataSource:  DataSource(name),
		TablePrefix: c.TablePrefix,
	})
}

// DataSource returns the sqlite data source of the named in-memory database.
func DataSource(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}
