/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import "context"

type StoredContent struct {
	ContentID    string `json:"contentId"`
	RetrievalURL string `json:"retrievalUrl"`
	ByteSize     int64  `json:"byteSize"`
}

// ContentStore puts certificate files in content-addressed storage.
// The registry keeps only the identifiers it returns.
type ContentStore interface {
	Store(ctx context.Context, content []byte, fileName, mimeType string) (*StoredContent, error)
	Retrieve(ctx context.Context, contentID string) ([]byte, error)
}
