/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

const DefaultGateway = "https://ipfs.io/ipfs/"

// ContentStore keeps files in memory under their CIDv1 (raw codec, sha2-256).
type ContentStore struct {
	gateway string
	mu      sync.RWMutex
	blobs   map[string][]byte
}

func NewContentStore(gateway string) *ContentStore {
	if len(gateway) == 0 {
		gateway = DefaultGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &ContentStore{gateway: gateway, blobs: map[string][]byte{}}
}

// ContentID computes the identifier content is stored under.
func ContentID(content []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(content, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "failed hashing content")
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

func (s *ContentStore) Store(_ context.Context, content []byte, fileName, _ string) (*driver.StoredContent, error) {
	if len(content) == 0 {
		return nil, errs.Validation("empty file [%s]", fileName)
	}
	id, err := ContentID(content)
	if err != nil {
		return nil, err
	}
	key := id.String()
	s.mu.Lock()
	s.blobs[key] = append([]byte{}, content...)
	s.mu.Unlock()
	return &driver.StoredContent{
		ContentID:    key,
		RetrievalURL: s.gateway + key,
		ByteSize:     int64(len(content)),
	}, nil
}

func (s *ContentStore) Retrieve(_ context.Context, contentID string) ([]byte, error) {
	c, err := cid.Decode(contentID)
	if err != nil {
		return nil, errs.Validation("malformed content id [%s]", contentID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[c.String()]
	if !ok {
		return nil, errs.NotFound("content [%s] not found", contentID)
	}
	return append([]byte{}, b...), nil
}
