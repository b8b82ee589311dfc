/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import (
	"context"
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/anchor"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/certificates"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/memory"
	storage "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	aliceAddr = "0x00000000000000000000000000000000000a11ce"
	bobAddr   = "0x0000000000000000000000000000000000000b0b"
)

type flakyStore struct {
	*storage.Store
	appendErr error
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(storage.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func (f *flakyStore) AppendCertificate(ctx context.Context, studentID string, c *model.Certificate) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Store.AppendCertificate(ctx, studentID, c)
}

type fixture struct {
	svc     *Service
	store   *flakyStore
	ledger  *memory.Ledger
	anchor  *anchor.Service
	content *memory.ContentStore
	student *model.Student
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	store := &flakyStore{Store: newStore(t)}
	for _, inst := range []struct{ id, handle, addr string }{{"inst-a", "alice", aliceAddr}, {"inst-b", "bob", bobAddr}} {
		p, err := model.NewProposal("Institute "+inst.handle, inst.handle, inst.handle+"@example.org", inst.addr)
		require.NoError(t, err)
		require.NoError(t, store.CreateInstitution(ctx, p.Institution(inst.id, model.InstitutionApproved, time.Now())))
	}

	engine, err := fingerprint.NewEngine(fingerprint.SHA512)
	require.NoError(t, err)
	provider := metrics.NewDisabledProvider()
	registry := certificates.NewRegistry(store, engine, certificates.NewMetrics(provider))
	ledger := memory.NewLedger(opts...)
	a := anchor.NewService(ledger, anchor.Config{MinInterval: -1, RetryDelay: time.Millisecond, NonceWaitInterval: time.Millisecond}, noop.NewTracerProvider(), anchor.NewMetrics(provider))
	t.Cleanup(func() { _ = a.Close() })
	content := memory.NewContentStore("")

	student, err := registry.AddStudent(ctx, model.StudentFields{
		FullName:           "Ada Lovelace",
		RegistrationNumber: "REG-001",
		AcademicYear:       "2024-2025",
		CurrentYear:        3,
		Branch:             "Mathematics",
	}, "inst-a")
	require.NoError(t, err)

	return &fixture{
		svc:     NewService(store, registry, a, content, NewMetrics(provider)),
		store:   store,
		ledger:  ledger,
		anchor:  a,
		content: content,
		student: student,
	}
}

func upload(content string) Upload {
	return Upload{Name: "Degree", FileName: "degree.pdf", MimeType: "application/pdf", Content: []byte(content)}
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma"))
	require.NoError(t, err)
	assert.True(t, c.ChainConfirmed)
	assert.Equal(t, fingerprint.Fingerprint([]byte("diploma")), c.Fingerprint)
	assert.NotEmpty(t, c.StorageContentID)

	e, err := f.ledger.GetEntry(ctx, c.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, c.ChainTxRef, e.TxRef)
	assert.Equal(t, aliceAddr, e.Issuer)
	assert.Equal(t, "REG-001", e.Metadata.RegistrationNumber)
	assert.Equal(t, c.StorageLocator, e.Metadata.StorageLocator)

	stored, err := f.content.Retrieve(ctx, c.StorageContentID)
	require.NoError(t, err)
	assert.Equal(t, "diploma", string(stored))

	inst, err := f.store.Institution(ctx, "inst-a")
	require.NoError(t, err)
	assert.Equal(t, 1, inst.CertificatesIssued)

	_, err = f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma"))
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Len(t, f.ledger.Submissions(), 1)
}

func TestIssueForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Issue(ctx, "inst-b", f.student.ID, upload("diploma"))
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.svc.Issue(ctx, "unknown", f.student.ID, upload("diploma"))
	assert.ErrorIs(t, err, errs.ErrForbidden)

	require.NoError(t, f.store.SetInstitutionState(ctx, "inst-a", model.InstitutionApproved, model.InstitutionSuspended))
	_, err = f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma"))
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Issue(ctx, "inst-b", f.student.ID, Upload{FileName: "x"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Empty(t, f.ledger.Submissions())
}

func TestIssueOrphanedAnchor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.appendErr = errors.New("disk full")

	_, err := f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma"))
	var oe *OrphanedAnchorError
	require.ErrorAs(t, err, &oe)
	assert.NotEmpty(t, oe.Receipt.TxRef)
	assert.Equal(t, fingerprint.Fingerprint([]byte("diploma")), oe.Fingerprint)

	ok, err := f.ledger.Exists(ctx, oe.Fingerprint)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma"))
	require.NoError(t, err)

	_, err = f.svc.Revoke(ctx, "inst-b", c.ID, "superseded")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.svc.Revoke(ctx, "inst-a", c.ID, "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// suspension freezes issuance, not revocation
	require.NoError(t, f.store.SetInstitutionState(ctx, "inst-a", model.InstitutionApproved, model.InstitutionSuspended))
	revoked, err := f.svc.Revoke(ctx, "inst-a", c.ID, "superseded")
	require.NoError(t, err)
	assert.True(t, revoked.Revocation.Revoked)

	e, err := f.ledger.GetEntry(ctx, c.Fingerprint)
	require.NoError(t, err)
	assert.True(t, e.Revoked)
	assert.Equal(t, e.RevocationTxRef, revoked.Revocation.TxRef)

	_, err = f.svc.Revoke(ctx, "inst-a", c.ID, "again")
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.WithAtomicReplace(true))

	old, err := f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma v1"))
	require.NoError(t, err)

	c, err := f.svc.Replace(ctx, "inst-a", old.ID, "superseded", upload("diploma v2"))
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Fingerprint([]byte("diploma v2")), c.Fingerprint)

	m, err := f.svc.registry.Certificate(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, m.Certificate.Revocation.Revoked)
	assert.Equal(t, c.Fingerprint, m.Certificate.Revocation.ReplacementFingerprint)
	assert.Len(t, m.Student.Certificates, 2)
}

func TestReplacePartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	old, err := f.svc.Issue(ctx, "inst-a", f.student.ID, upload("diploma v1"))
	require.NoError(t, err)
	// someone else already anchored the replacement
	_, err = f.anchor.Register(ctx, bobAddr, fingerprint.Fingerprint([]byte("diploma v2")), memoryMetadata())
	require.NoError(t, err)

	_, err = f.svc.Replace(ctx, "inst-a", old.ID, "superseded", upload("diploma v2"))
	var pe *anchor.PartialReplaceError
	require.ErrorAs(t, err, &pe)

	m, err := f.svc.registry.Certificate(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, m.Certificate.Revocation.Revoked)
	assert.Equal(t, pe.Revocation.TxRef, m.Certificate.Revocation.TxRef)
	assert.Len(t, m.Student.Certificates, 1)
}

func memoryMetadata() driver.EntryMetadata {
	return driver.EntryMetadata{StudentName: "Someone", RegistrationNumber: "X-1", FileName: "x.pdf", StorageLocator: "https://example.org/x"}
}
