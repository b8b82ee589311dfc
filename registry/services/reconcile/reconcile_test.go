/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package reconcile

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const issuerAddr = "0x00000000000000000000000000000000000a11ce"

type fixture struct {
	svc      *Service
	registry *certificates.Registry
	anchor   *anchor.Service
	student  *model.Student
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(storage.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newStore(t)
	p, err := model.NewProposal("Institute", "inst", "inst@example.org", issuerAddr)
	require.NoError(t, err)
	require.NoError(t, store.CreateInstitution(ctx, p.Institution("inst-a", model.InstitutionApproved, time.Now())))

	engine, err := fingerprint.NewEngine(fingerprint.SHA512)
	require.NoError(t, err)
	provider := metrics.NewDisabledProvider()
	registry := certificates.NewRegistry(store, engine, certificates.NewMetrics(provider))
	ledger := memory.NewLedger()
	a := anchor.NewService(ledger, anchor.Config{MinInterval: -1}, noop.NewTracerProvider(), anchor.NewMetrics(provider))
	t.Cleanup(func() { _ = a.Close() })

	student, err := registry.AddStudent(ctx, model.StudentFields{
		FullName:           "Ada Lovelace",
		RegistrationNumber: "REG-001",
		AcademicYear:       "2024-2025",
		CurrentYear:        2,
		Branch:             "Mathematics",
	}, "inst-a")
	require.NoError(t, err)

	return &fixture{
		svc:      NewService(ledger, registry, store, 4),
		registry: registry,
		anchor:   a,
		student:  student,
	}
}

func (f *fixture) anchorOnly(t *testing.T, content, reg string) string {
	t.Helper()
	fp := fingerprint.Fingerprint([]byte(content))
	_, err := f.anchor.Register(context.Background(), issuerAddr, fp, driver.EntryMetadata{
		StudentName:        "Ada Lovelace",
		RegistrationNumber: reg,
		FileName:           content + ".pdf",
		StorageLocator:     "https://storage.example.org/" + content,
		CertificateName:    "Degree",
		ByteSize:           int64(len(content)),
	})
	require.NoError(t, err)
	return fp
}

func (f *fixture) record(t *testing.T, content string) *model.Certificate {
	t.Helper()
	fp := f.anchorOnly(t, content, f.student.RegistrationNumber)
	c, err := f.registry.RecordCertificate(context.Background(), "inst-a", f.student.ID, model.CertificateData{
		Name:           "Degree",
		Fingerprint:    fp,
		StorageLocator: "https://storage.example.org/" + content,
		FileName:       content + ".pdf",
		ByteSize:       int64(len(content)),
	})
	require.NoError(t, err)
	return c
}

func TestReconcileClean(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, c := range []string{"one", "two", "three"} {
		f.record(t, c)
	}

	r, err := f.svc.Run(ctx, "inst-a", false)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Scanned)
	assert.True(t, r.Clean())
	assert.Equal(t, issuerAddr, r.ChainAddress)
}

func TestReconcileMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.record(t, "one")
	orphan := f.anchorOnly(t, "orphan", "reg-001")
	stray := f.anchorOnly(t, "stray", "REG-404")

	r, err := f.svc.Run(ctx, "inst-a", false)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Count(Missing))

	r, err = f.svc.Run(ctx, "inst-a", true)
	require.NoError(t, err)
	require.Len(t, r.Discrepancies, 2)
	for _, d := range r.Discrepancies {
		switch d.Fingerprint {
		case orphan:
			assert.True(t, d.Repaired)
			assert.NotEmpty(t, d.CertificateID)
		case stray:
			assert.False(t, d.Repaired)
			assert.NotEmpty(t, d.RepairError)
		}
	}

	m, err := f.registry.FindByFingerprint(ctx, orphan)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, m.Student.ID)
	assert.True(t, m.Certificate.ChainConfirmed)

	r, err = f.svc.Run(ctx, "inst-a", false)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count(Missing))
}

func TestReconcileRevocationDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	onLedger := f.record(t, "revoked on ledger")
	offChain := f.record(t, "revoked off chain")

	_, err := f.anchor.Revoke(ctx, issuerAddr, onLedger.Fingerprint, "superseded")
	require.NoError(t, err)
	_, err = f.registry.Revoke(ctx, "inst-a", offChain.ID, "withdrawn", "", "")
	require.NoError(t, err)

	r, err := f.svc.Run(ctx, "inst-a", true)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count(RevokedOnLedger))
	assert.Equal(t, 1, r.Count(RevokedOffChain))

	m, err := f.registry.Certificate(ctx, onLedger.ID)
	require.NoError(t, err)
	assert.True(t, m.Certificate.Revocation.Revoked)
	assert.Equal(t, "superseded", m.Certificate.Revocation.Reason)

	r, err = f.svc.Run(ctx, "inst-a", false)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Count(RevokedOnLedger))
	assert.Equal(t, 1, r.Count(RevokedOffChain))
}

func TestReconcileUnknownInstitution(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Run(context.Background(), "missing", false)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
