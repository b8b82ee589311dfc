/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreProvider opens a fresh, empty store for the named test case.
type StoreProvider func(name string) (driver.Store, error)

// StoreTest runs every store case against stores obtained from the provider.
func StoreTest(t *testing.T, provider StoreProvider) {
	t.Helper()
	for _, c := range StoreCases {
		store, err := provider(c.Name)
		if err != nil {
			t.Fatal(err)
		}
		t.Run(c.Name, func(xt *testing.T) {
			defer func() { _ = store.Close() }()
			c.Fn(xt, store)
		})
	}
}

// StoreCases collects test functions that store implementations can use for integration tests
var StoreCases = []struct {
	Name string
	Fn   func(*testing.T, driver.Store)
}{
	{"InstitutionUniqueness", TInstitutionUniqueness},
	{"InstitutionStates", TInstitutionStates},
	{"IdentifiersInUse", TIdentifiersInUse},
	{"Seed", TSeed},
	{"VoteApproval", TVoteApproval},
	{"VoteRejection", TVoteRejection},
	{"ConcurrentVotes", TConcurrentVotes},
	{"StudentScoping", TStudentScoping},
	{"CertificateUniqueness", TCertificateUniqueness},
	{"RevocationIrreversible", TRevocationIrreversible},
	{"SearchStudents", TSearchStudents},
	{"DeleteStudent", TDeleteStudent},
	{"Companies", TCompanies},
}

var epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return epoch.Add(time.Duration(minutes) * time.Minute) }

func institution(id string, state model.InstitutionState) *model.Institution {
	p := model.Proposal{
		LegalName:      "Institute " + id,
		Handle:         "handle-" + id,
		ContactAddress: id + "@example.edu",
		ChainAddress:   "0x" + id,
		CredentialHash: "hash-" + id,
	}
	return p.Institution(id, state, epoch)
}

func student(id, institutionID, regNo, name string) *model.Student {
	s, err := model.NewStudent(id, model.StudentFields{
		FullName:           name,
		RegistrationNumber: regNo,
		AcademicYear:       "2021-2025",
		CurrentYear:        3,
		Branch:             "Computer Science",
	}, institutionID, epoch)
	if err != nil {
		panic(err)
	}
	return s
}

func certificate(id, issuerID, fp string, minute int) *model.Certificate {
	c, err := model.NewCertificate(id, model.CertificateData{
		Name:             "Degree " + id,
		Fingerprint:      fp,
		StorageLocator:   "ipfs://" + fp,
		StorageContentID: "",
		FileName:         id + ".pdf",
		ByteSize:         1024,
		ChainTxRef:       "0xtx" + id,
		ChainBlockRef:    uint64(minute),
	}, issuerID, at(minute))
	if err != nil {
		panic(err)
	}
	return c
}

func approveAll(approvals, rejections, n int) model.RequestState {
	required := (7*n + 9) / 10
	switch {
	case n > 0 && approvals >= required:
		return model.RequestApproved
	case rejections > n-required:
		return model.RequestRejected
	}
	return model.RequestPending
}

func TInstitutionUniqueness(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateInstitution(ctx, institution("a", model.InstitutionApproved)))

	dup := institution("b", model.InstitutionApproved)
	dup.Handle = "handle-a"
	assert.True(t, errors.Is(db.CreateInstitution(ctx, dup), errs.ErrConflict))

	dup = institution("c", model.InstitutionApproved)
	dup.ChainAddress = "0xa"
	assert.True(t, errors.Is(db.CreateInstitution(ctx, dup), errs.ErrConflict))

	inst, err := db.Institution(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "handle-a", inst.Handle)
	assert.Equal(t, "hash-a", inst.CredentialHash)
	assert.Equal(t, model.InstitutionApproved, inst.State)

	_, err = db.Institution(ctx, "missing")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TInstitutionStates(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateInstitution(ctx, institution("a", model.InstitutionApproved)))
	require.NoError(t, db.CreateInstitution(ctx, institution("b", model.InstitutionApproved)))

	n, err := db.CountInstitutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, db.SetInstitutionState(ctx, "a", model.InstitutionApproved, model.InstitutionSuspended))
	err = db.SetInstitutionState(ctx, "a", model.InstitutionApproved, model.InstitutionSuspended)
	assert.True(t, errors.Is(err, errs.ErrConflict))
	err = db.SetInstitutionState(ctx, "zz", model.InstitutionApproved, model.InstitutionSuspended)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	approved, err := db.Institutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "b", approved[0].ID)

	all, err := db.Institutions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TIdentifiersInUse(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateInstitution(ctx, institution("a", model.InstitutionApproved)))
	p, err := model.NewProposal("New Institute", "fresh", "fresh@example.edu", "0xfresh")
	require.NoError(t, err)
	require.NoError(t, db.CreateRequest(ctx, model.NewRegistrationRequest("r1", p, epoch)))

	for _, c := range []struct {
		handle, contact, chain string
		inUse                  bool
	}{
		{"handle-a", "x@y", "0xnone", true},
		{"nobody", "a@example.edu", "0xnone", true},
		{"nobody", "x@y", "0xa", true},
		{"fresh", "x@y", "0xnone", true},
		{"nobody", "x@y", "0xfresh", true},
		{"nobody", "x@y", "0xnone", false},
	} {
		inUse, err := db.IdentifiersInUse(ctx, c.handle, c.contact, c.chain)
		require.NoError(t, err)
		assert.Equal(t, c.inUse, inUse, "%v", c)
	}
}

func TSeed(t *testing.T, db driver.Store) {
	ctx := context.Background()
	const n = 6
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- db.SeedInstitution(ctx, institution(fmt.Sprintf("seed%d", i), model.InstitutionApproved))
		}(i)
	}
	wg.Wait()
	close(errCh)

	seeded := 0
	for err := range errCh {
		if err == nil {
			seeded++
			continue
		}
		assert.True(t, errors.Is(err, errs.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, seeded)
	count, err := db.CountInstitutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// a suspended founder leaves no approved institution
	all, err := db.Institutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	require.NoError(t, db.SetInstitutionState(ctx, all[0].ID, model.InstitutionApproved, model.InstitutionSuspended))
	require.NoError(t, db.SeedInstitution(ctx, institution("reseed", model.InstitutionApproved)))
	err = db.SeedInstitution(ctx, institution("late", model.InstitutionApproved))
	assert.True(t, errors.Is(err, errs.ErrConflict))
}

func TVoteApproval(t *testing.T, db driver.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateInstitution(ctx, institution(fmt.Sprintf("v%d", i), model.InstitutionApproved)))
	}
	p, err := model.NewProposal("New Institute", "fresh", "fresh@example.edu", "0xfresh")
	require.NoError(t, err)
	p.CredentialHash = "bcrypt-hash"
	require.NoError(t, db.CreateRequest(ctx, model.NewRegistrationRequest("r1", p, epoch)))

	// N=3, required=3
	r, err := db.RecordVote(ctx, "r1", model.Vote{VoterID: "v0", Decision: model.Approve, CastAt: at(1)}, approveAll, "new-inst")
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, r.State)
	assert.Equal(t, 1, r.Approvals)

	_, err = db.RecordVote(ctx, "r1", model.Vote{VoterID: "v0", Decision: model.Reject, CastAt: at(2)}, approveAll, "new-inst")
	assert.True(t, errors.Is(err, errs.ErrConflict))
	r, err = db.Request(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Approvals)
	assert.Equal(t, 0, r.Rejections)
	require.Len(t, r.Votes, 1)

	_, err = db.RecordVote(ctx, "r1", model.Vote{VoterID: "v1", Decision: model.Approve, CastAt: at(3)}, approveAll, "new-inst")
	require.NoError(t, err)
	r, err = db.RecordVote(ctx, "r1", model.Vote{VoterID: "v2", Decision: model.Approve, CastAt: at(4)}, approveAll, "new-inst")
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, r.State)
	assert.Equal(t, "new-inst", r.InstitutionID)
	require.NotNil(t, r.ResolvedAt)
	assert.Equal(t, []string{"v0", "v1", "v2"}, voters(r))

	inst, err := db.Institution(ctx, "new-inst")
	require.NoError(t, err)
	assert.Equal(t, model.InstitutionApproved, inst.State)
	assert.Equal(t, "bcrypt-hash", inst.CredentialHash)
	assert.Equal(t, "fresh", inst.Handle)

	_, err = db.RecordVote(ctx, "r1", model.Vote{VoterID: "new-inst", Decision: model.Approve, CastAt: at(5)}, approveAll, "other")
	assert.True(t, errors.Is(err, errs.ErrConflict))

	_, err = db.RecordVote(ctx, "missing", model.Vote{VoterID: "v0", Decision: model.Approve, CastAt: at(5)}, approveAll, "other")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	pending, err := db.Requests(ctx, model.RequestPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TVoteRejection(t *testing.T, db driver.Store) {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, db.CreateInstitution(ctx, institution(fmt.Sprintf("v%d", i), model.InstitutionApproved)))
	}
	p, err := model.NewProposal("New Institute", "fresh", "fresh@example.edu", "0xfresh")
	require.NoError(t, err)
	require.NoError(t, db.CreateRequest(ctx, model.NewRegistrationRequest("r1", p, epoch)))

	// N=10: required=7, maxRejections=3
	var r *model.RegistrationRequest
	for i := 0; i < 4; i++ {
		r, err = db.RecordVote(ctx, "r1", model.Vote{VoterID: fmt.Sprintf("v%d", i), Decision: model.Reject, CastAt: at(i)}, approveAll, "new-inst")
		require.NoError(t, err)
		if i < 3 {
			assert.Equal(t, model.RequestPending, r.State)
		}
	}
	assert.Equal(t, model.RequestRejected, r.State)
	assert.Equal(t, 4, r.Rejections)
	assert.Empty(t, r.InstitutionID)

	_, err = db.Institution(ctx, "new-inst")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TConcurrentVotes(t *testing.T, db driver.Store) {
	ctx := context.Background()
	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, db.CreateInstitution(ctx, institution(fmt.Sprintf("v%d", i), model.InstitutionApproved)))
	}
	p, err := model.NewProposal("New Institute", "fresh", "fresh@example.edu", "0xfresh")
	require.NoError(t, err)
	require.NoError(t, db.CreateRequest(ctx, model.NewRegistrationRequest("r1", p, epoch)))

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := db.RecordVote(ctx, "r1", model.Vote{VoterID: fmt.Sprintf("v%d", i), Decision: model.Approve, CastAt: at(i)}, approveAll, "new-inst")
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)

	accepted, conflicts := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, errs.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// the request resolves at the 7th approval, later votes find it closed
	assert.Equal(t, 7, accepted)
	assert.Equal(t, 3, conflicts)

	r, err := db.Request(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, r.State)
	assert.Equal(t, 7, r.Approvals)
	assert.Len(t, r.Votes, 7)

	count, err := db.CountInstitutions(ctx, model.InstitutionApproved)
	require.NoError(t, err)
	assert.Equal(t, n+1, count)
}

func TStudentScoping(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateStudent(ctx, student("s1", "inst1", "21bce001", "Asha Rao")))
	require.NoError(t, db.CreateStudent(ctx, student("s2", "inst2", "21BCE001", "Ravi Kumar")))
	err := db.CreateStudent(ctx, student("s3", "inst1", " 21BCE001 ", "Someone Else"))
	assert.True(t, errors.Is(err, errs.ErrConflict))

	s, err := db.StudentByRegistration(ctx, "inst2", "21bce001")
	require.NoError(t, err)
	assert.Equal(t, "s2", s.ID)

	_, err = db.StudentByRegistration(ctx, "inst3", "21BCE001")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	s, err = db.Student(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "21BCE001", s.RegistrationNumber)
	assert.Equal(t, "Computer Science", s.Branch)
	assert.Equal(t, 3, s.CurrentYear)
	assert.Empty(t, s.Certificates)

	_, err = db.Student(ctx, "nope")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TCertificateUniqueness(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateInstitution(ctx, institution("inst1", model.InstitutionApproved)))
	require.NoError(t, db.CreateStudent(ctx, student("s1", "inst1", "A1", "Asha Rao")))
	require.NoError(t, db.CreateStudent(ctx, student("s2", "inst1", "A2", "Ravi Kumar")))

	require.NoError(t, db.AppendCertificate(ctx, "s1", certificate("c1", "inst1", "aa11", 1)))
	require.NoError(t, db.AppendCertificate(ctx, "s1", certificate("c2", "inst1", "bb22", 2)))

	err := db.AppendCertificate(ctx, "s2", certificate("c3", "inst1", "aa11", 3))
	assert.True(t, errors.Is(err, errs.ErrConflict))
	err = db.AppendCertificate(ctx, "missing", certificate("c4", "inst1", "cc33", 4))
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	s, err := db.Student(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.Certificates, 2)
	assert.Equal(t, "c1", s.Certificates[0].ID)
	assert.Equal(t, "c2", s.Certificates[1].ID)
	assert.True(t, s.Certificates[0].ChainConfirmed)
	assert.Equal(t, "0xtxc1", s.Certificates[0].ChainTxRef)
	assert.Equal(t, uint64(1), s.Certificates[0].ChainBlockRef)
	assert.True(t, s.Certificates[0].IssuedAt.Equal(at(1)))

	s2, err := db.Student(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, s2.Certificates)

	m, err := db.CertificateByFingerprint(ctx, "bb22")
	require.NoError(t, err)
	assert.Equal(t, "s1", m.Student.ID)
	assert.Equal(t, "c2", m.Certificate.ID)
	assert.Equal(t, "inst1", m.Certificate.IssuerID)

	// lookups are idempotent
	again, err := db.CertificateByFingerprint(ctx, "bb22")
	require.NoError(t, err)
	assert.Equal(t, m.Certificate, again.Certificate)

	m, err = db.Certificate(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "aa11", m.Certificate.Fingerprint)

	_, err = db.CertificateByFingerprint(ctx, "ffff")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = db.Certificate(ctx, "c9")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	inst, err := db.Institution(ctx, "inst1")
	require.NoError(t, err)
	assert.Equal(t, 2, inst.CertificatesIssued)
}

func TRevocationIrreversible(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateStudent(ctx, student("s1", "inst1", "A1", "Asha Rao")))
	require.NoError(t, db.AppendCertificate(ctx, "s1", certificate("c1", "inst1", "aa11", 1)))

	first := model.RevocationPatch{Reason: "superseded", RevokedAt: at(10), TxRef: "0xrev", ReplacementFingerprint: "bb22"}
	c, err := db.RevokeCertificate(ctx, "c1", first)
	require.NoError(t, err)
	assert.True(t, c.Revocation.Revoked)

	second := model.RevocationPatch{Reason: "again", RevokedAt: at(20), TxRef: "0xrev2"}
	_, err = db.RevokeCertificate(ctx, "c1", second)
	assert.True(t, errors.Is(err, errs.ErrConflict))

	m, err := db.Certificate(ctx, "c1")
	require.NoError(t, err)
	r := m.Certificate.Revocation
	assert.True(t, r.Revoked)
	assert.Equal(t, "superseded", r.Reason)
	require.NotNil(t, r.RevokedAt)
	assert.True(t, r.RevokedAt.Equal(at(10)))
	assert.Equal(t, "0xrev", r.TxRef)
	assert.Equal(t, "bb22", r.ReplacementFingerprint)

	_, err = db.RevokeCertificate(ctx, "missing", first)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TSearchStudents(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateStudent(ctx, student("s1", "inst1", "21BCE001", "Asha Rao")))
	require.NoError(t, db.CreateStudent(ctx, student("s2", "inst1", "21MEC002", "Ravi Kumar")))
	require.NoError(t, db.CreateStudent(ctx, student("s3", "inst2", "21BCE003", "Asha Menon")))
	s4 := student("s4", "inst1", "21XYZ_04", "Zoe 100%")
	s4.Branch = "Mechanical"
	require.NoError(t, db.CreateStudent(ctx, s4))

	res, err := db.SearchStudents(ctx, "inst1", "asha")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(res))

	res, err = db.SearchStudents(ctx, "", "ASHA")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "s1"}, ids(res))

	res, err = db.SearchStudents(ctx, "inst1", "bce")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(res))

	res, err = db.SearchStudents(ctx, "inst1", "mechan")
	require.NoError(t, err)
	assert.Equal(t, []string{"s4"}, ids(res))

	// wildcards in the query are literals
	res, err = db.SearchStudents(ctx, "inst1", "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"s4"}, ids(res))
	res, err = db.SearchStudents(ctx, "inst1", "_0")
	require.NoError(t, err)
	assert.Equal(t, []string{"s4"}, ids(res))

	res, err = db.SearchStudents(ctx, "inst2", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, ids(res))

	// case folding is not limited to ASCII
	require.NoError(t, db.CreateStudent(ctx, student("s5", "inst3", "21ART005", "ÉMILE Zola")))
	res, err = db.SearchStudents(ctx, "inst3", "émile")
	require.NoError(t, err)
	assert.Equal(t, []string{"s5"}, ids(res))
	res, err = db.SearchStudents(ctx, "", "Émile")
	require.NoError(t, err)
	assert.Equal(t, []string{"s5"}, ids(res))
}

func TDeleteStudent(t *testing.T, db driver.Store) {
	ctx := context.Background()
	require.NoError(t, db.CreateStudent(ctx, student("s1", "inst1", "A1", "Asha Rao")))
	require.NoError(t, db.AppendCertificate(ctx, "s1", certificate("c1", "inst1", "aa11", 1)))

	assert.True(t, errors.Is(db.DeleteStudent(ctx, "s1"), errs.ErrConflict))

	_, err := db.RevokeCertificate(ctx, "c1", model.RevocationPatch{Reason: "withdrawn", RevokedAt: at(5)})
	require.NoError(t, err)
	require.NoError(t, db.DeleteStudent(ctx, "s1"))

	_, err = db.Student(ctx, "s1")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = db.CertificateByFingerprint(ctx, "aa11")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.True(t, errors.Is(db.DeleteStudent(ctx, "s1"), errs.ErrNotFound))

	// the registration number is free again
	require.NoError(t, db.CreateStudent(ctx, student("s2", "inst1", "A1", "Asha Rao")))
}

func TCompanies(t *testing.T, db driver.Store) {
	ctx := context.Background()
	c, err := model.NewCompany("co1", "Acme", "acme", "hash", epoch)
	require.NoError(t, err)
	require.NoError(t, db.CreateCompany(ctx, c))

	dup, err := model.NewCompany("co2", "Acme 2", "ACME", "hash", epoch)
	require.NoError(t, err)
	assert.True(t, errors.Is(db.CreateCompany(ctx, dup), errs.ErrConflict))

	s := student("s1", "inst1", "A1", "Asha Rao")
	require.NoError(t, db.AppendVerified(ctx, "co1", model.SnapshotStudent(s, at(1))))
	assert.True(t, errors.Is(db.AppendVerified(ctx, "co1", model.SnapshotStudent(s, at(2))), errs.ErrConflict))
	s2 := student("s2", "inst1", "A2", "Ravi Kumar")
	require.NoError(t, db.AppendVerified(ctx, "co1", model.SnapshotStudent(s2, at(3))))
	assert.True(t, errors.Is(db.AppendVerified(ctx, "nope", model.SnapshotStudent(s2, at(3))), errs.ErrNotFound))

	got, err := db.Company(ctx, "co1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Handle)
	require.Len(t, got.VerifiedStudents, 2)
	assert.Equal(t, "s1", got.VerifiedStudents[0].StudentID)
	assert.Equal(t, "A1", got.VerifiedStudents[0].RegistrationNumber)
	assert.True(t, got.VerifiedStudents[0].VerifiedAt.Equal(at(1)))
	assert.Equal(t, "s2", got.VerifiedStudents[1].StudentID)

	_, err = db.Company(ctx, "nope")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func ids(students []*model.Student) []string {
	res := make([]string, len(students))
	for i, s := range students {
		res[i] = s.ID
	}
	return res
}

func voters(r *model.RegistrationRequest) []string {
	res := make([]string, len(r.Votes))
	for i, v := range r.Votes {
		res[i] = v.VoterID
	}
	return res
}
