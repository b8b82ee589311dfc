/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"context"
	"database/sql"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/dbtest"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage/db/sql/common"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var (
	requestColumns     = []string{"id", "legal_name", "handle", "contact_address", "chain_address", "credential_hash", "approvals", "rejections", "state", "institution_id", "created_at", "resolved_at"}
	studentColumns     = []string{"id", "institution_id", "full_name", "registration_number", "academic_year", "current_year", "branch", "specialization", "created_at"}
	certificateColumns = []string{"id", "student_id", "seq", "name", "fingerprint", "storage_locator", "storage_content_id", "file_name", "byte_size", "issuer_id", "issued_at",
		"chain_tx_ref", "chain_block_ref", "chain_confirmed", "revoked", "revocation_reason", "revoked_at", "revocation_tx_ref", "replacement_fingerprint"}
)

func mockStore(db *sql.DB) *Store {
	tables, _ := common.GetTableNames("")
	return NewStoreFromDB(db, tables)
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestCertificateByFingerprintNotFound(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	mockDB.
		ExpectQuery(q("SELECT student_id, id FROM certificates WHERE fingerprint = $1")).
		WithArgs("abcd").
		WillReturnRows(mockDB.NewRows([]string{"student_id", "id"}))

	_, err = mockStore(db).CertificateByFingerprint(context.Background(), "abcd")

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(errors.Is(err, errs.ErrNotFound)).To(gomega.BeTrue())
}

func TestAppendCertificateDuplicate(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	cert, err := model.NewCertificate("c1", model.CertificateData{
		Name: "Degree", Fingerprint: "abcd", StorageLocator: "ipfs://x", FileName: "d.pdf", ByteSize: 10, ChainTxRef: "0xtx", ChainBlockRef: 4,
	}, "inst1", time.Date(2025, time.June, 8, 10, 0, 0, 0, time.UTC))
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	mockDB.ExpectBegin()
	mockDB.
		ExpectQuery(q("SELECT id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("s1").
		WillReturnRows(mockDB.NewRows([]string{"id"}).AddRow("s1"))
	mockDB.
		ExpectQuery(q("SELECT COALESCE(MAX(seq), -1) + 1 FROM certificates WHERE student_id = $1")).
		WithArgs("s1").
		WillReturnRows(mockDB.NewRows([]string{"seq"}).AddRow(2))
	mockDB.
		ExpectExec(q("INSERT INTO certificates (id, student_id, seq, name, fingerprint")).
		WithArgs("c1", "s1", 2, "Degree", "abcd", "ipfs://x", "", "d.pdf", int64(10), "inst1", sqlmock.AnyArg(), "0xtx", int64(4), true,
			false, "", sqlmock.AnyArg(), "", "").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, Message: "duplicate key value violates unique constraint"})
	mockDB.ExpectRollback()

	err = mockStore(db).AppendCertificate(context.Background(), "s1", cert)

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(errors.Is(err, errs.ErrConflict)).To(gomega.BeTrue())
	gomega.Expect(errs.Message(err)).To(gomega.Equal("duplicate certificate"))
}

func TestRecordVoteApproves(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	created := time.Date(2025, time.June, 8, 10, 0, 0, 0, time.UTC)
	castAt := created.Add(time.Hour)

	mockDB.ExpectBegin()
	mockDB.
		ExpectQuery(q("SELECT id, legal_name, handle, contact_address, chain_address, credential_hash, approvals, rejections, state, institution_id, created_at, resolved_at FROM requests WHERE id = $1 FOR UPDATE")).
		WithArgs("r1").
		WillReturnRows(mockDB.NewRows(requestColumns).AddRow("r1", "New Institute", "fresh", "fresh@example.edu", "0xfresh", "hash", 1, 0, "pending", "", created, nil))
	mockDB.
		ExpectQuery(q("SELECT voter_id, decision, cast_at FROM request_votes WHERE request_id = $1 ORDER BY seq")).
		WithArgs("r1").
		WillReturnRows(mockDB.NewRows([]string{"voter_id", "decision", "cast_at"}).AddRow("v0", "approve", created))
	mockDB.
		ExpectExec(q("INSERT INTO request_votes (request_id, voter_id, decision, seq, cast_at) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs("r1", "v1", "approve", 1, castAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.
		ExpectQuery(q("SELECT COUNT(*) FROM institutions WHERE state = $1")).
		WithArgs("approved").
		WillReturnRows(mockDB.NewRows([]string{"count"}).AddRow(2))
	mockDB.
		ExpectExec(q("INSERT INTO institutions (id, legal_name, handle")).
		WithArgs("new-inst", "New Institute", "fresh", "fresh@example.edu", "0xfresh", "approved", "hash", 0, castAt, castAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.
		ExpectExec(q("UPDATE requests SET approvals = $1, rejections = $2, state = $3, institution_id = $4, resolved_at = $5 WHERE id = $6")).
		WithArgs(2, 0, "approved", "new-inst", sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	resolve := func(approvals, rejections, n int) model.RequestState {
		if approvals >= (7*n+9)/10 {
			return model.RequestApproved
		}
		return model.RequestPending
	}
	req, err := mockStore(db).RecordVote(context.Background(), "r1", model.Vote{VoterID: "v1", Decision: model.Approve, CastAt: castAt}, resolve, "new-inst")

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(err).ToNot(gomega.HaveOccurred())
	gomega.Expect(req.State).To(gomega.Equal(model.RequestApproved))
	gomega.Expect(req.InstitutionID).To(gomega.Equal("new-inst"))
	gomega.Expect(req.Votes).To(gomega.HaveLen(2))
}

func TestRecordVoteAlreadyVoted(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	created := time.Date(2025, time.June, 8, 10, 0, 0, 0, time.UTC)
	mockDB.ExpectBegin()
	mockDB.
		ExpectQuery(q("FROM requests WHERE id = $1 FOR UPDATE")).
		WithArgs("r1").
		WillReturnRows(mockDB.NewRows(requestColumns).AddRow("r1", "New Institute", "fresh", "fresh@example.edu", "0xfresh", "hash", 1, 0, "pending", "", created, nil))
	mockDB.
		ExpectQuery(q("FROM request_votes WHERE request_id = $1")).
		WithArgs("r1").
		WillReturnRows(mockDB.NewRows([]string{"voter_id", "decision", "cast_at"}).AddRow("v0", "approve", created))
	mockDB.ExpectRollback()

	_, err = mockStore(db).RecordVote(context.Background(), "r1", model.Vote{VoterID: "v0", Decision: model.Reject, CastAt: created}, nil, "new-inst")

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(errors.Is(err, errs.ErrConflict)).To(gomega.BeTrue())
}

func TestSeedInstitutionLocksTable(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	at := time.Date(2025, time.June, 8, 10, 0, 0, 0, time.UTC)
	p, err := model.NewProposal("Founding Institute", "founder", "founder@example.edu", "0xf0")
	gomega.Expect(err).ToNot(gomega.HaveOccurred())
	p.CredentialHash = "hash"

	mockDB.ExpectBegin()
	mockDB.ExpectExec(q("LOCK TABLE institutions IN SHARE ROW EXCLUSIVE MODE")).WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.
		ExpectQuery(q("SELECT COUNT(*) FROM institutions WHERE state = $1")).
		WithArgs("approved").
		WillReturnRows(mockDB.NewRows([]string{"count"}).AddRow(0))
	mockDB.
		ExpectExec(q("INSERT INTO institutions (id, legal_name, handle")).
		WithArgs("i1", "Founding Institute", "founder", "founder@example.edu", "0xf0", "approved", "hash", 0, at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err = mockStore(db).SeedInstitution(context.Background(), p.Institution("i1", model.InstitutionApproved, at))

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(err).ToNot(gomega.HaveOccurred())
}

func TestSeedInstitutionRefusedOnceApproved(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	at := time.Date(2025, time.June, 8, 10, 0, 0, 0, time.UTC)
	p, err := model.NewProposal("Late Institute", "late", "late@example.edu", "0xf1")
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	mockDB.ExpectBegin()
	mockDB.ExpectExec(q("LOCK TABLE institutions")).WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.
		ExpectQuery(q("SELECT COUNT(*) FROM institutions WHERE state = $1")).
		WithArgs("approved").
		WillReturnRows(mockDB.NewRows([]string{"count"}).AddRow(1))
	mockDB.ExpectRollback()

	err = mockStore(db).SeedInstitution(context.Background(), p.Institution("i2", model.InstitutionApproved, at))

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(errors.Is(err, errs.ErrConflict)).To(gomega.BeTrue())
}

func TestRevokeCertificateAlreadyRevoked(t *testing.T) {
	gomega.RegisterTestingT(t)
	db, mockDB, err := sqlmock.New()
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	issued := time.Date(2025, time.June, 8, 10, 0, 0, 0, time.UTC)
	revoked := issued.Add(time.Hour)

	mockDB.
		ExpectExec(q("UPDATE certificates SET revoked = $1, revocation_reason = $2, revoked_at = $3, revocation_tx_ref = $4, replacement_fingerprint = $5 WHERE id = $6 AND revoked = $7")).
		WithArgs(true, "again", sqlmock.AnyArg(), "0xrev2", "", "c1", false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.
		ExpectQuery(q("SELECT student_id, id FROM certificates WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(mockDB.NewRows([]string{"student_id", "id"}).AddRow("s1", "c1"))
	mockDB.
		ExpectQuery(q("FROM students WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(mockDB.NewRows(studentColumns).AddRow("s1", "inst1", "Asha Rao", "A1", "2021-2025", 3, "CSE", "", issued))
	mockDB.
		ExpectQuery(q("FROM certificates WHERE student_id = $1 ORDER BY seq")).
		WithArgs("s1").
		WillReturnRows(mockDB.NewRows(certificateColumns).AddRow(
			"c1", "s1", 0, "Degree", "abcd", "ipfs://x", "", "d.pdf", 10, "inst1", issued,
			"0xtx", 4, true, true, "superseded", revoked, "0xrev", "ef01"))

	_, err = mockStore(db).RevokeCertificate(context.Background(), "c1", model.RevocationPatch{Reason: "again", RevokedAt: revoked.Add(time.Hour), TxRef: "0xrev2"})

	gomega.Expect(mockDB.ExpectationsWereMet()).To(gomega.Succeed())
	gomega.Expect(errors.Is(err, errs.ErrConflict)).To(gomega.BeTrue())
}

func TestIsUniqueViolation(t *testing.T) {
	gomega.RegisterTestingT(t)
	gomega.Expect(IsUniqueViolation(errors.Wrap(&pgconn.PgError{Code: "23505"}, "insert"))).To(gomega.BeTrue())
	gomega.Expect(IsUniqueViolation(&pgconn.PgError{Code: "23503"})).To(gomega.BeFalse())
	gomega.Expect(IsUniqueViolation(errors.New("boom"))).To(gomega.BeFalse())
}

// TestStore runs the shared suite against a live database when CERTREG_POSTGRES_DSN is set.
func TestStore(t *testing.T) {
	dsn := os.Getenv("CERTREG_POSTGRES_DSN")
	if len(dsn) == 0 {
		t.Skip("CERTREG_POSTGRES_DSN not set")
	}
	dbtest.StoreTest(t, func(name string) (driver.Store, error) {
		prefix := "t" + time.Now().Format("150405") + "_" + name
		return NewStore(Config{DataSource: dsn, TablePrefix: prefix})
	})
}
