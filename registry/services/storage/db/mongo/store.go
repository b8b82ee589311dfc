/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongo

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/errs"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/model"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Persistence = "mongo"

var logger = logging.MustGetLogger("registry.db.mongo")

// errStale marks an optimistic update that lost a race and must be retried.
var errStale = errors.New("stale document")

const maxOptimisticRetries = 16

type Config struct {
	URI              string `mapstructure:"uri" yaml:"uri"`
	Database         string `mapstructure:"database" yaml:"database"`
	CollectionPrefix string `mapstructure:"collectionPrefix" yaml:"collectionPrefix"`
	// Transactions requires a replica set; without it multi-document updates
	// rely on conditional writes only.
	Transactions   bool          `mapstructure:"transactions" yaml:"transactions"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout" yaml:"connectTimeout"`
}

type Store struct {
	client       *mongo.Client
	transactions bool

	institutions *mongo.Collection
	requests     *mongo.Collection
	students     *mongo.Collection
	companies    *mongo.Collection
	locks        *mongo.Collection
}

// seedLock is the lock document held while a bootstrap seed runs.
const seedLock = "seed"

func NewStore(ctx context.Context, c Config) (*Store, error) {
	if len(c.URI) == 0 || len(c.Database) == 0 {
		return nil, errors.New("mongo uri and database are required")
	}
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed connecting to mongo")
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "failed pinging mongo")
	}
	s := NewStoreFromClient(client, c)
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func NewStoreFromClient(client *mongo.Client, c Config) *Store {
	db := client.Database(c.Database)
	prefix := c.CollectionPrefix
	if len(prefix) != 0 {
		prefix += "_"
	}
	return &Store{
		client:       client,
		transactions: c.Transactions,
		institutions: db.Collection(prefix + "institutions"),
		requests:     db.Collection(prefix + "requests"),
		students:     db.Collection(prefix + "students"),
		companies:    db.Collection(prefix + "companies"),
		locks:        db.Collection(prefix + "locks"),
	}
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(s.client.Disconnect(ctx), "failed disconnecting from mongo")
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(keys ...string) mongo.IndexModel {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d, Options: options.Index().SetUnique(true)}
	}
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.institutions: {unique("handle"), unique("contactAddress"), unique("chainAddress"), {Keys: bson.D{{Key: "state", Value: 1}}}},
		s.requests:     {{Keys: bson.D{{Key: "state", Value: 1}}}},
		s.students: {
			unique("registrationNumber", "institutionId"),
			{
				Keys: bson.D{{Key: "certificates.fingerprint", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"certificates.fingerprint": bson.M{"$exists": true}}),
			},
			{Keys: bson.D{{Key: "certificates.id", Value: 1}}},
		},
		s.companies: {unique("handle")},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "failed creating indexes on [%s]", coll.Name())
		}
	}
	return nil
}

// withTransaction runs fn in a multi-document transaction when enabled.
func (s *Store) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "failed starting session")
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func insertError(err error, format string, args ...interface{}) error {
	if mongo.IsDuplicateKeyError(err) {
		return errs.Wrapf(errs.KindConflict, err, format, args...)
	}
	return errors.Wrap(err, "failed inserting document")
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, notFound func() error) (*T, error) {
	v := new(T)
	err := coll.FindOne(ctx, filter).Decode(v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed querying [%s]", coll.Name())
	}
	return v, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, sort bson.D) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, errors.Wrapf(err, "failed querying [%s]", coll.Name())
	}
	res := make([]*T, 0)
	if err := cur.All(ctx, &res); err != nil {
		return nil, errors.Wrapf(err, "failed decoding [%s]", coll.Name())
	}
	return res, nil
}

// Institutions

func (s *Store) CreateInstitution(ctx context.Context, inst *model.Institution) error {
	if _, err := s.institutions.InsertOne(ctx, inst); err != nil {
		return insertError(err, "institution identifiers already in use")
	}
	return nil
}

// SeedInstitution holds the seed lock document while it counts and inserts.
// Inside a transaction concurrent seeds conflict on the lock and are retried;
// without transactions the loser sees the lock and gets a conflict.
func (s *Store) SeedInstitution(ctx context.Context, inst *model.Institution) error {
	return s.withTransaction(ctx, func(ctx context.Context) (err error) {
		if _, err := s.locks.InsertOne(ctx, bson.M{"_id": seedLock}); err != nil {
			return insertError(err, "bootstrap already in progress")
		}
		defer func() {
			if _, derr := s.locks.DeleteOne(ctx, bson.M{"_id": seedLock}); derr != nil && err == nil {
				err = errors.Wrap(derr, "failed releasing seed lock")
			}
		}()
		n, err := s.CountInstitutions(ctx, model.InstitutionApproved)
		if err != nil {
			return err
		}
		if n != 0 {
			return errs.Conflict("bootstrap is only allowed while no institution is approved")
		}
		return s.CreateInstitution(ctx, inst)
	})
}

func (s *Store) Institution(ctx context.Context, id string) (*model.Institution, error) {
	return findOne[model.Institution](ctx, s.institutions, bson.M{"_id": id}, func() error {
		return errs.NotFound("institution [%s] not found", id)
	})
}

func (s *Store) Institutions(ctx context.Context, state model.InstitutionState) ([]*model.Institution, error) {
	filter := bson.M{}
	if len(state) != 0 {
		filter["state"] = state
	}
	return findAll[model.Institution](ctx, s.institutions, filter, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *Store) CountInstitutions(ctx context.Context, state model.InstitutionState) (int, error) {
	n, err := s.institutions.CountDocuments(ctx, bson.M{"state": state})
	if err != nil {
		return 0, errors.Wrap(err, "failed counting institutions")
	}
	return int(n), nil
}

func (s *Store) SetInstitutionState(ctx context.Context, id string, from, to model.InstitutionState) error {
	res, err := s.institutions.UpdateOne(ctx,
		bson.M{"_id": id, "state": from},
		bson.M{"$set": bson.M{"state": to, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return errors.Wrapf(err, "failed updating institution [%s]", id)
	}
	if res.MatchedCount == 0 {
		inst, err := s.Institution(ctx, id)
		if err != nil {
			return err
		}
		return errs.Conflict("institution [%s] is %s, not %s", id, inst.State, from)
	}
	return nil
}

func (s *Store) IdentifiersInUse(ctx context.Context, handle, contactAddress, chainAddress string) (bool, error) {
	n, err := s.institutions.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"handle": handle}, bson.M{"contactAddress": contactAddress}, bson.M{"chainAddress": chainAddress},
	}})
	if err != nil {
		return false, errors.Wrap(err, "failed checking institution identifiers")
	}
	if n > 0 {
		return true, nil
	}
	n, err = s.requests.CountDocuments(ctx, bson.M{"state": model.RequestPending, "$or": bson.A{
		bson.M{"proposal.handle": handle}, bson.M{"proposal.contactAddress": contactAddress}, bson.M{"proposal.chainAddress": chainAddress},
	}})
	if err != nil {
		return false, errors.Wrap(err, "failed checking request identifiers")
	}
	return n > 0, nil
}

// Requests

func (s *Store) CreateRequest(ctx context.Context, req *model.RegistrationRequest) error {
	if _, err := s.requests.InsertOne(ctx, req); err != nil {
		return insertError(err, "request [%s] already exists", req.ID)
	}
	return nil
}

func (s *Store) Request(ctx context.Context, id string) (*model.RegistrationRequest, error) {
	req, err := findOne[model.RegistrationRequest](ctx, s.requests, bson.M{"_id": id}, func() error {
		return errs.NotFound("request [%s] not found", id)
	})
	if err != nil {
		return nil, err
	}
	return normalizeRequest(req), nil
}

func (s *Store) Requests(ctx context.Context, state model.RequestState) ([]*model.RegistrationRequest, error) {
	filter := bson.M{}
	if len(state) != 0 {
		filter["state"] = state
	}
	res, err := findAll[model.RegistrationRequest](ctx, s.requests, filter, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	for _, r := range res {
		normalizeRequest(r)
	}
	return res, nil
}

func (s *Store) RecordVote(ctx context.Context, requestID string, vote model.Vote, resolve driver.Resolver, institutionID string) (*model.RegistrationRequest, error) {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		var result *model.RegistrationRequest
		err := s.withTransaction(ctx, func(ctx context.Context) error {
			req, err := s.Request(ctx, requestID)
			if err != nil {
				return err
			}
			if req.State != model.RequestPending {
				return errs.Conflict("request [%s] is already %s", requestID, req.State)
			}
			if req.HasVoted(vote.VoterID) {
				return errs.Conflict("institution [%s] already voted on request [%s]", vote.VoterID, requestID)
			}
			previous := len(req.Votes)
			req.Votes = append(req.Votes, vote)
			req.Tally()
			n, err := s.CountInstitutions(ctx, model.InstitutionApproved)
			if err != nil {
				return err
			}
			req.State = resolve(req.Approvals, req.Rejections, n)
			set := bson.M{"approvals": req.Approvals, "rejections": req.Rejections, "state": req.State}
			if req.State != model.RequestPending {
				at := vote.CastAt
				req.ResolvedAt = &at
				set["resolvedAt"] = at
			}
			if req.State == model.RequestApproved {
				req.InstitutionID = institutionID
				set["institutionId"] = institutionID
			}

			// the vote count guard detects a concurrent vote when transactions are off
			res, err := s.requests.UpdateOne(ctx,
				bson.M{"_id": requestID, "state": model.RequestPending, "votes": bson.M{"$size": previous}},
				bson.M{"$set": set, "$push": bson.M{"votes": vote}})
			if err != nil {
				return errors.Wrapf(err, "failed updating request [%s]", requestID)
			}
			if res.MatchedCount == 0 {
				return errStale
			}
			if req.State == model.RequestApproved {
				if err := s.CreateInstitution(ctx, req.Proposal.Institution(institutionID, model.InstitutionApproved, vote.CastAt)); err != nil {
					return err
				}
			}
			result = req
			return nil
		})
		if errors.Is(err, errStale) {
			logger.Debugf("request [%s] changed while voting, retrying", requestID)
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, errs.Conflict("request [%s] is under heavy contention, retry later", requestID)
}

func normalizeRequest(r *model.RegistrationRequest) *model.RegistrationRequest {
	if r.Votes == nil {
		r.Votes = []model.Vote{}
	}
	return r
}

// Students

func (s *Store) CreateStudent(ctx context.Context, st *model.Student) error {
	doc := *st
	doc.Certificates = []*model.Certificate{}
	if _, err := s.students.InsertOne(ctx, &doc); err != nil {
		return insertError(err, "student with registration number [%s] already exists", st.RegistrationNumber)
	}
	return nil
}

func (s *Store) Student(ctx context.Context, id string) (*model.Student, error) {
	return s.student(ctx, bson.M{"_id": id}, id)
}

func (s *Store) StudentByRegistration(ctx context.Context, institutionID, registrationNumber string) (*model.Student, error) {
	regNo := model.NormalizeRegistrationNumber(registrationNumber)
	return s.student(ctx, bson.M{"institutionId": institutionID, "registrationNumber": regNo}, regNo)
}

func (s *Store) student(ctx context.Context, filter bson.M, label string) (*model.Student, error) {
	st, err := findOne[model.Student](ctx, s.students, filter, func() error {
		return errs.NotFound("student [%s] not found", label)
	})
	if err != nil {
		return nil, err
	}
	return normalizeStudent(st), nil
}

func (s *Store) SearchStudents(ctx context.Context, institutionID, query string) ([]*model.Student, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(query)), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"fullName": pattern}, bson.M{"registrationNumber": pattern}, bson.M{"branch": pattern},
	}}
	if len(institutionID) != 0 {
		filter["institutionId"] = institutionID
	}
	res, err := findAll[model.Student](ctx, s.students, filter, bson.D{{Key: "fullName", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	for _, st := range res {
		normalizeStudent(st)
	}
	return res, nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	res, err := s.students.DeleteOne(ctx, bson.M{"_id": id, "certificates.revocation.revoked": bson.M{"$ne": false}})
	if err != nil {
		return errors.Wrapf(err, "failed deleting student [%s]", id)
	}
	if res.DeletedCount == 0 {
		st, err := s.Student(ctx, id)
		if err != nil {
			return err
		}
		return errs.Conflict("student [%s] holds %d active certificates", id, st.ActiveCertificates())
	}
	return nil
}

func normalizeStudent(st *model.Student) *model.Student {
	if st.Certificates == nil {
		st.Certificates = []*model.Certificate{}
	}
	return st
}

// Certificates

func (s *Store) AppendCertificate(ctx context.Context, studentID string, cert *model.Certificate) error {
	return s.withTransaction(ctx, func(ctx context.Context) error {
		res, err := s.students.UpdateOne(ctx,
			bson.M{"_id": studentID, "certificates.fingerprint": bson.M{"$ne": cert.Fingerprint}},
			bson.M{"$push": bson.M{"certificates": cert}})
		if err != nil {
			return insertError(err, "duplicate certificate")
		}
		if res.MatchedCount == 0 {
			if _, err := s.Student(ctx, studentID); err != nil {
				return err
			}
			return errs.Conflict("duplicate certificate")
		}
		if _, err := s.institutions.UpdateOne(ctx, bson.M{"_id": cert.IssuerID}, bson.M{"$inc": bson.M{"certificatesIssued": 1}}); err != nil {
			return errors.Wrapf(err, "failed incrementing issued counter of [%s]", cert.IssuerID)
		}
		return nil
	})
}

func (s *Store) CertificateByFingerprint(ctx context.Context, fingerprint string) (*model.Match, error) {
	return s.match(ctx, bson.M{"certificates.fingerprint": fingerprint}, func(c *model.Certificate) bool { return c.Fingerprint == fingerprint })
}

func (s *Store) Certificate(ctx context.Context, id string) (*model.Match, error) {
	return s.match(ctx, bson.M{"certificates.id": id}, func(c *model.Certificate) bool { return c.ID == id })
}

func (s *Store) match(ctx context.Context, filter bson.M, pred func(*model.Certificate) bool) (*model.Match, error) {
	st, err := findOne[model.Student](ctx, s.students, filter, func() error {
		return errs.NotFound("certificate not found")
	})
	if err != nil {
		return nil, err
	}
	normalizeStudent(st)
	for _, c := range st.Certificates {
		if pred(c) {
			return &model.Match{Student: st, Certificate: c}, nil
		}
	}
	return nil, errs.NotFound("certificate not found")
}

func (s *Store) RevokeCertificate(ctx context.Context, id string, patch model.RevocationPatch) (*model.Certificate, error) {
	res, err := s.students.UpdateOne(ctx,
		bson.M{"certificates": bson.M{"$elemMatch": bson.M{"id": id, "revocation.revoked": false}}},
		bson.M{"$set": bson.M{"certificates.$.revocation": patch.Revocation()}})
	if err != nil {
		return nil, errors.Wrapf(err, "failed revoking certificate [%s]", id)
	}
	m, err := s.Certificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, errs.Conflict("certificate [%s] is already revoked", id)
	}
	return m.Certificate, nil
}

// Companies

func (s *Store) CreateCompany(ctx context.Context, c *model.Company) error {
	doc := *c
	if doc.VerifiedStudents == nil {
		doc.VerifiedStudents = []model.VerifiedStudent{}
	}
	if _, err := s.companies.InsertOne(ctx, &doc); err != nil {
		return insertError(err, "company handle [%s] already in use", c.Handle)
	}
	return nil
}

func (s *Store) Company(ctx context.Context, id string) (*model.Company, error) {
	c, err := findOne[model.Company](ctx, s.companies, bson.M{"_id": id}, func() error {
		return errs.NotFound("company [%s] not found", id)
	})
	if err != nil {
		return nil, err
	}
	if c.VerifiedStudents == nil {
		c.VerifiedStudents = []model.VerifiedStudent{}
	}
	return c, nil
}

func (s *Store) AppendVerified(ctx context.Context, companyID string, v model.VerifiedStudent) error {
	res, err := s.companies.UpdateOne(ctx,
		bson.M{"_id": companyID, "verifiedStudents.studentId": bson.M{"$ne": v.StudentID}},
		bson.M{"$push": bson.M{"verifiedStudents": v}})
	if err != nil {
		return errors.Wrapf(err, "failed recording verification for [%s]", companyID)
	}
	if res.MatchedCount == 0 {
		if _, err := s.Company(ctx, companyID); err != nil {
			return err
		}
		return errs.Conflict("student [%s] already verified", v.StudentID)
	}
	return nil
}
