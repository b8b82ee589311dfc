/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"context"
	errors2 "errors"
	"os"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/anchor"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/certificates"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/companies"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/fingerprint"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/governance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/issuance"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network"
	driver2 "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/network/driver"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/reconcile"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/rest"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/storage"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/tracing"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/verification"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/dig"
)

var logger = logging.MustGetLogger("registry.sdk")

// SDK assembles the registry services in a dig container.
type SDK struct {
	container *dig.Container
	config    *config.Configuration
}

func NewSDK(c *config.Configuration) *SDK {
	return &SDK{container: dig.New(), config: c}
}

func (p *SDK) Container() *dig.Container { return p.container }

func (p *SDK) Install() error {
	c := p.config
	logger.Infof("installing registry services (storage=%s, ledger=%s)", c.Storage.Driver, c.Ledger.Driver)

	err := errors2.Join(
		p.container.Provide(func() *config.Configuration { return c }),
		p.container.Provide(func() (metrics.Provider, error) { return metrics.NewProvider(c.Metrics.Provider) }),
		p.container.Provide(func() (tracing.Provider, error) { return tracing.NewProvider(c.Tracing.Provider, os.Stdout) }),
		p.container.Provide(identity[tracing.Provider](), dig.As(new(trace.TracerProvider))),
		p.container.Provide(func() (driver.Store, error) { return storage.NewStore(context.Background(), c.Storage) }),
		p.container.Provide(
			identity[driver.Store](),
			dig.As(new(governance.Store), new(certificates.Store), new(companies.Store)),
		),
		p.container.Provide(func() (*fingerprint.Engine, error) { return fingerprint.NewEngine(c.Fingerprint.Algorithm) }),
		p.container.Provide(func() (driver2.Ledger, error) { return network.NewLedger(c.Ledger) }),
		p.container.Provide(func() (driver2.ContentStore, error) { return network.NewContentStore(c.Content) }),

		p.container.Provide(governance.NewMetrics),
		p.container.Provide(func(s governance.Store, m *governance.Metrics) (*governance.Service, error) {
			return governance.NewService(s, c.Governance, m)
		}),
		p.container.Provide(
			identity[*governance.Service](),
			dig.As(new(issuance.InstitutionDirectory), new(verification.InstitutionDirectory), new(reconcile.InstitutionDirectory)),
		),
		p.container.Provide(certificates.NewMetrics),
		p.container.Provide(certificates.NewRegistry),
		p.container.Provide(func(s companies.Store) *companies.Service {
			return companies.NewService(s, c.Companies.BcryptCost)
		}),
		p.container.Provide(anchor.NewMetrics),
		p.container.Provide(func(l driver2.Ledger, tp trace.TracerProvider, m *anchor.Metrics) *anchor.Service {
			return anchor.NewService(l, c.Anchor, tp, m)
		}),
		p.container.Provide(issuance.NewMetrics),
		p.container.Provide(issuance.NewService),
		p.container.Provide(verification.NewMetrics),
		p.container.Provide(func(r *certificates.Registry, d verification.InstitutionDirectory, l driver2.Ledger, m *verification.Metrics) (*verification.Service, error) {
			return verification.NewService(r, d, l, c.Verification, m)
		}),
		p.container.Provide(func(l driver2.Ledger, r *certificates.Registry, d reconcile.InstitutionDirectory) *reconcile.Service {
			return reconcile.NewService(l, r, d, c.Reconcile.Workers)
		}),
		p.container.Provide(newServices),
		p.container.Provide(func(s rest.Services) *gin.Engine {
			return rest.NewRouter(s, rest.Config{MaxUploadBytes: c.Server.MaxUploadBytes, AdminToken: c.Server.AdminToken})
		}),
	)
	if err != nil {
		return errors.WithMessagef(err, "failed setting up dig container")
	}
	return nil
}

// Services resolves the full service graph.
func (p *SDK) Services() (rest.Services, error) {
	var s rest.Services
	err := p.container.Invoke(func(in rest.Services) { s = in })
	return s, errors.WithMessage(err, "failed resolving services")
}

// Router resolves the HTTP handler.
func (p *SDK) Router() (*gin.Engine, error) {
	var r *gin.Engine
	err := p.container.Invoke(func(in *gin.Engine) { r = in })
	return r, errors.WithMessage(err, "failed resolving router")
}

// Close stops the submission queues, flushes spans and closes the store.
func (p *SDK) Close() error {
	var errs []error
	err := p.container.Invoke(func(in struct {
		dig.In
		Anchor *anchor.Service
		Store  driver.Store
		Tracer tracing.Provider
	}) {
		errs = append(errs,
			in.Anchor.Close(),
			in.Tracer.Shutdown(context.Background()),
			in.Store.Close(),
		)
	})
	return errors2.Join(append(errs, err)...)
}

type services struct {
	dig.In
	Governance   *governance.Service
	Registry     *certificates.Registry
	Issuance     *issuance.Service
	Verification *verification.Service
	Companies    *companies.Service
	Reconcile    *reconcile.Service
}

func newServices(in services) rest.Services {
	return rest.Services{
		Governance:   in.Governance,
		Registry:     in.Registry,
		Issuance:     in.Issuance,
		Verification: in.Verification,
		Companies:    in.Companies,
		Reconcile:    in.Reconcile,
	}
}

// identity re-exposes a provided value, typically under interfaces via dig.As.
func identity[T any]() func(T) T {
	return func(t T) T { return t }
}
