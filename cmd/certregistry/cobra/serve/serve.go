/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package serve

import (
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/cmd/certregistry/cobra/common"
	sdk "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/sdk/dig"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/logging"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/metrics"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

var logger = logging.MustGetLogger("registry.serve")

// Cmd returns the Cobra Command for Serve
func Cmd() *cobra.Command {
	return cobraCommand
}

var cobraCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry node.",
	Long:  `Start the registry HTTP API and, when configured, the metrics endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		c, err := common.LoadConfig()
		if err != nil {
			return errors.WithMessage(err, "failed loading configuration")
		}
		return Serve(c)
	},
}

// Serve runs the node until it receives SIGINT or SIGTERM.
func Serve(c *config.Configuration) error {
	s := sdk.NewSDK(c)
	if err := s.Install(); err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warnf("failed closing services: %v", err)
		}
	}()

	members, err := Members(s, c)
	if err != nil {
		return err
	}
	process := ifrit.Invoke(sigmon.New(grouper.NewParallel(os.Interrupt, members), syscall.SIGTERM))
	logger.Infof("registry node started")
	if err := <-process.Wait(); err != nil {
		return errors.WithMessage(err, "registry node stopped")
	}
	logger.Infof("registry node stopped")
	return nil
}

// Members returns the processes of the node: the API server and, on its own
// address, the metrics server.
func Members(s *sdk.SDK, c *config.Configuration) (grouper.Members, error) {
	router, err := s.Router()
	if err != nil {
		return nil, err
	}
	prometheus := c.Metrics.Provider == metrics.Prometheus
	if prometheus && len(c.Metrics.Address) == 0 {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	var tp trace.TracerProvider
	if err := s.Container().Invoke(func(in trace.TracerProvider) { tp = in }); err != nil {
		return nil, errors.WithMessage(err, "failed resolving tracer provider")
	}
	api := &http.Server{
		Addr:         c.Server.Address,
		Handler:      otelhttp.NewHandler(router, "certreg.api", otelhttp.WithTracerProvider(tp)),
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
	}
	members := grouper.Members{
		{Name: "api", Runner: &httpRunner{name: "api", server: api, shutdownTimeout: c.Server.ShutdownTimeout}},
	}

	if prometheus && len(c.Metrics.Address) != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		members = append(members, grouper.Member{
			Name:   "metrics",
			Runner: &httpRunner{name: "metrics", server: &http.Server{Addr: c.Metrics.Address, Handler: mux}, shutdownTimeout: c.Server.ShutdownTimeout},
		})
	}
	return members, nil
}
