/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package serve

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
)

// httpRunner serves an http.Server as an ifrit member and shuts it down
// gracefully on the first signal.
type httpRunner struct {
	name            string
	server          *http.Server
	shutdownTimeout time.Duration
}

func (r *httpRunner) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	l, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "%s: failed listening on [%s]", r.name, r.server.Addr)
	}
	logger.Infof("%s listening on [%s]", r.name, l.Addr())

	served := make(chan error, 1)
	go func() { served <- r.server.Serve(l) }()
	close(ready)

	select {
	case err := <-served:
		return errors.Wrapf(err, "%s stopped", r.name)
	case sig := <-signals:
		logger.Infof("%s received [%s], shutting down", r.name, sig)
		ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
		defer cancel()
		if err := r.server.Shutdown(ctx); err != nil {
			return errors.Wrapf(err, "%s: failed shutting down", r.name)
		}
		if err := <-served; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
