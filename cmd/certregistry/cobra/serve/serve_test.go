/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package serve

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	sdk "github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/sdk/dig"
	"github.com/BHAVESHSHANKAR/file-verification-blockchain-sub000/registry/services/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tedsuo/ifrit"
)

func TestHTTPRunner(t *testing.T) {
	r := &httpRunner{
		name:            "test",
		server:          &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
		shutdownTimeout: time.Second,
	}
	process := ifrit.Invoke(r)
	select {
	case <-process.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("runner not ready")
	}
	process.Signal(os.Interrupt)
	select {
	case err := <-process.Wait():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestHTTPRunnerListenFailure(t *testing.T) {
	r := &httpRunner{name: "test", server: &http.Server{Addr: "256.0.0.1:bad"}, shutdownTimeout: time.Second}
	assert.Error(t, r.Run(make(chan os.Signal), make(chan struct{})))
}

func TestMembers(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)
	c.Metrics.Provider = "disabled"
	s := sdk.NewSDK(c)
	require.NoError(t, s.Install())
	t.Cleanup(func() { _ = s.Close() })

	members, err := Members(s, c)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "api", members[0].Name)

	router, err := s.Router()
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
