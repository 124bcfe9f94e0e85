// Package testserver runs the reference API against in-memory sqlite for tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/localfirst/internal/remote"
	"github.com/rpggio/localfirst/internal/sqlite"
	"github.com/rpggio/localfirst/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Resources *sqlite.ResourceRepository
	Keys      *sqlite.APIKeyRepository
	Token     string
	TenantID  string
}

// New starts a server with auth enabled and one api key for tenantID.
func New(t *testing.T, token, tenantID string, opts transport.Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	resources := sqlite.NewResourceRepository(db)
	keys := sqlite.NewAPIKeyRepository(db)
	server := httptest.NewServer(transport.NewServer(resources, opts, transport.AuthMiddleware(keys)))

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Resources: resources,
		Keys:      keys,
		Token:     token,
		TenantID:  tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.Keys.Create(context.Background(), tenantID, token, "test")
}

// Client returns an API client authenticated with the server's token.
func (ts *TestServer) Client(t *testing.T) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(ts.Server.URL, ts.Token, 5*time.Second, nil)
	require.NoError(t, err)
	return c
}
