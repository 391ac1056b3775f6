package xero

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpnda/billing-sync/pkg/config"
)

const (
	tokenPath       = "/connect/token"
	connectionsPath = "/connections"
	apiPath         = "/api.xro/2.0"
)

const invoicesBody = `{"Status":"OK","Invoices":[{"InvoiceID":"i-1","InvoiceNumber":"INV-1","Status":"AUTHORISED","Total":10,"CurrencyCode":"NZD"}]}`

type step struct {
	status int
	body   string
}

// fakeXero serves the three endpoints and records which were hit, in order.
type fakeXero struct {
	t           *testing.T
	token       step
	connections step
	invoices    step

	mu       sync.Mutex
	requests []string
	headers  map[string]http.Header
	forms    map[string]string
	query    map[string]string
}

func newFakeXero(t *testing.T) *fakeXero {
	return &fakeXero{
		t:           t,
		token:       step{http.StatusOK, `{"access_token":"access-123","token_type":"Bearer","expires_in":1800}`},
		connections: step{http.StatusOK, `[{"id":"c1","tenantId":"T1","tenantType":"ORGANISATION"},{"id":"c2","tenantId":"T2"}]`},
		invoices:    step{http.StatusOK, invoicesBody},
		headers:     map[string]http.Header{},
		forms:       map[string]string{},
		query:       map[string]string{},
	}
}

func (f *fakeXero) record(name string, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, name)
	f.headers[name] = r.Header.Clone()
	f.query[name] = r.URL.RawQuery
}

func (f *fakeXero) respond(w http.ResponseWriter, s step) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.body))
}

func (f *fakeXero) start() (*httptest.Server, *Client) {
	r := chi.NewRouter()
	r.Post(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		f.record("token", r)
		assert.NoError(f.t, r.ParseForm())
		f.mu.Lock()
		for _, k := range []string{"grant_type", "client_id", "client_secret", "scope"} {
			f.forms[k] = r.PostForm.Get(k)
		}
		f.mu.Unlock()
		f.respond(w, f.token)
	})
	r.Get(connectionsPath, func(w http.ResponseWriter, r *http.Request) {
		f.record("connections", r)
		f.respond(w, f.connections)
	})
	r.Get(apiPath+invoicesPath, func(w http.ResponseWriter, r *http.Request) {
		f.record("invoices", r)
		f.respond(w, f.invoices)
	})

	server := httptest.NewServer(r)
	f.t.Cleanup(server.Close)

	client := NewClient(config.XeroOptions{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		TokenURL:       server.URL + tokenPath,
		ConnectionsURL: server.URL + connectionsPath,
		APIBaseURL:     server.URL + apiPath + "/",
	}, WithHTTPClient(server.Client()))
	return server, client
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestFetchInvoicesSuccess(t *testing.T) {
	logs := captureLogs(t)
	fake := newFakeXero(t)
	_, client := fake.start()

	invoices := client.FetchInvoices(context.Background())
	require.NotNil(t, invoices)
	assert.JSONEq(t, invoicesBody, string(invoices.Raw()))

	assert.Equal(t, []string{"token", "connections", "invoices"}, fake.requests)

	// token step
	assert.Equal(t, "application/x-www-form-urlencoded", fake.headers["token"].Get("Content-Type"))
	assert.Equal(t, map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "client-id",
		"client_secret": "client-secret",
		"scope":         "accounting.transactions accounting.contacts",
	}, fake.forms)

	// tenant step
	assert.Equal(t, "Bearer access-123", fake.headers["connections"].Get("Authorization"))

	// invoices step: first tenant only, in a header
	assert.Equal(t, "Bearer access-123", fake.headers["invoices"].Get("Authorization"))
	assert.Equal(t, "T1", fake.headers["invoices"].Get("Xero-tenant-id"))
	assert.Equal(t, "application/json", fake.headers["invoices"].Get("Accept"))
	assert.Empty(t, fake.query["invoices"])

	assert.Contains(t, logs.String(), "Invoices fetched from Xero")
	assert.Contains(t, logs.String(), `"invoices":1`)
}

func TestFetchInvoicesTokenFailure(t *testing.T) {
	logs := captureLogs(t)
	fake := newFakeXero(t)
	fake.token = step{http.StatusBadRequest, `{"error":"invalid_client"}`}
	_, client := fake.start()

	assert.Nil(t, client.FetchInvoices(context.Background()))
	assert.Equal(t, []string{"token"}, fake.requests)
	assert.Contains(t, logs.String(), "Xero fetch failed")
	assert.Contains(t, logs.String(), "invalid_client")

	fake.requests = nil
	_, err := client.Run(context.Background())
	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, http.StatusBadRequest, tokenErr.StatusCode)
	assert.Contains(t, err.Error(), `{"error":"invalid_client"}`)
	assert.Equal(t, []string{"token"}, fake.requests)
}

func TestFetchInvoicesTokenWithoutAccessToken(t *testing.T) {
	captureLogs(t)
	fake := newFakeXero(t)
	fake.token = step{http.StatusOK, `{"token_type":"Bearer"}`}
	_, client := fake.start()

	_, err := client.Run(context.Background())
	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Contains(t, err.Error(), "access_token")
	assert.Equal(t, []string{"token"}, fake.requests)
}

func TestFetchInvoicesNoTenant(t *testing.T) {
	testCases := []struct {
		name        string
		connections string
	}{
		{name: "empty list", connections: `[]`},
		{name: "first entry without tenant", connections: `[{"id":"c1"},{"id":"c2","tenantId":"T2"}]`},
		{name: "null", connections: `null`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t)
			fake := newFakeXero(t)
			fake.connections = step{http.StatusOK, tc.connections}
			_, client := fake.start()

			assert.Nil(t, client.FetchInvoices(context.Background()))
			assert.Equal(t, []string{"token", "connections"}, fake.requests)
			assert.Contains(t, logs.String(), "no tenant found")

			_, err := client.Run(context.Background())
			assert.ErrorIs(t, err, ErrNoTenant)
			var noTenant *NoTenantError
			assert.True(t, errors.As(err, &noTenant))
			assert.NotContains(t, fake.requests, "invoices")
		})
	}
}

func TestFetchInvoicesConnectionsFailure(t *testing.T) {
	captureLogs(t)
	fake := newFakeXero(t)
	fake.connections = step{http.StatusUnauthorized, "unauthorized"}
	_, client := fake.start()

	assert.Nil(t, client.FetchInvoices(context.Background()))
	assert.Equal(t, []string{"token", "connections"}, fake.requests)

	_, err := client.Run(context.Background())
	var connErr *ConnectionsError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, http.StatusUnauthorized, connErr.StatusCode)
	assert.Equal(t, "unauthorized", connErr.Body)
}

func TestFetchInvoicesInvoicesFailure(t *testing.T) {
	logs := captureLogs(t)
	fake := newFakeXero(t)
	fake.invoices = step{http.StatusForbidden, `{"Title":"Forbidden"}`}
	_, client := fake.start()

	assert.Nil(t, client.FetchInvoices(context.Background()))
	assert.Equal(t, []string{"token", "connections", "invoices"}, fake.requests)
	assert.Contains(t, logs.String(), "Invoices error 403")

	_, err := client.Run(context.Background())
	var invErr *InvoicesError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, http.StatusForbidden, invErr.StatusCode)
}

func TestFetchInvoicesFreshTokenEveryCall(t *testing.T) {
	captureLogs(t)
	fake := newFakeXero(t)
	_, client := fake.start()

	require.NotNil(t, client.FetchInvoices(context.Background()))
	require.NotNil(t, client.FetchInvoices(context.Background()))

	assert.Equal(t, []string{
		"token", "connections", "invoices",
		"token", "connections", "invoices",
	}, fake.requests)
}

func TestFetchInvoicesTransportFailure(t *testing.T) {
	captureLogs(t)
	fake := newFakeXero(t)
	server, client := fake.start()
	server.Close()

	assert.Nil(t, client.FetchInvoices(context.Background()))

	_, err := client.Run(context.Background())
	require.Error(t, err)
	var tokenErr *TokenError
	assert.False(t, errors.As(err, &tokenErr))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(config.XeroOptions{ClientID: "a", ClientSecret: "b"})
	assert.Equal(t, DefaultTokenURL, c.tokenURL)
	assert.Equal(t, DefaultConnectionsURL, c.connectionsURL)
	assert.Equal(t, DefaultAPIBaseURL, c.apiBaseURL)
}
