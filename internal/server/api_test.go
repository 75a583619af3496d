package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/avollmer/agentgate/internal/crypto"
	"github.com/avollmer/agentgate/internal/google"
	"github.com/avollmer/agentgate/internal/store"
)

type apiFixture struct {
	ts      *httptest.Server
	creds   *store.CredentialStore
	secrets *store.SecretStore
	sc      *ServerContext
}

// newAPIFixture wires a real store on a temp database to an authenticator
// whose token endpoint is a local fake. The fake accepts the code
// "valid-code" and rejects everything else.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "valid-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"granted-access","refresh_token":"granted-refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(tokenEndpoint.Close)

	db, err := store.NewDB(filepath.Join(t.TempDir(), "agentgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gate, err := crypto.New(bytes.Repeat([]byte{0x33}, crypto.KeySize))
	require.NoError(t, err)

	creds := store.NewCredentialStore(db, gate)
	secrets := store.NewSecretStore(db, gate)

	cfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8000/auth/callback",
		Scopes:       google.DefaultOAuthScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   tokenEndpoint.URL + "/auth",
			TokenURL:  tokenEndpoint.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	auth := google.NewAuthenticator(cfg, creds, nil)
	sc := NewServerContext(context.Background(), auth, secrets)
	t.Cleanup(func() { _ = sc.Shutdown() })

	api := NewAPI(sc, nil, nil, nil)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)

	return &apiFixture{ts: ts, creds: creds, secrets: secrets, sc: sc}
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func errorCode(t *testing.T, res *http.Response) string {
	t.Helper()
	body := decodeBody(t, res)
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	code, _ := envelope["code"].(string)
	return code
}

func TestAuthLogin_RedirectsToProvider(t *testing.T) {
	f := newAPIFixture(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	res, err := client.Get(f.ts.URL + "/auth/login?agent_id=agent-7")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusFound, res.StatusCode)

	location, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "agent-7", location.Query().Get("state"))
	assert.Equal(t, "offline", location.Query().Get("access_type"))
	assert.Equal(t, "consent", location.Query().Get("prompt"))
}

func TestAuthLogin_MissingAgentID(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/auth/login")
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_request", errorCode(t, res))
}

func TestAuthCallback_StoresCredential(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/auth/callback?state=agent-7&code=valid-code")
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "connected", decodeBody(t, res)["status"])

	cred, err := f.creds.Get(context.Background(), "agent-7")
	require.NoError(t, err)
	assert.Equal(t, "granted-access", cred.AccessToken)
	assert.Equal(t, "granted-refresh", cred.RefreshToken)
}

func TestAuthCallback_InvalidCode(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/auth/callback?state=agent-7&code=wrong")
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "exchange_failed", errorCode(t, res))
}

func TestAuthCallback_ProviderError(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/auth/callback?state=agent-7&error=access_denied")
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "exchange_failed", errorCode(t, res))
}

func TestAuthCode_HeadlessCompletion(t *testing.T) {
	f := newAPIFixture(t)

	payload := strings.NewReader(`{"agent_id":"agent-9","code":"valid-code"}`)
	res, err := http.Post(f.ts.URL+"/auth/code", "application/json", payload)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "connected", decodeBody(t, res)["status"])

	_, err = f.creds.Get(context.Background(), "agent-9")
	require.NoError(t, err)
}

func TestAuthCode_MissingFields(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Post(f.ts.URL+"/auth/code", "application/json", strings.NewReader(`{"agent_id":"x"}`))
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_request", errorCode(t, res))
}

func TestEmailList_NotConnected(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/email/list?agent_id=ghost")
	require.NoError(t, err)

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "not_connected", errorCode(t, res))
}

func TestEmailList_ReauthRequired(t *testing.T) {
	f := newAPIFixture(t)

	// Expired credential without a refresh token forces re-authorization.
	_, err := f.creds.Upsert(context.Background(), "stale-agent", "old-access", "", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	res, err := http.Get(f.ts.URL + "/email/list?agent_id=stale-agent")
	require.NoError(t, err)

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "reauth_required", errorCode(t, res))
}

func TestEmailRead_MissingMessageID(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/email/read?agent_id=agent-7")
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_request", errorCode(t, res))
}

func TestEmailSend_InvalidBody(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Post(f.ts.URL+"/email/send", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCalendarList_NotConnected(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/calendar/events?agent_id=ghost")
	require.NoError(t, err)

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "not_connected", errorCode(t, res))
}

func TestCalendarCreate_RequiresTimes(t *testing.T) {
	f := newAPIFixture(t)

	payload := strings.NewReader(`{"agent_id":"agent-7","summary":"Standup"}`)
	res, err := http.Post(f.ts.URL+"/calendar/events", "application/json", payload)
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_request", errorCode(t, res))
}

func TestCalendarCreate_RejectsMalformedTimes(t *testing.T) {
	f := newAPIFixture(t)

	payload := strings.NewReader(`{"agent_id":"agent-7","summary":"Standup","start":"tomorrow","end":"later"}`)
	res, err := http.Post(f.ts.URL+"/calendar/events", "application/json", payload)
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSecrets_PutGetDelete(t *testing.T) {
	f := newAPIFixture(t)

	payload := strings.NewReader(`{"api_key":"sk-123","endpoint":"https://api.example.com"}`)
	req, err := http.NewRequest(http.MethodPut, f.ts.URL+"/secrets/openai?agent_id=agent-7", payload)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "stored", decodeBody(t, res)["status"])

	res, err = http.Get(f.ts.URL + "/secrets/openai?agent_id=agent-7")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, "openai", body["service"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sk-123", data["api_key"])

	req, err = http.NewRequest(http.MethodDelete, f.ts.URL+"/secrets/openai?agent_id=agent-7", nil)
	require.NoError(t, err)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "deleted", decodeBody(t, res)["status"])

	res, err = http.Get(f.ts.URL + "/secrets/openai?agent_id=agent-7")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "not_found", errorCode(t, res))
}

func TestSecrets_IsolatedPerAgent(t *testing.T) {
	f := newAPIFixture(t)

	payload := strings.NewReader(`{"token":"abc"}`)
	req, err := http.NewRequest(http.MethodPut, f.ts.URL+"/secrets/github?agent_id=agent-a", payload)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()

	res, err = http.Get(f.ts.URL + "/secrets/github?agent_id=agent-b")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	res, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, res)["status"])

	res, err = http.Get(f.ts.URL + "/readyz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
}

func TestReadyz_AfterShutdown(t *testing.T) {
	f := newAPIFixture(t)

	require.NoError(t, f.sc.Shutdown())

	res, err := http.Get(f.ts.URL + "/readyz")
	require.NoError(t, err)

	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, "not ready", body["status"])
}
