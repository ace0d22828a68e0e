package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/fhe/simfhe"
	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/server/locations"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophmatch/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contract = fhe.MustAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	alice    = fhe.MustAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	creator  = fhe.MustAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

	engine = simfhe.New("httpapi")
)

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*services.MatchService, http.Handler) {
	t.Helper()
	svc := services.NewMatchService(memory.NewLedger(), engine, contract)
	return svc, NewRouter(svc, locations.Default(), logging.Nop())
}

func get(t *testing.T, h http.Handler, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestRouter_ReadFlow(t *testing.T) {
	ctx := context.Background()
	svc, h := setup(t)

	in, err := engine.NewInput(contract, alice).Add32(86).Add32(1001).Add64(100000).Add16(1995).Encrypt(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Register(ctx, alice, "alice", in.Handles, in.Proof))

	id, err := svc.CreateApplication(ctx, creator, models.RawCriteria{CountryID: 86, MinBirthYear: 1980, MaxBirthYear: 2000}.Criteria())
	require.NoError(t, err)
	result, err := svc.SubmitApplication(ctx, alice, id)
	require.NoError(t, err)

	t.Run("user", func(t *testing.T) {
		code, env := get(t, h, "/v1/users/"+alice.String())
		require.Equal(t, http.StatusOK, code)
		var u userView
		require.NoError(t, json.Unmarshal(env.Data, &u))
		assert.True(t, u.Registered)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, in.Handles[2], u.Salary)
	})

	t.Run("unknown user is unregistered", func(t *testing.T) {
		code, env := get(t, h, "/v1/users/"+creator.String())
		require.Equal(t, http.StatusOK, code)
		var u userView
		require.NoError(t, json.Unmarshal(env.Data, &u))
		assert.False(t, u.Registered)
	})

	t.Run("application", func(t *testing.T) {
		code, env := get(t, h, "/v1/applications/0")
		require.Equal(t, http.StatusOK, code)
		var app applicationView
		require.NoError(t, json.Unmarshal(env.Data, &app))
		assert.Equal(t, creator, app.Creator)
		assert.True(t, app.Active)
		assert.Equal(t, models.RawCriteria{CountryID: 86, MinBirthYear: 1980, MaxBirthYear: 2000}, app.Criteria)
	})

	t.Run("next id", func(t *testing.T) {
		code, env := get(t, h, "/v1/applications/next-id")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":1}`, string(env.Data))
	})

	t.Run("result", func(t *testing.T) {
		code, env := get(t, h, "/v1/applications/0/results/"+alice.String())
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"handle":"`+result.String()+`"}`, string(env.Data))
	})

	t.Run("grants", func(t *testing.T) {
		_, env := get(t, h, "/v1/handles/"+result.String()+"/grants/"+alice.String())
		assert.JSONEq(t, `{"allowed":true}`, string(env.Data))

		_, env = get(t, h, "/v1/handles/"+result.String()+"/grants/"+creator.String())
		assert.JSONEq(t, `{"allowed":false}`, string(env.Data))
	})
}

func TestRouter_Errors(t *testing.T) {
	_, h := setup(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing application", "/v1/applications/7", http.StatusNotFound},
		{"bad application id", "/v1/applications/abc", http.StatusBadRequest},
		{"missing result", "/v1/applications/0/results/" + alice.String(), http.StatusNotFound},
		{"bad account", "/v1/users/alice", http.StatusBadRequest},
		{"bad handle", "/v1/handles/0x01/grants/" + alice.String(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := get(t, h, tt.path)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, StatusError, env.Status)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestRouter_HealthAndLocations(t *testing.T) {
	_, h := setup(t)

	code, env := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusOK, env.Status)

	code, env = get(t, h, "/v1/locations")
	require.Equal(t, http.StatusOK, code)
	var countries []locations.Country
	require.NoError(t, json.Unmarshal(env.Data, &countries))
	assert.Equal(t, locations.Default().Countries, countries)
}

func TestRouter_Metrics(t *testing.T) {
	_, h := setup(t)
	get(t, h, "/healthz")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gophmatch_http_requests_total{method="GET",path="/healthz",status="200"}`)
}

func TestServer_Serve(t *testing.T) {
	_, h := setup(t)
	srv := NewServer("127.0.0.1:0", h, logging.Nop())

	lis, err := newLocalListener()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	http.DefaultClient.CloseIdleConnections()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}
