package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/akeren/klyr-waitlist/pkg/capture"
	"github.com/akeren/klyr-waitlist/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	server  *httptest.Server
	inserts atomic.Int32
	lastKey atomic.Value
	bodies  chan map[string]string
	fail    bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{bodies: make(chan map[string]string, 8)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/waitlist", func(w http.ResponseWriter, r *http.Request) {
		api.inserts.Add(1)
		api.lastKey.Store(r.Header.Get(client.APIKeyHeader))

		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		api.bodies <- body

		if api.fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":500,"message":"Unable to join the waitlist right now","data":null}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":201,"message":"Waitlist submission created successfully","data":{}}`))
	})
	mux.HandleFunc("GET /v1/waitlist/count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"message":"ok","data":{"count":57,"display":"57+"}}`))
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	t.Setenv("SKIP_DOTENV", "true")
	t.Setenv("KLYR_API_URL", api.server.URL)
	t.Setenv("KLYR_API_KEY", "pk_test")
	return api
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestJoin(t *testing.T) {
	t.Run("valid submission is sent once", func(t *testing.T) {
		api := newFakeAPI(t)

		out, err := run(t, "join", "--email", "a@b.com", "--role", "engineer", "--source", "hero-primary")

		require.NoError(t, err)
		assert.Contains(t, out, "You're on the list!")
		assert.Equal(t, int32(1), api.inserts.Load())
		assert.Equal(t, "pk_test", api.lastKey.Load())

		body := <-api.bodies
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "engineer", body["role"])
		assert.Equal(t, "hero-primary", body["source"])
		assert.Empty(t, body["meetings"])
	})

	t.Run("invalid email never reaches the api", func(t *testing.T) {
		api := newFakeAPI(t)

		out, err := run(t, "join", "--email", "not-an-email")

		require.Error(t, err)
		assert.Contains(t, out, "Invalid input")
		assert.Equal(t, int32(0), api.inserts.Load())
	})

	t.Run("server failure is reported", func(t *testing.T) {
		api := newFakeAPI(t)
		api.fail = true

		out, err := run(t, "join", "--email", "a@b.com")

		assert.ErrorIs(t, err, capture.ErrSubmissionFailed)
		assert.Contains(t, out, "Submission failed")
		assert.Equal(t, int32(1), api.inserts.Load())
	})
}

func TestCount(t *testing.T) {
	newFakeAPI(t)

	out, err := run(t, "count")

	require.NoError(t, err)
	assert.Equal(t, "57+\n", out)
}
