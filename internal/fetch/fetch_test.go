package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/internal/fsx"
)

func TestClientGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New()
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data := make([]byte, 5)
	n, _ := body.Read(data)
	assert.Equal(t, "hello", string(data[:n]))
}

func TestClientRetriesOnServerError(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(WithMaxRetries(5))
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestClientReturns404AsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithMaxRetries(2))
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestDownloadVerifiesChecksum(t *testing.T) {
	const body = "package contents"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := New()
	fs := fsx.NewMemory()
	expected := &ExpectedChecksum{Algo: AlgoBLAKE3, Hex: HashHexForTest(body)}
	result, err := c.Download(context.Background(), []string{srv.URL}, fs, "/dl/archive.zip", expected, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), result.BytesTotal)
}

func TestDownloadFailsOnChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("actual content"))
	}))
	defer srv.Close()

	c := New()
	fs := fsx.NewMemory()
	expected := &ExpectedChecksum{Algo: AlgoBLAKE3, Hex: "0000000000000000000000000000000000000000000000000000000000000000"}
	_, err := c.Download(context.Background(), []string{srv.URL}, fs, "/dl/archive.zip", expected, nil)
	require.Error(t, err)

	exists, _ := fs.Exists("/dl/archive.zip")
	assert.False(t, exists, "mismatched download must be removed")
}

func TestDownloadFallsBackToNextMirror(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("from mirror"))
	}))
	defer good.Close()

	c := New()
	fs := fsx.NewMemory()
	result, err := c.Download(context.Background(), []string{bad.URL, good.URL}, fs, "/dl/pkg.tar", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len("from mirror")), result.BytesTotal)
}

func TestCredentialManagerAppliesBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var ok bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, ok = r.BasicAuth()
		w.Write([]byte("authed"))
	}))
	defer srv.Close()

	auth, err := parseAuthFileForTest("127.0.0.1")
	require.NoError(t, err)

	c := New(WithAuth(NewCredentialManager(auth)))
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	body.Close()
	assert.True(t, ok)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "secret", gotPass)
}
