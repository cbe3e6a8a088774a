package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBytesFollowsRedirects(t *testing.T) {
	payload := []byte{'B', 'M', 0x00, 0x01}

	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hop":
			http.Redirect(w, r, target.URL+"/logo.bmp", http.StatusFound)
		case "/logo.bmp":
			w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer target.Close()

	c := New(Config{Timeout: 2 * time.Second})
	body, err := c.Bytes(context.Background(), target.URL+"/hop")
	require.NoError(t, err)
	require.Equal(t, payload, body)
}

func TestBytesRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 2 * time.Second})
	_, err := c.Bytes(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}

func TestBytesHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := New(Config{Timeout: 5 * time.Second})
	_, err := c.Bytes(ctx, srv.URL)
	require.Error(t, err)
}

func TestJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"A-1","total":14.4}`))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 2 * time.Second})
	var out map[string]interface{}
	require.NoError(t, c.JSON(context.Background(), srv.URL, &out))
	require.Equal(t, "A-1", out["id"])
	require.Equal(t, 14.4, out["total"])
}

func TestJSONReportsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 2 * time.Second})
	var out map[string]interface{}
	err := c.JSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}
