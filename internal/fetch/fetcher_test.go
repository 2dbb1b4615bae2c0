package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rangeServer serves a fixed body honoring single "bytes=a-b" ranges.
func rangeServer(body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			return
		}

		rng := r.Header.Get("Range")
		if rng == "" {
			w.Write(body)
			return
		}

		var start, end int
		fmt.Sscanf(rng, "bytes=%d-%d", &start, &end)
		if end > len(body)-1 {
			end = len(body) - 1
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(body)))
		w.Header().Set("Content-Length", strconv.Itoa(end-start+1))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(body[start : end+1])
	}))
}

func TestFetchRange(t *testing.T) {
	body := []byte("0123456789abcdefghij")
	srv := rangeServer(body)
	defer srv.Close()

	f := New(5*time.Second, "vodarc-test")
	payload, reported, err := f.FetchRange(context.Background(), srv.URL, 5, 9)

	require.NoError(t, err)
	assert.Equal(t, []byte("56789"), payload)
	assert.Equal(t, int64(5), reported)
}

func TestFetchRangeClampedByServer(t *testing.T) {
	body := []byte("0123456789")
	srv := rangeServer(body)
	defer srv.Close()

	f := New(5*time.Second, "")
	payload, reported, err := f.FetchRange(context.Background(), srv.URL, 8, 100)

	require.NoError(t, err)
	assert.Equal(t, []byte("89"), payload)
	assert.Equal(t, int64(2), reported)
}

func TestFetchRangeFullBodyResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("whole file, ranges ignored"))
	}))
	defer srv.Close()

	f := New(5*time.Second, "")
	_, _, err := f.FetchRange(context.Background(), srv.URL, 0, 9)

	assert.ErrorIs(t, err, ErrRangeNotSupported)
}

func TestFetchRangeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(5*time.Second, "")
	_, _, err := f.FetchRange(context.Background(), srv.URL, 0, 9)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestLength(t *testing.T) {
	body := []byte("0123456789abcdefghij")
	srv := rangeServer(body)
	defer srv.Close()

	f := New(5*time.Second, "")
	n, err := f.Length(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)
}
