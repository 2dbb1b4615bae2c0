package transfer

import (
	"context"
	"errors"
	"fmt"
)

// fakeFetcher serves synthetic ranges of a fixed-size source and records
// every requested range.
type fakeFetcher struct {
	size    int64
	ranges  [][2]int64
	failErr error
}

func (f *fakeFetcher) FetchRange(_ context.Context, _ string, start, end int64) ([]byte, int64, error) {
	if f.failErr != nil {
		return nil, 0, f.failErr
	}
	f.ranges = append(f.ranges, [2]int64{start, end})

	// Clamp like a real server honoring an over-long range request.
	if end > f.size-1 {
		end = f.size - 1
	}
	n := end - start + 1
	return make([]byte, n), n, nil
}

type sentPart struct {
	partNumber int
	size       int64
}

// fakePartStore records sent parts and can inject a configurable number of
// failures before succeeding.
type fakePartStore struct {
	sent         []sentPart
	failuresLeft int
	failErr      error
	transient    bool
}

var errFakeStore = errors.New("store blew up")

func (s *fakePartStore) SendPart(_ context.Context, _, _, _ string, partNumber int, body []byte) (string, error) {
	if s.failuresLeft > 0 {
		s.failuresLeft--
		if s.failErr != nil {
			return "", s.failErr
		}
		return "", errFakeStore
	}
	s.sent = append(s.sent, sentPart{partNumber: partNumber, size: int64(len(body))})
	return fmt.Sprintf("etag-%d", partNumber), nil
}

func (s *fakePartStore) TransientErr(error) bool {
	return s.transient
}
