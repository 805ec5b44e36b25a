package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry(n int) retryConfig {
	return newRetryConfig(n, time.Millisecond, 2*time.Millisecond)
}

func TestDoWithRetryRetryCount(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&count, 1)
		if n <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := &http.Client{}
	resp, err := doWithRetry(context.Background(), client, fastRetry(3), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	defer resp.Body.Close()

	got := atomic.LoadInt32(&count)
	if got != 4 {
		t.Fatalf("expected exactly 4 attempts (3 retries + 1 success), got %d", got)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDoWithRetryAllFailures(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	const maxRetries = 2
	client := &http.Client{}
	_, err := doWithRetry(context.Background(), client, fastRetry(maxRetries), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, srv.URL, nil)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	got := atomic.LoadInt32(&count)
	if got != maxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", maxRetries+1, got)
	}
}

func TestDoWithRetryBuildErrorNotRetried(t *testing.T) {
	var builds int32
	_, err := doWithRetry(context.Background(), &http.Client{}, fastRetry(3), func() (*http.Request, error) {
		atomic.AddInt32(&builds, 1)
		return nil, errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected build error")
	}
	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Fatalf("expected a single build, got %d", got)
	}
}

type staticProvider struct {
	chunks []string
	err    error
}

func (p staticProvider) Complete(context.Context, []Message, Options) (Stream, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &sliceStream{chunks: p.chunks}, nil
}

type sliceStream struct {
	chunks []string
	closed bool
}

func (s *sliceStream) Recv() (Chunk, error) {
	if len(s.chunks) == 0 {
		return Chunk{}, io.EOF
	}
	next := s.chunks[0]
	s.chunks = s.chunks[1:]
	return Chunk{Content: next}, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func TestGenerateCollectsChunks(t *testing.T) {
	text, err := Generate(context.Background(), staticProvider{chunks: []string{" Hel", "lo ", "there "}}, nil, Options{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Hello there" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(context.Background(), nil, nil, Options{}); err == nil {
		t.Fatal("expected error for nil provider")
	}
	boom := errors.New("boom")
	if _, err := Generate(context.Background(), staticProvider{err: boom}, nil, Options{}); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if _, err := Generate(context.Background(), staticProvider{chunks: []string{"  "}}, nil, Options{}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected empty completion, got %v", err)
	}
}

func TestSSEStreamHandlesMultilineAndMissingTrailer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\r\n\r\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	stream := newSSEStream(resp, decodeOpenAIChunk)
	defer stream.Close()

	var got string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		got += chunk.Content
	}
	if got != "ab" {
		t.Fatalf("unexpected content %q", got)
	}
}
