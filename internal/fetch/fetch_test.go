package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/laptops/internal/ratelimit"
	"github.com/law-makers/laptops/internal/retry"
)

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Retry.InitialBackoff = time.Millisecond
	opts.Retry.MaxBackoff = 2 * time.Millisecond
	return opts
}

func TestFetch_SendsHeadersWithoutCookies(t *testing.T) {
	var gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<div class="product"><h2>ThinkPad</h2></div>`))
	}))
	defer srv.Close()

	f := New(NewClient(time.Second), nil, fastOptions())
	for i := 0; i < 2; i++ {
		page, err := f.Fetch(context.Background(), srv.URL+"/laptops")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if v, ok := page.Query("h2"); !ok || v != "ThinkPad" {
			t.Fatalf("unexpected page content %q", v)
		}
	}

	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotCookie != "" {
		t.Errorf("cookies must not be persisted, got %q", gotCookie)
	}
}

func TestFetch_RetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<p>ok</p>`))
	}))
	defer srv.Close()

	page, err := New(nil, nil, fastOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if v, _ := page.Query("p"); v != "ok" {
		t.Fatalf("unexpected body %q", v)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestFetch_ExhaustedRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(524)
	}))
	defer srv.Close()

	_, err := New(nil, nil, fastOptions()).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != 524 || fe.Attempts != 5 {
		t.Fatalf("unexpected error details %+v", fe)
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
}

func TestFetch_ErrorStatusIsParsed(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<h1>Not here</h1>`))
	}))
	defer srv.Close()

	page, err := New(nil, nil, fastOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("404 pages are handed to the parser, got %v", err)
	}
	if v, _ := page.Query("h1"); v != "Not here" {
		t.Fatalf("unexpected body %q", v)
	}
	if calls != 1 {
		t.Fatalf("404 must not be retried, got %d calls", calls)
	}
}

func TestFetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>moved</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := New(nil, nil, fastOptions()).Fetch(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}
	if page.URL() != srv.URL+"/new" {
		t.Fatalf("page URL should be the final URL, got %s", page.URL())
	}
}

func TestFetch_DecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		// "Café" in windows-1252
		w.Write([]byte("<p>Caf\xe9</p>"))
	}))
	defer srv.Close()

	page, err := New(nil, nil, fastOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := page.Query("p"); v != "Café" {
		t.Fatalf("expected decoded text, got %q", v)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := New(nil, nil, fastOptions()).Fetch(context.Background(), "ftp://example.com")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetch_UsesLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>ok</p>`))
	}))
	defer srv.Close()

	f := New(nil, ratelimit.NewDomainLimiter(40*time.Millisecond, 2), fastOptions())
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Fatalf("limiter delay not applied, took %v", elapsed)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, nil, fastOptions()).Fetch(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchError_StatusCoder(t *testing.T) {
	var sc retry.StatusCoder = &FetchError{StatusCode: 503}
	if sc.GetStatusCode() != 503 {
		t.Fatal("FetchError must expose its status code")
	}
}
