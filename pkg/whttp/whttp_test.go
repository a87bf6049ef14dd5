package whttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendHTTPRequestSetsBrowserHeaders(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("いいね"))
	}))
	defer srv.Close()

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "X-Test", Value: "1"}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != USER_AGENT {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
	if gotCustom != "1" {
		t.Fatalf("custom header not forwarded")
	}
	if res.StatusCode != http.StatusOK || res.BodyString != "いいね" {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestSendHTTPRequestDecodesShiftJIS(t *testing.T) {
	// "いいね" in Shift_JIS
	sjis := []byte{0x82, 0xa2, 0x82, 0xa2, 0x82, 0xcb}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		w.Write(sjis)
	}))
	defer srv.Close()

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{URL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.BodyString != "いいね" {
		t.Fatalf("expected decoded body, got %q", res.BodyString)
	}
}

func TestSendHTTPRequestPassesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var calls int
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		srv.Config.Handler.ServeHTTP(w, r)
	}))
	defer counting.Close()

	client, err := NewClient(ClientOptions{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{URL: counting.URL}, client)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	if _, err := NewClient(ClientOptions{Proxy: "://bad"}); err == nil || !strings.Contains(err.Error(), "proxy") {
		t.Fatalf("expected proxy error, got %v", err)
	}
}
