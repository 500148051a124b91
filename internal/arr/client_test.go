package arr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTestConnectionAcceptsOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/system/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"version":"5.0.0"}`))
	}))
	defer server.Close()

	client := NewRadarr(server.URL, "secret")
	if err := client.TestConnection(context.Background()); err != nil {
		t.Fatalf("test connection: %v", err)
	}
}

func TestTestConnectionRejectsBadKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewSonarr(server.URL, "wrong")
	if err := client.TestConnection(context.Background()); err == nil {
		t.Fatal("expected error for rejected key")
	}
}

func TestTestConnectionUnconfigured(t *testing.T) {
	client := NewRadarr("", "")
	if client.Configured() {
		t.Fatal("empty client reported configured")
	}
	if err := client.TestConnection(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestCheckAllSkipsNilAndStopsOnFailure(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer okServer.Close()
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer badServer.Close()

	good := NewRadarr(okServer.URL, "k")
	bad := NewSonarr(badServer.URL, "k")

	if err := CheckAll(context.Background(), nil, good); err != nil {
		t.Fatalf("check all: %v", err)
	}
	if err := CheckAll(context.Background(), good, bad); err == nil {
		t.Fatal("expected failure from bad endpoint")
	}
}
