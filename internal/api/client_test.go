package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsmith/internal/api"
)

func TestStatusSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"running":true,"pid":42,"active_channels":1,"dependencies":[{"name":"FFmpeg","available":true}]}`))
	}))
	defer server.Close()

	client, err := api.NewClient(server.URL, "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if !status.Running || status.PID != 42 || len(status.Dependencies) != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestNewClientNormalizesBareAddress(t *testing.T) {
	client, err := api.NewClient("127.0.0.1:7878", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := api.NewClient("  ", ""); err == nil {
		t.Fatal("expected empty address error")
	}
	_ = client
}

func TestLibraryListPassesKindFilter(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"renders":[{"id":1,"session_id":"s1","kind":"product-ad","artifact_path":"/out/final.mp4"}]}`))
	}))
	defer server.Close()

	client, err := api.NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.LibraryList(context.Background(), "product-ad")
	if err != nil {
		t.Fatalf("LibraryList: %v", err)
	}
	if gotQuery != "kind=product-ad" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(resp.Renders) != 1 || resp.Renders[0].SessionID != "s1" {
		t.Fatalf("renders = %+v", resp.Renders)
	}
}

func TestLibraryRemoveUsesDeleteOnSessionPath(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"removed":1}`))
	}))
	defer server.Close()

	client, err := api.NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	removed, err := client.LibraryRemove(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("LibraryRemove: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/library/sess-9" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}

	if _, err := client.LibraryRemove(context.Background(), " "); err == nil {
		t.Fatal("expected session id validation error")
	}
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"library unavailable"}`))
	}))
	defer server.Close()

	client, err := api.NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.LibraryClear(context.Background()); err == nil {
		t.Fatal("expected server error")
	}
}

func TestUnauthorizedGetsDedicatedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := api.NewClient(server.URL, "wrong")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Status(context.Background())
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
}
