package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"versionFamily":  "1",
			"versionRelease": "hydradaemon-1.4.0",
			"online":         true,
			"remote":         "0.0.0.0",
			"docker":         true,
		})
	}))
	defer srv.Close()

	c := New(nil)
	status, err := c.Status(context.Background(), testNode(srv))
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.VersionRelease != "hydradaemon-1.4.0" {
		t.Errorf("VersionRelease = %q", status.VersionRelease)
	}
	if !status.Online || !status.Docker {
		t.Errorf("status = %+v", status)
	}
}

func TestStatusAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(nil)
	if _, err := c.Status(context.Background(), testNode(srv)); err == nil {
		t.Fatal("expected error on auth failure")
	}
}
