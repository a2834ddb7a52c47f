package mcjars

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchServerJar(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "builds": [
			{"id": 42, "type": "FABRIC", "jarUrl": "https://cdn.example/server.jar", "jarSize": 999},
			{"id": 41, "type": "FABRIC", "jarUrl": "https://cdn.example/old.jar", "jarSize": 998}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-agent")
	info, err := c.FetchServerJar(context.Background(), "fabric", "1.20.1")
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/builds/FABRIC/1.20.1" {
		t.Errorf("path = %q, loader must be uppercased", gotPath)
	}
	if info.JarURL != "https://cdn.example/server.jar" || info.BuildID != 42 || info.JarSize != 999 {
		t.Errorf("info = %+v, want the first (newest) build", info)
	}
}

func TestFetchServerJarNoBuilds(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty_builds", `{"success": true, "builds": []}`},
		{"null_jar_url", `{"success": true, "builds": [{"id": 1, "jarUrl": null}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "")
			_, err := c.FetchServerJar(context.Background(), "vanilla", "1.20")
			if !errors.Is(err, ErrNoBuild) {
				t.Errorf("err = %v, want ErrNoBuild", err)
			}
		})
	}
}
