package store_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cfbak/internal/cfbak"
	"cfbak/internal/store"
)

func newGitHubStore(t *testing.T, handler http.Handler) *store.GitHubStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return store.NewGitHubStore("alice", "backups", "tok", cfbak.NewNopLogger(),
		store.WithGitHubBaseURL(srv.URL))
}

func TestGitHubStore(t *testing.T) {
	t.Run("GetRepo maps 404 to not-found", func(t *testing.T) {
		s := newGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/repos/alice/backups" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusNotFound)
		}))

		if err := s.GetRepo(context.Background()); !cfbak.IsNotFound(err) {
			t.Errorf("GetRepo() = %v, want not-found", err)
		}
	})

	t.Run("CreateRepo posts to /user/repos with auto_init", func(t *testing.T) {
		var got map[string]any
		s := newGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/user/repos" {
				t.Errorf("%s %s", r.Method, r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
				t.Errorf("Authorization = %s", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decoding body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
		}))

		if err := s.CreateRepo(context.Background(), "zone backups", true); err != nil {
			t.Fatalf("CreateRepo() error = %v", err)
		}
		if got["name"] != "backups" || got["private"] != true || got["auto_init"] != true {
			t.Errorf("payload = %v", got)
		}
	})

	t.Run("GetFile decodes wrapped base64 content", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(`{"hello":"world"}`))
		// GitHub wraps base64 at 60 columns; simulate a break.
		wrapped := encoded[:8] + "\n" + encoded[8:]

		s := newGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/repos/alice/backups/contents/a/b.json" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if ref := r.URL.Query().Get("ref"); ref != "main" {
				t.Errorf("ref = %s", ref)
			}
			fmt.Fprintf(w, `{"name":"b.json","path":"a/b.json","type":"file","sha":"abc","content":%q}`, wrapped)
		}))

		file, err := s.GetFile(context.Background(), "a/b.json")
		if err != nil {
			t.Fatalf("GetFile() error = %v", err)
		}
		if !bytes.Equal(file.Content, []byte(`{"hello":"world"}`)) {
			t.Errorf("content = %q", file.Content)
		}
		if file.SHA != "abc" {
			t.Errorf("sha = %s", file.SHA)
		}
	})

	t.Run("PutFile carries sha only on updates", func(t *testing.T) {
		var got map[string]any
		s := newGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("method = %s", r.Method)
			}
			got = nil
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decoding body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		ctx := context.Background()

		if err := s.PutFile(ctx, "a.json", []byte("{}"), "msg", ""); err != nil {
			t.Fatalf("create error = %v", err)
		}
		if _, ok := got["sha"]; ok {
			t.Errorf("create payload carries sha: %v", got)
		}
		if got["content"] != base64.StdEncoding.EncodeToString([]byte("{}")) {
			t.Errorf("content = %v", got["content"])
		}

		if err := s.PutFile(ctx, "a.json", []byte("{}"), "msg", "abc"); err != nil {
			t.Fatalf("update error = %v", err)
		}
		if got["sha"] != "abc" {
			t.Errorf("update payload sha = %v", got["sha"])
		}
	})

	t.Run("PutFile surfaces conflict statuses", func(t *testing.T) {
		s := newGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))

		err := s.PutFile(context.Background(), "a.json", []byte("{}"), "msg", "stale")
		if err == nil {
			t.Fatal("PutFile() expected error")
		}
		var re *cfbak.RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("error = %T, want RemoteError", err)
		}
	})

	t.Run("ListDir maps entries and 404", func(t *testing.T) {
		s := newGitHubStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/repos/alice/backups/contents/absent" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `[
				{"name":"2024-01-01T00-00-00.000Z","path":"root/z/2024-01-01T00-00-00.000Z","type":"dir","html_url":"https://github.com/x"},
				{"name":"note.txt","path":"root/z/note.txt","type":"file","html_url":"https://github.com/y"}
			]`)
		}))
		ctx := context.Background()

		entries, err := s.ListDir(ctx, "root/z")
		if err != nil {
			t.Fatalf("ListDir() error = %v", err)
		}
		if len(entries) != 2 || entries[0].Type != "dir" || entries[1].Type != "file" {
			t.Errorf("entries = %+v", entries)
		}
		if entries[0].HTMLURL != "https://github.com/x" {
			t.Errorf("html url = %s", entries[0].HTMLURL)
		}

		if _, err := s.ListDir(ctx, "absent"); !cfbak.IsNotFound(err) {
			t.Errorf("ListDir(absent) = %v, want not-found", err)
		}
	})
}
