package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cfbak/internal/cfbak"
)

const (
	defaultGitHubBaseURL = "https://api.github.com"
	githubBranch         = "main"
)

// GitHubStore is the canonical SnapshotStore: one repository on GitHub,
// written through the contents API on the main branch. The API's SHA check
// on updates provides the optimistic concurrency the writer relies on.
type GitHubStore struct {
	baseURL string
	owner   string
	repo    string
	token   string
	client  *http.Client
	logger  cfbak.Logger
}

// GitHubOption configures a GitHubStore.
type GitHubOption func(*GitHubStore)

// WithGitHubBaseURL overrides the API base URL. Used by tests.
func WithGitHubBaseURL(url string) GitHubOption {
	return func(s *GitHubStore) { s.baseURL = url }
}

// NewGitHubStore creates a store for the (owner, repo) destination.
func NewGitHubStore(owner, repo, token string, logger cfbak.Logger, opts ...GitHubOption) *GitHubStore {
	s := &GitHubStore{
		baseURL: defaultGitHubBaseURL,
		owner:   owner,
		repo:    repo,
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// contentsEntry is the GitHub contents API object for both files and
// directory listings.
type contentsEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"` // "file" or "dir"
	SHA     string `json:"sha"`
	Content string `json:"content"` // base64, files only
	HTMLURL string `json:"html_url"`
}

func (s *GitHubStore) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// contentsPath builds the contents API path for a repository-relative path.
func (s *GitHubStore) contentsPath(path string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", s.owner, s.repo, path)
}

// GetRepo probes the repository by metadata read; 404 means absent.
func (s *GitHubStore) GetRepo(ctx context.Context) error {
	path := fmt.Sprintf("/repos/%s/%s", s.owner, s.repo)
	body, status, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return &cfbak.RemoteError{Service: "github", Op: "GET " + path, Err: err}
	}
	switch {
	case status == http.StatusNotFound:
		return &cfbak.NotFoundError{Resource: "repository", Key: s.owner + "/" + s.repo}
	case status < 200 || status >= 300:
		return &cfbak.RemoteError{Service: "github", Op: "GET " + path,
			Err: fmt.Errorf("status %d: %s", status, string(body))}
	}
	return nil
}

// CreateRepo creates the destination repository under the authenticated
// account. auto_init gives it an initial commit so the main branch exists
// before the first file write.
func (s *GitHubStore) CreateRepo(ctx context.Context, description string, private bool) error {
	payload := map[string]any{
		"name":        s.repo,
		"description": description,
		"private":     private,
		"auto_init":   true,
	}
	body, status, err := s.do(ctx, http.MethodPost, "/user/repos", payload)
	if err != nil {
		return &cfbak.RemoteError{Service: "github", Op: "POST /user/repos", Err: err}
	}
	if status < 200 || status >= 300 {
		return &cfbak.RemoteError{Service: "github", Op: "POST /user/repos",
			Err: fmt.Errorf("status %d: %s", status, string(body))}
	}
	s.logger.Info("repository created", "repo", s.owner+"/"+s.repo)
	return nil
}

// GetFile reads a file descriptor on the main branch.
func (s *GitHubStore) GetFile(ctx context.Context, path string) (*cfbak.FileInfo, error) {
	apiPath := s.contentsPath(path) + "?ref=" + url.QueryEscape(githubBranch)
	body, status, err := s.do(ctx, http.MethodGet, apiPath, nil)
	if err != nil {
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath, Err: err}
	}
	switch {
	case status == http.StatusNotFound:
		return nil, &cfbak.NotFoundError{Resource: "file", Key: path}
	case status < 200 || status >= 300:
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath,
			Err: fmt.Errorf("status %d: %s", status, string(body))}
	}

	var entry contentsEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath,
			Err: fmt.Errorf("decoding file entry: %w", err)}
	}

	content, err := base64.StdEncoding.DecodeString(stripNewlines(entry.Content))
	if err != nil {
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath,
			Err: fmt.Errorf("decoding file content: %w", err)}
	}
	return &cfbak.FileInfo{Content: content, SHA: entry.SHA}, nil
}

// PutFile creates or updates a file on the main branch. sha must be empty
// for creates and the current blob SHA for updates; GitHub rejects a stale
// SHA, which surfaces racing writers to the same path.
func (s *GitHubStore) PutFile(ctx context.Context, path string, content []byte, message, sha string) error {
	payload := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  githubBranch,
	}
	if sha != "" {
		payload["sha"] = sha
	}

	apiPath := s.contentsPath(path)
	body, status, err := s.do(ctx, http.MethodPut, apiPath, payload)
	if err != nil {
		return &cfbak.RemoteError{Service: "github", Op: "PUT " + apiPath, Err: err}
	}
	if status < 200 || status >= 300 {
		return &cfbak.RemoteError{Service: "github", Op: "PUT " + apiPath,
			Err: fmt.Errorf("status %d: %s", status, string(body))}
	}
	return nil
}

// ListDir lists the immediate entries under path on the main branch.
func (s *GitHubStore) ListDir(ctx context.Context, path string) ([]cfbak.DirEntry, error) {
	apiPath := s.contentsPath(path) + "?ref=" + url.QueryEscape(githubBranch)
	body, status, err := s.do(ctx, http.MethodGet, apiPath, nil)
	if err != nil {
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath, Err: err}
	}
	switch {
	case status == http.StatusNotFound:
		return nil, &cfbak.NotFoundError{Resource: "path", Key: path}
	case status < 200 || status >= 300:
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath,
			Err: fmt.Errorf("status %d: %s", status, string(body))}
	}

	var items []contentsEntry
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &cfbak.RemoteError{Service: "github", Op: "GET " + apiPath,
			Err: fmt.Errorf("decoding directory listing: %w", err)}
	}

	entries := make([]cfbak.DirEntry, len(items))
	for i, item := range items {
		entries[i] = cfbak.DirEntry{
			Name:    item.Name,
			Type:    item.Type,
			Path:    item.Path,
			HTMLURL: item.HTMLURL,
		}
	}
	return entries, nil
}

// stripNewlines removes the line breaks GitHub inserts into base64 content.
func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

var _ cfbak.SnapshotStore = (*GitHubStore)(nil)
