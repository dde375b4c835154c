// Package github is the REST client for the GitHub API, used as the
// code-hosting adapter: it lists repository files (with content for audit
// candidates) and counts recent commits.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// maxContentFetches caps the number of per-file content requests for one
// repository listing.
const maxContentFetches = 12

// maxContentBytes skips content fetches for files larger than this.
const maxContentBytes = 512 * 1024

// commitLookback is the window used by RecentCommitCount.
const commitLookback = 30 * 24 * time.Hour

// Client is the GitHub REST API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a GitHub client. baseURL is the API root, e.g.
// "https://api.github.com". token is optional; unauthenticated requests are
// heavily rate limited.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListRepoFiles lists the repository tree. For files under audit-related
// paths it also fetches text content and the last commit date; other entries
// carry only their path so heuristics can scan names cheaply.
func (c *Client) ListRepoFiles(ctx context.Context, repoURL string) ([]domain.RepoFile, error) {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	info, err := c.fetchRepoInfo(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	tree, err := c.fetchTree(ctx, owner, repo, info.DefaultBranch)
	if err != nil {
		return nil, err
	}

	files := make([]domain.RepoFile, 0, len(tree.Tree))
	fetched := 0
	for _, entry := range tree.Tree {
		if entry.Type != "blob" {
			continue
		}

		f := domain.RepoFile{
			Path: entry.Path,
			URL:  fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", owner, repo, info.DefaultBranch, entry.Path),
		}

		if fetched < maxContentFetches && wantsContent(entry.Path, entry.Size) {
			if content, modified, err := c.fetchFileDetail(ctx, owner, repo, entry.Path); err == nil {
				f.Content = content
				f.LastModified = modified
				fetched++
			}
		}
		if f.LastModified.IsZero() {
			f.LastModified = info.PushedAt
		}

		files = append(files, f)
	}
	return files, nil
}

// RecentCommitCount returns the number of commits on the default branch in
// the recent activity window, capped at one page (100).
func (c *Client) RecentCommitCount(ctx context.Context, repoURL string) (int, error) {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return 0, err
	}

	since := time.Now().Add(-commitLookback).UTC().Format(time.RFC3339)
	path := fmt.Sprintf("/repos/%s/%s/commits?since=%s&per_page=100",
		url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(since))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("github: list commits %s/%s: %w", owner, repo, err)
	}

	var commits []json.RawMessage
	if err := json.Unmarshal(body, &commits); err != nil {
		return 0, fmt.Errorf("github: decode commits: %w", err)
	}
	return len(commits), nil
}

// wantsContent reports whether a tree entry should have its content and
// commit date fetched: text files on audit-ish or oracle-ish paths.
func wantsContent(path string, size int) bool {
	if size > maxContentBytes {
		return false
	}
	p := strings.ToLower(path)
	if !strings.HasSuffix(p, ".md") && !strings.HasSuffix(p, ".txt") && !strings.HasSuffix(p, ".rst") {
		return false
	}
	return strings.Contains(p, "audit") || strings.Contains(p, "oracle") || strings.Contains(p, "security")
}

// apiRepoInfo is the subset of GET /repos/{owner}/{repo} used here.
type apiRepoInfo struct {
	DefaultBranch string    `json:"default_branch"`
	PushedAt      time.Time `json:"pushed_at"`
}

func (c *Client) fetchRepoInfo(ctx context.Context, owner, repo string) (apiRepoInfo, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo)))
	if err != nil {
		return apiRepoInfo{}, fmt.Errorf("github: get repo %s/%s: %w", owner, repo, err)
	}
	var info apiRepoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return apiRepoInfo{}, fmt.Errorf("github: decode repo info: %w", err)
	}
	if info.DefaultBranch == "" {
		info.DefaultBranch = "main"
	}
	return info, nil
}

// apiTree is the response of the recursive git tree endpoint.
type apiTree struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int    `json:"size"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

func (c *Client) fetchTree(ctx context.Context, owner, repo, branch string) (apiTree, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return apiTree{}, fmt.Errorf("github: get tree %s/%s: %w", owner, repo, err)
	}
	var tree apiTree
	if err := json.Unmarshal(body, &tree); err != nil {
		return apiTree{}, fmt.Errorf("github: decode tree: %w", err)
	}
	return tree, nil
}

// apiContent is the response of the contents endpoint for a single file.
type apiContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// fetchFileDetail fetches a file's decoded content and last commit date.
func (c *Client) fetchFileDetail(ctx context.Context, owner, repo, path string) (string, time.Time, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), escapePath(path)))
	if err != nil {
		return "", time.Time{}, err
	}
	var content apiContent
	if err := json.Unmarshal(body, &content); err != nil {
		return "", time.Time{}, fmt.Errorf("github: decode content: %w", err)
	}

	var text string
	if content.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
		if err != nil {
			return "", time.Time{}, fmt.Errorf("github: decode base64 content: %w", err)
		}
		text = string(decoded)
	} else {
		text = content.Content
	}

	modified, err := c.lastCommitDate(ctx, owner, repo, path)
	if err != nil {
		modified = time.Time{}
	}
	return text, modified, nil
}

// apiCommit is the subset of the commits listing used for file dates.
type apiCommit struct {
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

func (c *Client) lastCommitDate(ctx context.Context, owner, repo, path string) (time.Time, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("/repos/%s/%s/commits?path=%s&per_page=1",
		url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(path)))
	if err != nil {
		return time.Time{}, err
	}
	var commits []apiCommit
	if err := json.Unmarshal(body, &commits); err != nil || len(commits) == 0 {
		return time.Time{}, fmt.Errorf("github: no commit history for %s", path)
	}
	return commits[0].Commit.Committer.Date, nil
}

// parseRepoURL extracts owner and repo from a GitHub repository URL.
func parseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil {
		return "", "", fmt.Errorf("github: parse repo url %q: %w", repoURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("github: repo url %q: %w", repoURL, domain.ErrNotFound)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// escapePath escapes each segment of a repository path while keeping the
// separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// doGet sends a GET request to the GitHub API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, body)
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, body)
	default:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
}

// Compile-time interface check.
var _ domain.CodeHostProvider = (*Client)(nil)
