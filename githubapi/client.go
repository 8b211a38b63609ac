package githubapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/reviewops/auth"
	"github.com/jonwraymond/reviewops/cache"
	"github.com/jonwraymond/reviewops/observe"
	"github.com/jonwraymond/reviewops/resilience"
)

const (
	acceptJSON = "application/vnd.github+json"
	acceptDiff = "application/vnd.github.v3.diff"
	acceptRaw  = "application/vnd.github.raw+json"

	apiVersionHeader = "X-GitHub-Api-Version"
)

// Config configures the GitHub API client.
type Config struct {
	// BaseURL is the API root.
	// Default: "https://api.github.com"
	BaseURL string

	// UserAgent is sent with every request.
	// Default: "reviewops"
	UserAgent string

	// APIVersion is the GitHub API version header value.
	// Default: "2022-11-28"
	APIVersion string

	// Credentials supplies the bearer token. Required.
	Credentials auth.TokenSource

	// Executor is the resilience pipeline every outbound call goes
	// through. If nil, one with default settings is created.
	Executor *resilience.Executor

	// Reads optionally serves idempotent reads from cache; cache hits
	// bypass the executor entirely and spend no rate-limit tokens.
	Reads *cache.ReadThrough

	// HTTPClient is the underlying transport.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client

	// Logger receives per-call logs. Default: no logging.
	Logger observe.Logger
}

// Client talks to the GitHub REST API on behalf of review sessions. All
// calls flow through the resilience executor keyed by the session ID in
// the context (see WithSession); reads may be served from cache.
type Client struct {
	config   Config
	executor *resilience.Executor
}

// NewClient creates a GitHub API client.
func NewClient(config Config) (*Client, error) {
	if config.Credentials == nil {
		return nil, errors.New("githubapi: credentials are required")
	}

	// Apply defaults
	if config.BaseURL == "" {
		config.BaseURL = "https://api.github.com"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.UserAgent == "" {
		config.UserAgent = "reviewops"
	}
	if config.APIVersion == "" {
		config.APIVersion = "2022-11-28"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	executor := config.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.ExecutorConfig{})
	}

	return &Client{
		config:   config,
		executor: executor,
	}, nil
}

// Executor returns the resilience pipeline handle.
func (c *Client) Executor() *resilience.Executor { return c.executor }

// GetPullRequest fetches pull request metadata.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	body, err := c.cachedGet(ctx, cache.ResourcePullRequest,
		[]string{owner, repo, strconv.Itoa(number)},
		apiRequest{
			method: http.MethodGet,
			path:   fmt.Sprintf("/repos/%s/%s/pulls/%d", pathSeg(owner), pathSeg(repo), number),
		})
	if err != nil {
		return nil, err
	}

	var pr PullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("githubapi: decode pull request: %w", err)
	}
	return &pr, nil
}

// GetPullRequestDiff fetches the unified diff of a pull request.
func (c *Client) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	body, err := c.cachedGet(ctx, cache.ResourceDiff,
		[]string{owner, repo, strconv.Itoa(number)},
		apiRequest{
			method: http.MethodGet,
			path:   fmt.Sprintf("/repos/%s/%s/pulls/%d", pathSeg(owner), pathSeg(repo), number),
			accept: acceptDiff,
		})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetFileContent fetches a file's raw content at a specific ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	body, err := c.cachedGet(ctx, cache.ResourceFileContent,
		[]string{owner, repo, path, ref},
		apiRequest{
			method: http.MethodGet,
			path:   fmt.Sprintf("/repos/%s/%s/contents/%s", pathSeg(owner), pathSeg(repo), escapePath(path)),
			accept: acceptRaw,
			query:  url.Values{"ref": {ref}},
		})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CreateReviewComment creates an inline comment on a pull request diff.
// Side defaults to "RIGHT".
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, comment ReviewCommentRequest) (*ReviewComment, error) {
	if comment.Side == "" {
		comment.Side = "RIGHT"
	}

	body, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", pathSeg(owner), pathSeg(repo), number),
		body:   comment,
	})
	if err != nil {
		return nil, err
	}

	var created ReviewComment
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("githubapi: decode review comment: %w", err)
	}
	return &created, nil
}

// CreateIssueComment posts a top-level comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, text string) (*IssueComment, error) {
	body, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/repos/%s/%s/issues/%d/comments", pathSeg(owner), pathSeg(repo), number),
		body:   map[string]string{"body": text},
	})
	if err != nil {
		return nil, err
	}

	var created IssueComment
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("githubapi: decode issue comment: %w", err)
	}
	return &created, nil
}

// GetReviewComment fetches a single review comment by ID.
func (c *Client) GetReviewComment(ctx context.Context, owner, repo string, commentID int64) (*ReviewComment, error) {
	body, err := c.cachedGet(ctx, cache.ResourceComment,
		[]string{owner, repo, strconv.FormatInt(commentID, 10)},
		apiRequest{
			method: http.MethodGet,
			path:   fmt.Sprintf("/repos/%s/%s/pulls/comments/%d", pathSeg(owner), pathSeg(repo), commentID),
		})
	if err != nil {
		return nil, err
	}

	var comment ReviewComment
	if err := json.Unmarshal(body, &comment); err != nil {
		return nil, fmt.Errorf("githubapi: decode review comment: %w", err)
	}
	return &comment, nil
}

// ReplyToReviewComment replies in an existing review comment thread.
func (c *Client) ReplyToReviewComment(ctx context.Context, owner, repo string, number int, commentID int64, text string) (*ReviewComment, error) {
	body, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/repos/%s/%s/pulls/%d/comments/%d/replies", pathSeg(owner), pathSeg(repo), number, commentID),
		body:   map[string]string{"body": text},
	})
	if err != nil {
		return nil, err
	}

	var created ReviewComment
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("githubapi: decode reply: %w", err)
	}
	return &created, nil
}

// CreateOrUpdateFile writes a file through the contents API. When the file
// already exists on the branch its blob SHA is looked up first, turning
// the call into an update. The cached content for the path is invalidated.
func (c *Client) CreateOrUpdateFile(ctx context.Context, owner, repo, path, content, message, branch string) (*FileCommit, error) {
	contentsPath := fmt.Sprintf("/repos/%s/%s/contents/%s", pathSeg(owner), pathSeg(repo), escapePath(path))

	sha, err := c.lookupBlobSHA(ctx, contentsPath, branch)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}

	body, err := c.do(ctx, apiRequest{
		method: http.MethodPut,
		path:   contentsPath,
		body:   payload,
	})
	if err != nil {
		return nil, err
	}

	if c.config.Reads != nil {
		_ = c.config.Reads.Invalidate(ctx, cache.ResourceFileContent, owner, repo, path, branch)
	}

	var commit FileCommit
	if err := json.Unmarshal(body, &commit); err != nil {
		return nil, fmt.Errorf("githubapi: decode file commit: %w", err)
	}
	return &commit, nil
}

// AddReaction adds an emoji reaction to a review comment.
func (c *Client) AddReaction(ctx context.Context, owner, repo string, commentID int64, reaction string) (*Reaction, error) {
	body, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   fmt.Sprintf("/repos/%s/%s/pulls/comments/%d/reactions", pathSeg(owner), pathSeg(repo), commentID),
		body:   map[string]string{"content": reaction},
	})
	if err != nil {
		return nil, err
	}

	var created Reaction
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("githubapi: decode reaction: %w", err)
	}
	return &created, nil
}

// lookupBlobSHA returns the blob SHA of path on branch, empty when the
// file does not exist yet.
func (c *Client) lookupBlobSHA(ctx context.Context, contentsPath, branch string) (string, error) {
	body, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   contentsPath,
		query:  url.Values{"ref": {branch}},
	})
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", err
	}

	var existing struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(body, &existing); err != nil {
		return "", fmt.Errorf("githubapi: decode contents lookup: %w", err)
	}
	return existing.SHA, nil
}

// apiRequest describes one REST call.
type apiRequest struct {
	method string
	path   string
	accept string
	query  url.Values
	body   any
}

// cachedGet serves the read from cache when a read-through is configured.
// Cache hits return without entering the executor.
func (c *Client) cachedGet(ctx context.Context, resource string, coords []string, req apiRequest) ([]byte, error) {
	if c.config.Reads == nil {
		return c.do(ctx, req)
	}
	return c.config.Reads.Get(ctx, resource, coords, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, req)
	})
}

// do runs the request through the resilience pipeline and returns the
// response body.
func (c *Client) do(ctx context.Context, req apiRequest) ([]byte, error) {
	session := SessionFromContext(ctx)

	var out []byte
	err := c.executor.Execute(ctx, session, func(ctx context.Context) error {
		body, err := c.roundTrip(ctx, req)
		if err != nil {
			return err
		}
		out = body
		return nil
	})
	if err != nil {
		c.config.Logger.Warn(ctx, "github call failed",
			observe.Field{Key: "method", Value: req.method},
			observe.Field{Key: "path", Value: req.path},
			observe.Field{Key: "session", Value: session},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil, err
	}

	c.config.Logger.Debug(ctx, "github call completed",
		observe.Field{Key: "method", Value: req.method},
		observe.Field{Key: "path", Value: req.path},
		observe.Field{Key: "session", Value: session},
	)
	return out, nil
}

// roundTrip performs one physical HTTP attempt.
func (c *Client) roundTrip(ctx context.Context, req apiRequest) ([]byte, error) {
	token, err := c.config.Credentials.Token(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := c.config.BaseURL + req.path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("githubapi: encode request body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, payload)
	if err != nil {
		return nil, fmt.Errorf("githubapi: build request: %w", err)
	}

	accept := req.accept
	if accept == "" {
		accept = acceptJSON
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set(apiVersionHeader, c.config.APIVersion)
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &TransientError{
			APIError: APIError{URL: fullURL, Message: err.Error()},
			Cause:    err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{
			APIError: APIError{StatusCode: resp.StatusCode, URL: fullURL, Message: err.Error()},
			Cause:    err,
		}
	}

	if resp.StatusCode >= 300 {
		return nil, classifyStatus(resp, fullURL, body)
	}
	return body, nil
}

// pathSeg escapes a single path segment (owner, repo).
func pathSeg(s string) string {
	return url.PathEscape(s)
}

// escapePath escapes a repository file path segment by segment, keeping
// the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
