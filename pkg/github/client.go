package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// Client talks to the repository Contents API using the GitHub REST API
type Client struct {
	client  *github.Client
	limiter RateLimiter
}

// Option customizes a Client
type Option func(*Client) error

// WithEnterpriseURL points the client at a GitHub Enterprise API
func WithEnterpriseURL(baseURL string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(baseURL) == "" {
			return nil
		}
		ent, err := c.client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		c.client = ent
		return nil
	}
}

// WithRateLimiter paces API calls using the given limiter. A nil limiter
// disables pacing.
func WithRateLimiter(limiter RateLimiter) Option {
	return func(c *Client) error {
		c.limiter = limiter
		return nil
	}
}

// NewClient creates a new GitHub API client with the provided token
func NewClient(token string, opts ...Option) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	c := &Client{
		client:  github.NewClient(tc),
		limiter: NewRateLimiter(nil),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// splitRepo splits "owner/repo". Malformed identifiers are passed through so
// that the API reports them.
func splitRepo(repo string) (string, string) {
	owner, name, _ := strings.Cut(repo, "/")
	return owner, name
}

// escapePath escapes each segment of a repository path. CreateFile and
// UpdateFile put the path into the URL as is, unlike GetContents.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// GetFile retrieves metadata and content of the file at path. Any non-2xx
// response is returned as an *Error carrying the status code.
func (c *Client) GetFile(ctx context.Context, repo, path string) (*RemoteFile, error) {
	owner, name := splitRepo(repo)
	resource := fmt.Sprintf("file %s in %s", path, repo)

	var file *github.RepositoryContent
	var dir []*github.RepositoryContent

	err := c.execute(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		file, dir, resp, err = c.client.Repositories.GetContents(ctx, owner, name, path, nil)
		return resp, err
	})
	if err != nil {
		return nil, WrapError(err, resource)
	}

	if file == nil {
		msg := "path is not a file"
		if dir != nil {
			msg = "path is a directory"
		}
		return nil, &Error{
			Type:       ErrorTypeValidation,
			Message:    msg,
			Resource:   resource,
			StatusCode: http.StatusOK,
		}
	}

	// GetContent would decode the payload; RemoteFile keeps the raw field
	var content string
	if file.Content != nil {
		content = *file.Content
	}

	return &RemoteFile{
		Path:     file.GetPath(),
		SHA:      file.GetSHA(),
		Size:     file.GetSize(),
		Encoding: file.GetEncoding(),
		Content:  content,
	}, nil
}

// PutFile creates the file at path, or updates it when sha names the blob
// currently stored there. Content is sent base64 encoded.
func (c *Client) PutFile(ctx context.Context, repo, path string, content []byte, sha, message string) (*PutResult, error) {
	owner, name := splitRepo(repo)
	resource := fmt.Sprintf("file %s in %s", path, repo)

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if sha != "" {
		opts.SHA = github.String(sha)
	}

	var result *github.RepositoryContentResponse
	var statusCode int

	err := c.execute(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		if sha == "" {
			result, resp, err = c.client.Repositories.CreateFile(ctx, owner, name, escapePath(path), opts)
		} else {
			result, resp, err = c.client.Repositories.UpdateFile(ctx, owner, name, escapePath(path), opts)
		}
		if resp != nil {
			statusCode = resp.StatusCode
		}
		return resp, err
	})
	if err != nil {
		return nil, WrapError(err, resource)
	}

	put := &PutResult{
		StatusCode: statusCode,
		Created:    statusCode == http.StatusCreated,
	}
	if result != nil {
		put.SHA = result.Content.GetSHA()
		put.CommitSHA = result.Commit.GetSHA()
	}
	return put, nil
}

// CurrentUser returns the login behind the token and its OAuth scopes.
// Fine-grained tokens report no scopes.
func (c *Client) CurrentUser(ctx context.Context) (*TokenInfo, error) {
	var user *github.User
	var scopeHeader string

	err := c.execute(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		user, resp, err = c.client.Users.Get(ctx, "")
		if resp != nil {
			scopeHeader = resp.Header.Get("X-OAuth-Scopes")
		}
		return resp, err
	})
	if err != nil {
		return nil, WrapError(err, "authenticated user")
	}

	scopes := []string{}
	if scopeHeader != "" {
		scopes = strings.Split(strings.ReplaceAll(scopeHeader, " ", ""), ",")
	}

	return &TokenInfo{
		User:   user.GetLogin(),
		Scopes: scopes,
	}, nil
}

// execute runs one API call behind the rate limiter and feeds the response
// rate headers back into it
func (c *Client) execute(ctx context.Context, operation func() (*github.Response, error)) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	resp, err := operation()

	if c.limiter != nil && resp != nil && resp.Rate.Limit > 0 {
		c.limiter.UpdateLimits(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}

	return err
}
