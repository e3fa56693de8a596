package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/grokify/mogo/net/http/retryhttp"

	"github.com/grokify/releasetrain/pkg/model"
)

// GitHubConfig configures the GitHub client.
type GitHubConfig struct {
	// Token is the GitHub personal access token.
	Token string

	// BaseURL overrides the API root, e.g. for GitHub Enterprise.
	BaseURL string

	// MaxRetries is the maximum number of retry attempts for API calls.
	// Default is 3.
	MaxRetries int

	// InitialBackoff is the initial backoff duration for retries.
	// Default is 1 second.
	InitialBackoff time.Duration

	// Timeout bounds every HTTP request. Zero means no timeout.
	Timeout time.Duration
}

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	client *github.Client
}

// NewGitHub creates a GitHub client with default retry settings.
func NewGitHub(token string) *GitHubClient {
	c, _ := NewGitHubWithConfig(GitHubConfig{Token: token})
	return c
}

// NewGitHubWithConfig creates a GitHub client with configuration.
func NewGitHubWithConfig(cfg GitHubConfig) (*GitHubClient, error) {
	retryOpts := []retryhttp.Option{}

	if cfg.MaxRetries > 0 {
		retryOpts = append(retryOpts, retryhttp.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.InitialBackoff > 0 {
		retryOpts = append(retryOpts, retryhttp.WithInitialBackoff(cfg.InitialBackoff))
	}

	// Retry transport handles 429 rate limits and transient 5xx responses.
	rt := retryhttp.NewWithOptions(retryOpts...)
	httpClient := &http.Client{Transport: rt, Timeout: cfg.Timeout}

	client := github.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}

	return &GitHubClient{client: client}, nil
}

// ListTags returns all tags for a repository.
func (c *GitHubClient) ListTags(ctx context.Context, repo model.RepoRef) ([]model.Tag, error) {
	var tags []model.Tag

	opts := &github.ListOptions{PerPage: 100}
	for {
		ghTags, resp, err := c.client.Repositories.ListTags(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, transportError("list tags", repo, err)
		}

		for _, t := range ghTags {
			tags = append(tags, model.Tag{
				Name: t.GetName(),
				SHA:  t.GetCommit().GetSHA(),
				Repo: repo,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return tags, nil
}

// ListReleases returns all non-draft releases for a repository.
func (c *GitHubClient) ListReleases(ctx context.Context, repo model.RepoRef) ([]model.Release, error) {
	var releases []model.Release

	opts := &github.ListOptions{PerPage: 100}
	for {
		ghReleases, resp, err := c.client.Repositories.ListReleases(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, transportError("list releases", repo, err)
		}

		for _, r := range ghReleases {
			if r.GetDraft() {
				continue
			}
			releases = append(releases, convertRelease(r, repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return releases, nil
}

// ListBranches returns all branches for a repository.
func (c *GitHubClient) ListBranches(ctx context.Context, repo model.RepoRef) ([]model.Branch, error) {
	var branches []model.Branch

	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		ghBranches, resp, err := c.client.Repositories.ListBranches(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, transportError("list branches", repo, err)
		}

		for _, b := range ghBranches {
			branches = append(branches, model.Branch{
				Name: b.GetName(),
				SHA:  b.GetCommit().GetSHA(),
				Repo: repo,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return branches, nil
}

// GetFile fetches a file from a repository at ref.
func (c *GitHubClient) GetFile(ctx context.Context, repo model.RepoRef, ref, path string) (*model.FileContent, error) {
	file, dir, _, err := c.client.Repositories.GetContents(
		ctx, repo.Owner, repo.Name, path,
		&github.RepositoryContentGetOptions{Ref: ref},
	)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s@%s: %w", path, repo.FullName(), ref, ErrFileNotFound)
		}
		return nil, transportError("get file "+path, repo, err)
	}
	if file == nil {
		if dir != nil {
			return nil, fmt.Errorf("%s %s@%s: %w", path, repo.FullName(), ref, ErrNotAFile)
		}
		return nil, fmt.Errorf("%s %s@%s: %w", path, repo.FullName(), ref, ErrFileNotFound)
	}
	if file.GetType() != "" && file.GetType() != "file" {
		return nil, fmt.Errorf("%s %s@%s: %w", path, repo.FullName(), ref, ErrNotAFile)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, transportError("decode file "+path, repo, err)
	}

	return &model.FileContent{
		Repo:    repo,
		Path:    path,
		Ref:     ref,
		Content: []byte(content),
		SHA:     file.GetSHA(),
	}, nil
}

// CompareRefs compares base...head.
func (c *GitHubClient) CompareRefs(ctx context.Context, repo model.RepoRef, base, head string) (*model.Comparison, error) {
	cmp, _, err := c.client.Repositories.CompareCommits(
		ctx, repo.Owner, repo.Name, base, head,
		&github.ListOptions{PerPage: 100},
	)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("compare %s...%s in %s: %w", base, head, repo.FullName(), ErrRefNotFound)
		}
		return nil, transportError("compare "+base+"..."+head, repo, err)
	}

	result := &model.Comparison{
		Repo:     repo,
		Base:     base,
		Head:     head,
		Status:   cmp.GetStatus(),
		AheadBy:  cmp.GetAheadBy(),
		BehindBy: cmp.GetBehindBy(),
	}

	for _, f := range cmp.Files {
		result.Files = append(result.Files, model.FileChange{
			Status:    f.GetStatus(),
			Filename:  f.GetFilename(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}

	for _, commit := range cmp.Commits {
		result.CommitMessages = append(result.CommitMessages, subjectLine(commit.GetCommit().GetMessage()))
	}

	return result, nil
}

// GetRefSHA resolves a branch or tag to the commit it points at.
func (c *GitHubClient) GetRefSHA(ctx context.Context, repo model.RepoRef, ref string) (string, error) {
	for _, prefix := range []string{"heads/", "tags/"} {
		r, _, err := c.client.Git.GetRef(ctx, repo.Owner, repo.Name, prefix+ref)
		if err != nil {
			if statusCode(err) == http.StatusNotFound {
				continue
			}
			return "", transportError("get ref "+prefix+ref, repo, err)
		}

		obj := r.GetObject()
		if obj.GetType() != "tag" {
			return obj.GetSHA(), nil
		}

		// Annotated tag: dereference to the tagged commit.
		tag, _, err := c.client.Git.GetTag(ctx, repo.Owner, repo.Name, obj.GetSHA())
		if err != nil {
			return "", transportError("get tag "+ref, repo, err)
		}
		return tag.GetObject().GetSHA(), nil
	}

	return "", fmt.Errorf("%s in %s: %w", ref, repo.FullName(), ErrRefNotFound)
}

// CreateBranch creates a branch pointing at sha.
func (c *GitHubClient) CreateBranch(ctx context.Context, repo model.RepoRef, name, sha string) error {
	_, _, err := c.client.Git.CreateRef(ctx, repo.Owner, repo.Name, github.CreateRef{
		Ref: "refs/heads/" + name,
		SHA: sha,
	})
	if err != nil {
		if alreadyExists(err) {
			return fmt.Errorf("branch %s in %s: %w", name, repo.FullName(), ErrAlreadyExists)
		}
		return transportError("create branch "+name, repo, err)
	}

	return nil
}

// UpdateFile commits new file content onto a branch.
func (c *GitHubClient) UpdateFile(ctx context.Context, update *model.FileUpdate) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(update.Message),
		Content: update.Content,
		SHA:     github.Ptr(update.PriorSHA),
		Branch:  github.Ptr(update.Branch),
	}

	_, _, err := c.client.Repositories.UpdateFile(ctx, update.Repo.Owner, update.Repo.Name, update.Path, opts)
	if err != nil {
		if statusCode(err) == http.StatusConflict || strings.Contains(err.Error(), "does not match") {
			return fmt.Errorf("%s on %s in %s: %w", update.Path, update.Branch, update.Repo.FullName(), ErrConflictingHash)
		}
		return transportError("update file "+update.Path, update.Repo, err)
	}

	return nil
}

// CreateRelease creates a new release for a repository.
func (c *GitHubClient) CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.Release, error) {
	ghRelease := &github.RepositoryRelease{
		TagName:    github.Ptr(req.TagName),
		Name:       github.Ptr(req.Name),
		Body:       github.Ptr(req.Body),
		Draft:      github.Ptr(req.Draft),
		Prerelease: github.Ptr(req.Prerelease),
	}

	if req.TargetCommitish != "" {
		ghRelease.TargetCommitish = github.Ptr(req.TargetCommitish)
	}

	created, _, err := c.client.Repositories.CreateRelease(ctx, req.Repo.Owner, req.Repo.Name, ghRelease)
	if err != nil {
		if alreadyExists(err) {
			return nil, fmt.Errorf("release %s in %s: %w", req.TagName, req.Repo.FullName(), ErrAlreadyExists)
		}
		return nil, transportError("create release "+req.TagName, req.Repo, err)
	}

	rel := convertRelease(created, req.Repo)
	return &rel, nil
}

// convertRelease converts a GitHub release to our model.
func convertRelease(r *github.RepositoryRelease, repo model.RepoRef) model.Release {
	return model.Release{
		TagName:     r.GetTagName(),
		Name:        r.GetName(),
		Body:        r.GetBody(),
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
		HTMLURL:     r.GetHTMLURL(),
		Repo:        repo,
	}
}

func transportError(op string, repo model.RepoRef, err error) error {
	return &TransportError{Op: op, Repo: repo.FullName(), Err: err}
}

func statusCode(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// alreadyExists reports whether GitHub rejected a create because the ref or
// release is already there.
func alreadyExists(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return false
	}
	if strings.Contains(strings.ToLower(ghErr.Message), "already exists") {
		return true
	}
	for _, e := range ghErr.Errors {
		if e.Code == "already_exists" || strings.Contains(strings.ToLower(e.Message), "already exists") {
			return true
		}
	}
	return false
}

func subjectLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return strings.TrimSpace(message[:idx])
	}
	return strings.TrimSpace(message)
}
