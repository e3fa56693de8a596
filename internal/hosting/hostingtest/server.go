// Package hostingtest provides an in-memory hosting.Client for tests.
package hostingtest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/pkg/model"
)

// Server is an in-memory hosting.Client. Commits are opaque SHAs; every ref
// points at a SHA and every SHA has its own file tree.
type Server struct {
	mu       sync.Mutex
	owner    string
	repos    map[string]*Repo
	failures map[string]error
	calls    []string
	nextSHA  int
}

var _ hosting.Client = (*Server)(nil)

// Repo is the state of one fake repository.
type Repo struct {
	srv         *Server
	name        string
	branches    map[string]string
	branchOrder []string
	tags        map[string]string
	tagOrder    []string
	releases    []model.Release
	trees       map[string]map[string][]byte
	comparisons map[string]model.Comparison
}

// New creates an empty server for owner.
func New(owner string) *Server {
	return &Server{
		owner:    owner,
		repos:    make(map[string]*Repo),
		failures: make(map[string]error),
	}
}

// Repo returns the named repository, creating it when missing.
func (s *Server) Repo(name string) *Repo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo(name)
}

func (s *Server) repo(name string) *Repo {
	r, ok := s.repos[name]
	if !ok {
		r = &Repo{
			srv:         s,
			name:        name,
			branches:    make(map[string]string),
			tags:        make(map[string]string),
			trees:       make(map[string]map[string][]byte),
			comparisons: make(map[string]model.Comparison),
		}
		s.repos[name] = r
	}
	return r
}

func (s *Server) newSHA(repo string) string {
	s.nextSHA++
	return fmt.Sprintf("%s-%04d", repo, s.nextSHA)
}

// FailOn makes the next and every later call of op on repo fail with err.
// op is the Client method name, e.g. "GetFile".
func (s *Server) FailOn(op, repo string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+repo] = err
}

// Calls returns the mutating calls made so far, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// WithBranch adds a branch pointing at a fresh commit.
func (r *Repo) WithBranch(name string) *Repo {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	sha := r.srv.newSHA(r.name)
	r.trees[sha] = make(map[string][]byte)
	r.setBranch(name, sha)
	return r
}

// WithTag adds a tag pointing at a fresh commit.
func (r *Repo) WithTag(name string) *Repo {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	r.addTag(name)
	return r
}

// WithRelease adds a published release and its tag.
func (r *Repo) WithRelease(name string) *Repo {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	if _, ok := r.tags[name]; !ok {
		r.addTag(name)
	}
	r.releases = append(r.releases, model.Release{
		TagName: name,
		Name:    name,
		Repo:    r.ref(),
	})
	return r
}

// WithFile stores a file in the tree ref points at.
func (r *Repo) WithFile(ref, path, content string) *Repo {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	sha, ok := r.resolve(ref)
	if !ok {
		panic(fmt.Sprintf("hostingtest: unknown ref %q in %s", ref, r.name))
	}
	r.trees[sha][path] = []byte(content)
	return r
}

// WithManifest stores composer.json at ref.
func (r *Repo) WithManifest(ref, content string) *Repo {
	return r.WithFile(ref, "composer.json", content)
}

// WithComparison sets the result of comparing base...head.
func (r *Repo) WithComparison(base, head string, cmp model.Comparison) *Repo {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	cmp.Repo = r.ref()
	cmp.Base = base
	cmp.Head = head
	r.comparisons[base+"..."+head] = cmp
	return r
}

// BranchSHA returns the commit a branch points at.
func (r *Repo) BranchSHA(name string) (string, bool) {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	sha, ok := r.branches[name]
	return sha, ok
}

// File returns the content of path at ref.
func (r *Repo) File(ref, path string) (string, bool) {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	sha, ok := r.resolve(ref)
	if !ok {
		return "", false
	}
	content, ok := r.trees[sha][path]
	return string(content), ok
}

// Releases returns the published releases.
func (r *Repo) Releases() []model.Release {
	r.srv.mu.Lock()
	defer r.srv.mu.Unlock()
	return append([]model.Release(nil), r.releases...)
}

func (r *Repo) ref() model.RepoRef {
	return model.NewRepoRef(r.srv.owner, r.name)
}

func (r *Repo) addTag(name string) {
	sha := r.srv.newSHA(r.name)
	r.trees[sha] = make(map[string][]byte)
	r.tags[name] = sha
	r.tagOrder = append(r.tagOrder, name)
}

func (r *Repo) setBranch(name, sha string) {
	if _, ok := r.branches[name]; !ok {
		r.branchOrder = append(r.branchOrder, name)
	}
	r.branches[name] = sha
}

func (r *Repo) resolve(ref string) (string, bool) {
	if sha, ok := r.branches[ref]; ok {
		return sha, true
	}
	if sha, ok := r.tags[ref]; ok {
		return sha, true
	}
	if _, ok := r.trees[ref]; ok {
		return ref, true
	}
	return "", false
}

// begin locks the server, checks injected failures and returns the repo.
func (s *Server) begin(op string, repo model.RepoRef) (*Repo, error) {
	s.mu.Lock()
	if err, ok := s.failures[op+":"+repo.Name]; ok {
		return nil, err
	}
	r, ok := s.repos[repo.Name]
	if !ok {
		return nil, &hosting.TransportError{Op: op, Repo: repo.FullName(), Err: fmt.Errorf("404 Not Found")}
	}
	return r, nil
}

// ListTags implements hosting.Client.
func (s *Server) ListTags(_ context.Context, repo model.RepoRef) ([]model.Tag, error) {
	r, err := s.begin("ListTags", repo)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	tags := make([]model.Tag, 0, len(r.tagOrder))
	for _, name := range r.tagOrder {
		tags = append(tags, model.Tag{Name: name, SHA: r.tags[name], Repo: repo})
	}
	return tags, nil
}

// ListReleases implements hosting.Client.
func (s *Server) ListReleases(_ context.Context, repo model.RepoRef) ([]model.Release, error) {
	r, err := s.begin("ListReleases", repo)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return append([]model.Release(nil), r.releases...), nil
}

// ListBranches implements hosting.Client.
func (s *Server) ListBranches(_ context.Context, repo model.RepoRef) ([]model.Branch, error) {
	r, err := s.begin("ListBranches", repo)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	branches := make([]model.Branch, 0, len(r.branchOrder))
	for _, name := range r.branchOrder {
		branches = append(branches, model.Branch{Name: name, SHA: r.branches[name], Repo: repo})
	}
	return branches, nil
}

// GetFile implements hosting.Client.
func (s *Server) GetFile(_ context.Context, repo model.RepoRef, ref, path string) (*model.FileContent, error) {
	r, err := s.begin("GetFile", repo)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sha, ok := r.resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%s@%s: %w", repo.Name, ref, hosting.ErrFileNotFound)
	}
	content, ok := r.trees[sha][path]
	if !ok {
		for p := range r.trees[sha] {
			if strings.HasPrefix(p, path+"/") {
				return nil, fmt.Errorf("%s: %w", path, hosting.ErrNotAFile)
			}
		}
		return nil, fmt.Errorf("%s: %w", path, hosting.ErrFileNotFound)
	}
	return &model.FileContent{
		Repo:    repo,
		Path:    path,
		Ref:     ref,
		Content: append([]byte(nil), content...),
		SHA:     BlobSHA(content),
	}, nil
}

// CompareRefs implements hosting.Client. Unconfigured comparisons of
// existing refs report zero commits ahead.
func (s *Server) CompareRefs(_ context.Context, repo model.RepoRef, base, head string) (*model.Comparison, error) {
	r, err := s.begin("CompareRefs", repo)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := r.resolve(base); !ok {
		return nil, fmt.Errorf("%s: %w", base, hosting.ErrRefNotFound)
	}
	if _, ok := r.resolve(head); !ok {
		return nil, fmt.Errorf("%s: %w", head, hosting.ErrRefNotFound)
	}
	cmp, ok := r.comparisons[base+"..."+head]
	if !ok {
		cmp = model.Comparison{Repo: repo, Base: base, Head: head, Status: "identical"}
	}
	return &cmp, nil
}

// GetRefSHA implements hosting.Client.
func (s *Server) GetRefSHA(_ context.Context, repo model.RepoRef, ref string) (string, error) {
	r, err := s.begin("GetRefSHA", repo)
	defer s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if sha, ok := r.branches[ref]; ok {
		return sha, nil
	}
	if sha, ok := r.tags[ref]; ok {
		return sha, nil
	}
	return "", fmt.Errorf("%s: %w", ref, hosting.ErrRefNotFound)
}

// CreateBranch implements hosting.Client.
func (s *Server) CreateBranch(_ context.Context, repo model.RepoRef, name, sha string) error {
	r, err := s.begin("CreateBranch", repo)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	s.calls = append(s.calls, fmt.Sprintf("CreateBranch %s %s", repo.Name, name))
	if _, ok := r.branches[name]; ok {
		return fmt.Errorf("branch %s: %w", name, hosting.ErrAlreadyExists)
	}
	if _, ok := r.trees[sha]; !ok {
		return &hosting.TransportError{Op: "CreateBranch", Repo: repo.FullName(), Err: fmt.Errorf("unknown sha %s", sha)}
	}
	r.setBranch(name, sha)
	return nil
}

// UpdateFile implements hosting.Client. A successful write creates a new
// commit on the branch.
func (s *Server) UpdateFile(_ context.Context, update *model.FileUpdate) error {
	r, err := s.begin("UpdateFile", update.Repo)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	s.calls = append(s.calls, fmt.Sprintf("UpdateFile %s %s %s", update.Repo.Name, update.Branch, update.Path))
	head, ok := r.branches[update.Branch]
	if !ok {
		return fmt.Errorf("%s: %w", update.Branch, hosting.ErrRefNotFound)
	}
	current, ok := r.trees[head][update.Path]
	if !ok || BlobSHA(current) != update.PriorSHA {
		return fmt.Errorf("%s: %w", update.Path, hosting.ErrConflictingHash)
	}

	sha := s.newSHA(r.name)
	tree := make(map[string][]byte, len(r.trees[head]))
	for p, c := range r.trees[head] {
		tree[p] = c
	}
	tree[update.Path] = append([]byte(nil), update.Content...)
	r.trees[sha] = tree
	r.branches[update.Branch] = sha
	return nil
}

// CreateRelease implements hosting.Client.
func (s *Server) CreateRelease(_ context.Context, req *model.ReleaseRequest) (*model.Release, error) {
	r, err := s.begin("CreateRelease", req.Repo)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.calls = append(s.calls, fmt.Sprintf("CreateRelease %s %s", req.Repo.Name, req.TagName))
	for _, rel := range r.releases {
		if rel.TagName == req.TagName {
			return nil, fmt.Errorf("release %s: %w", req.TagName, hosting.ErrAlreadyExists)
		}
	}
	if _, ok := r.tags[req.TagName]; !ok {
		sha, ok := r.resolve(req.TargetCommitish)
		if !ok {
			return nil, &hosting.TransportError{Op: "CreateRelease", Repo: req.Repo.FullName(), Err: fmt.Errorf("unknown target %s", req.TargetCommitish)}
		}
		r.tags[req.TagName] = sha
		r.tagOrder = append(r.tagOrder, req.TagName)
	}
	rel := model.Release{
		TagName:    req.TagName,
		Name:       req.Name,
		Body:       req.Body,
		Draft:      req.Draft,
		Prerelease: req.Prerelease,
		HTMLURL:    fmt.Sprintf("https://example.test/%s/%s/releases/tag/%s", s.owner, r.name, req.TagName),
		Repo:       req.Repo,
	}
	r.releases = append(r.releases, rel)
	return &rel, nil
}

// RepoNames returns the names of all repositories, sorted.
func (s *Server) RepoNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.repos))
	for name := range s.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlobSHA is the content hash the fake uses for optimistic writes.
func BlobSHA(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:10])
}
