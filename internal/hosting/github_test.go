package hosting

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokify/releasetrain/pkg/model"
)

var lib = model.RepoRef{Owner: "acme", Name: "lib"}

// mockGitHubServer routes "METHOD /path" to handlers and answers 404 for
// everything else, like the API does for unknown refs and files.
func mockGitHubServer(t *testing.T, handlers map[string]http.HandlerFunc) *GitHubClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		t.Logf("No handler for %s %s", r.Method, r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}))
	t.Cleanup(srv.Close)

	c, err := NewGitHubWithConfig(GitHubConfig{
		BaseURL:        srv.URL,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, v)
	}
}

func TestGitHubClient_ListRefs(t *testing.T) {
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"GET /repos/acme/lib/tags": respond(http.StatusOK, []map[string]any{
			{"name": "1.0.0", "commit": map[string]string{"sha": "t1"}},
			{"name": "1.1.0", "commit": map[string]string{"sha": "t2"}},
		}),
		"GET /repos/acme/lib/releases": respond(http.StatusOK, []map[string]any{
			{"id": 1, "tag_name": "1.1.0", "name": "1.1.0"},
			{"id": 2, "tag_name": "1.2.0", "name": "1.2.0", "draft": true},
		}),
		"GET /repos/acme/lib/branches": respond(http.StatusOK, []map[string]any{
			{"name": "master", "commit": map[string]string{"sha": "m1"}},
		}),
	})
	ctx := context.Background()

	tags, err := c.ListTags(ctx, lib)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "1.1.0", tags[1].Name)
	assert.Equal(t, "t2", tags[1].SHA)

	releases, err := c.ListReleases(ctx, lib)
	require.NoError(t, err)
	require.Len(t, releases, 1, "drafts are skipped")
	assert.Equal(t, "1.1.0", releases[0].TagName)

	branches, err := c.ListBranches(ctx, lib)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "master", branches[0].Name)
}

func TestGitHubClient_GetFile(t *testing.T) {
	content := `{"name": "acme/lib"}`
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"GET /repos/acme/lib/contents/composer.json": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1.5.x", r.URL.Query().Get("ref"))
			writeJSON(w, http.StatusOK, map[string]any{
				"type":     "file",
				"encoding": "base64",
				"path":     "composer.json",
				"sha":      "blob1",
				"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			})
		},
		"GET /repos/acme/lib/contents/src": respond(http.StatusOK, []map[string]any{
			{"type": "file", "name": "Lib.php", "path": "src/Lib.php"},
		}),
	})
	ctx := context.Background()

	file, err := c.GetFile(ctx, lib, "1.5.x", "composer.json")
	require.NoError(t, err)
	assert.Equal(t, content, string(file.Content))
	assert.Equal(t, "blob1", file.SHA)
	assert.Equal(t, "1.5.x", file.Ref)

	_, err = c.GetFile(ctx, lib, "master", "missing.json")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = c.GetFile(ctx, lib, "master", "src")
	assert.ErrorIs(t, err, ErrNotAFile)
}

func TestGitHubClient_CompareRefs(t *testing.T) {
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"GET /repos/acme/lib/compare/1.4.0...master": respond(http.StatusOK, map[string]any{
			"status":    "ahead",
			"ahead_by":  2,
			"behind_by": 0,
			"files": []map[string]any{
				{"filename": "src/Lib.php", "status": "modified", "additions": 5, "deletions": 2},
			},
			"commits": []map[string]any{
				{"commit": map[string]string{"message": "Fix parser\n\nLong description"}},
				{"commit": map[string]string{"message": "Add test"}},
			},
		}),
	})

	cmp, err := c.CompareRefs(context.Background(), lib, "1.4.0", "master")
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.AheadBy)
	assert.Equal(t, []string{"Fix parser", "Add test"}, cmp.CommitMessages)
	require.Len(t, cmp.Files, 1)
	assert.Equal(t, model.FileChange{Status: "modified", Filename: "src/Lib.php", Additions: 5, Deletions: 2}, cmp.Files[0])

	_, err = c.CompareRefs(context.Background(), lib, "9.9.9", "master")
	assert.ErrorIs(t, err, ErrRefNotFound)
}

func TestGitHubClient_GetRefSHA(t *testing.T) {
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"GET /repos/acme/lib/git/ref/heads/master": respond(http.StatusOK, map[string]any{
			"ref":    "refs/heads/master",
			"object": map[string]string{"type": "commit", "sha": "c1"},
		}),
		"GET /repos/acme/lib/git/ref/tags/1.4.0": respond(http.StatusOK, map[string]any{
			"ref":    "refs/tags/1.4.0",
			"object": map[string]string{"type": "tag", "sha": "tagobj"},
		}),
		"GET /repos/acme/lib/git/tags/tagobj": respond(http.StatusOK, map[string]any{
			"sha":    "tagobj",
			"object": map[string]string{"type": "commit", "sha": "c0"},
		}),
	})
	ctx := context.Background()

	sha, err := c.GetRefSHA(ctx, lib, "master")
	require.NoError(t, err)
	assert.Equal(t, "c1", sha)

	sha, err = c.GetRefSHA(ctx, lib, "1.4.0")
	require.NoError(t, err)
	assert.Equal(t, "c0", sha, "annotated tags resolve to their commit")

	_, err = c.GetRefSHA(ctx, lib, "1.5.x")
	assert.ErrorIs(t, err, ErrRefNotFound)
}

func TestGitHubClient_CreateBranch(t *testing.T) {
	var body github.CreateRef
	exists := false
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"POST /repos/acme/lib/git/refs": func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &body)
			if exists {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference already exists"})
				return
			}
			exists = true
			writeJSON(w, http.StatusCreated, map[string]any{"ref": body.Ref, "object": map[string]string{"sha": body.SHA}})
		},
	})
	ctx := context.Background()

	require.NoError(t, c.CreateBranch(ctx, lib, "1.5.x", "c1"))
	assert.Equal(t, github.CreateRef{Ref: "refs/heads/1.5.x", SHA: "c1"}, body)

	assert.ErrorIs(t, c.CreateBranch(ctx, lib, "1.5.x", "c1"), ErrAlreadyExists)
}

func TestGitHubClient_UpdateFile(t *testing.T) {
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"PUT /repos/acme/lib/contents/composer.json": func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Message string `json:"message"`
				Content string `json:"content"`
				SHA     string `json:"sha"`
				Branch  string `json:"branch"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "1.5.x", req.Branch)
			if req.SHA != "blob1" {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "composer.json does not match blob1"})
				return
			}
			decoded, _ := base64.StdEncoding.DecodeString(req.Content)
			assert.Equal(t, `{"name":"acme/lib"}`, string(decoded))
			writeJSON(w, http.StatusOK, map[string]any{"content": map[string]string{"sha": "blob2"}})
		},
	})
	ctx := context.Background()

	update := &model.FileUpdate{
		Repo:     lib,
		Path:     "composer.json",
		Branch:   "1.5.x",
		Message:  "Releaser changed composer.json dependencies",
		Content:  []byte(`{"name":"acme/lib"}`),
		PriorSHA: "blob1",
	}
	require.NoError(t, c.UpdateFile(ctx, update))

	update.PriorSHA = "stale"
	assert.ErrorIs(t, c.UpdateFile(ctx, update), ErrConflictingHash)
}

func TestGitHubClient_CreateRelease(t *testing.T) {
	published := map[string]bool{}
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"POST /repos/acme/lib/releases": func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			tag, _ := req["tag_name"].(string)
			assert.Equal(t, "1.5.x", req["target_commitish"])
			assert.Equal(t, false, req["draft"])
			if published[tag] {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"message": "Validation Failed",
					"errors":  []map[string]string{{"resource": "Release", "code": "already_exists", "field": "tag_name"}},
				})
				return
			}
			published[tag] = true
			writeJSON(w, http.StatusCreated, map[string]any{
				"id":       7,
				"tag_name": tag,
				"name":     req["name"],
				"html_url": "https://github.com/acme/lib/releases/tag/" + tag,
			})
		},
	})
	ctx := context.Background()

	req := &model.ReleaseRequest{Repo: lib, TagName: "1.5.0", TargetCommitish: "1.5.x", Name: "1.5.0", Body: "notes"}
	rel, err := c.CreateRelease(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/lib/releases/tag/1.5.0", rel.HTMLURL)
	assert.Equal(t, lib, rel.Repo)

	_, err = c.CreateRelease(ctx, req)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGitHubClient_TransportError(t *testing.T) {
	c := mockGitHubServer(t, map[string]http.HandlerFunc{
		"GET /repos/acme/lib/tags": respond(http.StatusInternalServerError, map[string]string{"message": "boom"}),
	})

	_, err := c.ListTags(context.Background(), lib)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "list tags", te.Op)
	assert.Equal(t, "acme/lib", te.Repo)
}
