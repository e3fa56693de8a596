package model

// FileContent is a file read from a repository at a given ref.
type FileContent struct {
	Repo    RepoRef `json:"repo"`
	Path    string  `json:"path"`
	Ref     string  `json:"ref"`
	Content []byte  `json:"-"`

	// SHA is the blob hash used for optimistic-concurrency writes.
	SHA string `json:"sha"`
}

// FileUpdate describes a write of a file onto a branch. PriorSHA must match
// the blob currently on the branch or the write is rejected.
type FileUpdate struct {
	Repo     RepoRef `json:"repo"`
	Path     string  `json:"path"`
	Branch   string  `json:"branch"`
	Message  string  `json:"message"`
	Content  []byte  `json:"-"`
	PriorSHA string  `json:"priorSha"`
}

// FileChange is one file entry of a ref comparison.
type FileChange struct {
	Status    string `json:"status"`
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Comparison is the result of comparing a base ref against a head ref.
type Comparison struct {
	Repo           RepoRef      `json:"repo"`
	Base           string       `json:"base"`
	Head           string       `json:"head"`
	Status         string       `json:"status,omitempty"`
	AheadBy        int          `json:"aheadBy"`
	BehindBy       int          `json:"behindBy"`
	Files          []FileChange `json:"files,omitempty"`
	CommitMessages []string     `json:"commitMessages,omitempty"`
}
