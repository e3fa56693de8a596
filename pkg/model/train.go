package model

// TrainConfig describes one release train run.
type TrainConfig struct {
	Owner       string   `json:"owner" yaml:"owner"`
	Package     string   `json:"package" yaml:"package"`
	Allow       []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Deny        []string `json:"deny,omitempty" yaml:"deny,omitempty"`
	ReleaseType string   `json:"type" yaml:"type"`
	SourceRef   string   `json:"sourceRef" yaml:"source_ref"`
	Mode        string   `json:"mode" yaml:"mode"`
}
