package domain

// DeployRequest asks for a full stack bring-up: build the app image from the
// given source and start database, application server and reverse proxy in
// dependency order.
type DeployRequest struct {
	Name      string `json:"name"`
	RepoURL   string `json:"repo_url,omitempty"`
	SourceDir string `json:"source_dir,omitempty"`
}

// StackInfo is the externally visible state of one deployed stack.
type StackInfo struct {
	Name     string    `json:"name"`
	DeployID string    `json:"deploy_id"`
	Image    string    `json:"image,omitempty"`
	Services []Service `json:"services"`
}
