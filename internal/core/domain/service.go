package domain

// Mount binds a named volume into a service's filesystem.
type Mount struct {
	Volume   string `json:"volume"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"read_only"`
}

// ServiceSpec describes one service of a stack as it should be created.
// Networks maps a network name to the aliases the service answers to on it.
type ServiceSpec struct {
	Stack         string
	Name          string
	DeployID      string
	Image         string
	Env           []string
	Command       []string
	InternalPort  int
	PublishedPort int // 0 means the service is reachable only from its own networks
	Mounts        []Mount
	Networks      map[string][]string
	Restart       string
}

// Service represents a running (or exited) service container in the system.
type Service struct {
	ID        string `json:"id"`
	Stack     string `json:"stack"`
	DeployID  string `json:"deploy_id,omitempty"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Status    string `json:"status"`
	State     string `json:"state"` // running, exited, etc.
	IPAddress string `json:"ip_address,omitempty"`
}
