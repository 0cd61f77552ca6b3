package models

// Entity kinds as they appear in GraphNode.Kind.
const (
	KindComputePool = "computePool"
	KindService     = "service"
	KindNotebook    = "notebook"
	KindEAI         = "eai"
)

// ComputePool is a named, bounded set of compute nodes that can host services.
// Identity is the pool name (case-sensitive, as returned by the warehouse).
type ComputePool struct {
	Name            string `json:"name"`
	State           string `json:"state"` // ACTIVE, RUNNING, SUSPENDED, ...
	MinNodes        int    `json:"minNodes"`
	MaxNodes        int    `json:"maxNodes"`
	InstanceFamily  string `json:"instanceFamily"`
	Owner           string `json:"owner"`
	AutoResume      bool   `json:"autoResume"`
	AutoSuspendSecs int    `json:"autoSuspendSecs,omitempty"`
	CreatedOn       string `json:"createdOn,omitempty"`
}

// Service is a long-running containerized workload assigned to a compute pool.
// Identity is the fully qualified name database.schema.name.
type Service struct {
	Name             string   `json:"name"`
	DatabaseName     string   `json:"databaseName"`
	SchemaName       string   `json:"schemaName"`
	Owner            string   `json:"owner"`
	ComputePool      string   `json:"computePool"` // empty when unresolved
	DNSName          string   `json:"dnsName,omitempty"`
	Status           string   `json:"status"` // RUNNING, SUSPENDED, PENDING, ...
	CurrentInstances int      `json:"currentInstances"`
	TargetInstances  int      `json:"targetInstances"`
	MinInstances     int      `json:"minInstances"`
	MaxInstances     int      `json:"maxInstances"`
	Integrations     []string `json:"externalAccessIntegrations"`
}

// FQN returns the fully qualified service name (database.schema.name).
func (s Service) FQN() string {
	return s.DatabaseName + "." + s.SchemaName + "." + s.Name
}

// Notebook is an interactive workload. Identity is the fully qualified name.
type Notebook struct {
	Name            string `json:"name"`
	DatabaseName    string `json:"databaseName"`
	SchemaName      string `json:"schemaName"`
	Owner           string `json:"owner"`
	Comment         string `json:"comment,omitempty"`
	QueryWarehouse  string `json:"queryWarehouse,omitempty"`
	IdleTimeoutSecs int    `json:"idleTimeoutSecs,omitempty"`
	CreatedOn       string `json:"createdOn,omitempty"`
}

// FQN returns the fully qualified notebook name.
func (n Notebook) FQN() string {
	return n.DatabaseName + "." + n.SchemaName + "." + n.Name
}

// ExternalAccessIntegration is a named outbound-network permission object a
// service may use. Identity is the integration name.
type ExternalAccessIntegration struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Category  string `json:"category,omitempty"`
	Enabled   bool   `json:"enabled"`
	Comment   string `json:"comment,omitempty"`
	CreatedOn string `json:"createdOn,omitempty"`
}
