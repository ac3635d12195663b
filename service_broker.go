package mockbroker

// ServiceBroker is the lifecycle surface the API layer dispatches to. All
// operations are synchronous from the caller's point of view; plans flagged
// asynchronous report acceptance immediately and complete via LastOperation
// polling.
type ServiceBroker interface {
	Services() []Service

	Provision(instanceID string, details ProvisionDetails) (ProvisionedServiceSpec, error)
	Update(instanceID string, details UpdateDetails) (UpdateServiceSpec, error)
	Deprovision(instanceID string, details DeprovisionDetails) error

	Bind(instanceID, bindingID string, details BindDetails) (Binding, error)
	Unbind(instanceID, bindingID string, details UnbindDetails) error

	LastOperation(instanceID string) (LastOperation, error)

	ReplaceCatalog(services []Service) error
	Reset()
}

// Introspector is the optional diagnostic surface a broker may expose. The
// snapshots reflect the most recently handled request/response pair and have
// no correctness impact.
type Introspector interface {
	RecordRequest(RequestSnapshot)
	RecordResponse(ResponseSnapshot)
	LastRequest() *RequestSnapshot
	LastResponse() *ResponseSnapshot
}

type ProvisionDetails struct {
	ServiceID        string                 `json:"service_id"`
	PlanID           string                 `json:"plan_id"`
	OrganizationGUID string                 `json:"organization_guid"`
	SpaceGUID        string                 `json:"space_guid"`
	Context          map[string]interface{} `json:"context,omitempty"`
	Parameters       map[string]interface{} `json:"parameters,omitempty"`
	APIVersion       string                 `json:"-"`
}

type UpdateDetails struct {
	ServiceID  string                 `json:"service_id"`
	PlanID     string                 `json:"plan_id"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	APIVersion string                 `json:"-"`
}

type DeprovisionDetails struct {
	ServiceID string `json:"service_id"`
	PlanID    string `json:"plan_id"`
}

type BindDetails struct {
	ServiceID    string                 `json:"service_id"`
	PlanID       string                 `json:"plan_id"`
	AppGUID      string                 `json:"app_guid,omitempty"`
	BindResource *BindResource          `json:"bind_resource,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	APIVersion   string                 `json:"-"`
}

type UnbindDetails struct {
	ServiceID string `json:"service_id"`
	PlanID    string `json:"plan_id"`
}

type ProvisionedServiceSpec struct {
	IsAsync      bool
	DashboardURL string
	MetricsURL   string
}

type UpdateServiceSpec struct {
	IsAsync bool
}

// Binding is the payload returned on bind. Exactly one of the three branches
// is populated, decided by the service's required permissions.
type Binding struct {
	Credentials    interface{}   `json:"credentials,omitempty"`
	SyslogDrainURL string        `json:"syslog_drain_url,omitempty"`
	VolumeMounts   []VolumeMount `json:"volume_mounts,omitempty"`
}

type BasicCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VolumeMount struct {
	Driver       string       `json:"driver"`
	ContainerDir string       `json:"container_dir"`
	Mode         string       `json:"mode"`
	DeviceType   string       `json:"device_type"`
	Device       SharedDevice `json:"device"`
}

type SharedDevice struct {
	VolumeId    string                 `json:"volume_id"`
	MountConfig map[string]interface{} `json:"mount_config,omitempty"`
}

type LastOperationState string

const (
	InProgress LastOperationState = "in progress"
	Succeeded  LastOperationState = "succeeded"
	Failed     LastOperationState = "failed"
)

type LastOperation struct {
	State       LastOperationState `json:"state"`
	Description string             `json:"description,omitempty"`
}
