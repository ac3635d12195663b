package mockbroker

type Service struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Bindable      bool                 `json:"bindable"`
	Tags          []string             `json:"tags,omitempty"`
	PlanUpdatable bool                 `json:"plan_updateable"`
	Requires      []RequiredPermission `json:"requires,omitempty"`
	Plans         []ServicePlan        `json:"plans"`
	Metadata      *ServiceMetadata     `json:"metadata,omitempty"`
}

// RequiredPermission is a platform capability a service declares it needs
// from the applications bound to it. The permission decides the shape of the
// payload returned on bind.
type RequiredPermission string

const (
	PermissionRouteForwarding = RequiredPermission("route_forwarding")
	PermissionSyslogDrain     = RequiredPermission("syslog_drain")
	PermissionVolumeMount     = RequiredPermission("volume_mount")
)

func (s Service) RequiresPermission(permission RequiredPermission) bool {
	for _, required := range s.Requires {
		if required == permission {
			return true
		}
	}
	return false
}

type ServicePlan struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Free        *bool                `json:"free,omitempty"`
	Metadata    *ServicePlanMetadata `json:"metadata,omitempty"`
	Schemas     *ServiceSchemas      `json:"schemas,omitempty"`

	// Asynchronous marks a plan whose provision and update operations
	// complete via last-operation polling instead of synchronously. Catalog
	// loading also sets it for plans carrying the legacy name "async".
	Asynchronous bool `json:"asynchronous,omitempty"`
}

// LegacyAsyncPlanName is the plan name older catalog documents use instead
// of the asynchronous flag.
const LegacyAsyncPlanName = "async"

// ServiceSchemas holds the optional parameter schemas of a plan, split by
// resource kind and operation. An absent schema means "no constraints".
type ServiceSchemas struct {
	Instance ServiceInstanceSchema `json:"service_instance,omitempty"`
	Binding  ServiceBindingSchema  `json:"service_binding,omitempty"`
}

type ServiceInstanceSchema struct {
	Create Schema `json:"create,omitempty"`
	Update Schema `json:"update,omitempty"`
}

type ServiceBindingSchema struct {
	Create Schema `json:"create,omitempty"`
}

type Schema struct {
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

type ServicePlanMetadata struct {
	DisplayName string   `json:"displayName,omitempty"`
	Bullets     []string `json:"bullets,omitempty"`
}

type ServiceMetadata struct {
	DisplayName         string `json:"displayName,omitempty"`
	ImageUrl            string `json:"imageUrl,omitempty"`
	LongDescription     string `json:"longDescription,omitempty"`
	ProviderDisplayName string `json:"providerDisplayName,omitempty"`
	DocumentationUrl    string `json:"documentationUrl,omitempty"`
	SupportUrl          string `json:"supportUrl,omitempty"`
}

func FreeValue(v bool) *bool {
	return &v
}
