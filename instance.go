package mockbroker

import "time"

// ServiceInstance is the registry's record of a provisioned instance. The
// instance id is caller supplied and unique across the registry; binding ids
// are unique only within their owning instance.
type ServiceInstance struct {
	ID               string                    `json:"id"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at,omitempty"`
	APIVersion       string                    `json:"api_version,omitempty"`
	ServiceID        string                    `json:"service_id"`
	PlanID           string                    `json:"plan_id"`
	OrganizationGUID string                    `json:"organization_guid,omitempty"`
	SpaceGUID        string                    `json:"space_guid,omitempty"`
	Parameters       map[string]interface{}    `json:"parameters,omitempty"`
	Context          map[string]interface{}    `json:"context,omitempty"`
	Bindings         map[string]ServiceBinding `json:"bindings,omitempty"`
}

type ServiceBinding struct {
	ID           string                 `json:"id"`
	APIVersion   string                 `json:"api_version,omitempty"`
	ServiceID    string                 `json:"service_id"`
	PlanID       string                 `json:"plan_id"`
	AppGUID      string                 `json:"app_guid,omitempty"`
	BindResource *BindResource          `json:"bind_resource,omitempty"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
}

type BindResource struct {
	AppGuid string `json:"app_guid,omitempty"`
	Route   string `json:"route,omitempty"`
}
