// Copyright (C) 2016-Present Pivotal Software, Inc. All rights reserved.
// This program and the accompanying materials are made available under the terms of the under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the specific language governing permissions and limitations under the License.

// Package broker sequences the service lifecycle: request validation,
// catalog lookup, schema checks, registry mutation and, for asynchronous
// plans, operation scheduling. Failures are terminal for the call and mutate
// nothing; all retry behaviour is caller-driven polling.
package broker

import (
	"fmt"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/pborman/uuid"

	"github.com/cloudfoundry-community/mockbroker"
	"github.com/cloudfoundry-community/mockbroker/catalog"
	"github.com/cloudfoundry-community/mockbroker/operations"
	"github.com/cloudfoundry-community/mockbroker/registry"
	"github.com/cloudfoundry-community/mockbroker/schema"
)

const (
	provisionLogKey      = "provision"
	updateLogKey         = "update"
	deprovisionLogKey    = "deprovision"
	bindLogKey           = "bind"
	unbindLogKey         = "unbind"
	lastOperationLogKey  = "lastOperation"
	replaceCatalogLogKey = "replaceCatalog"

	instanceIDLogKey = "instance-id"
	bindingIDLogKey  = "binding-id"
	serviceIDLogKey  = "service-id"
	planIDLogKey     = "plan-id"
)

type Config struct {
	// DefaultDelay is the simulated completion delay for asynchronous
	// operations whose request carries no numeric "delay" parameter.
	DefaultDelay time.Duration

	// BaseURL prefixes the generated dashboard and metrics URLs.
	BaseURL string
}

type Broker struct {
	catalog  *catalog.Store
	registry *registry.Registry
	tracker  *operations.Tracker
	logger   lager.Logger
	config   Config

	introspection introspection
}

func New(store *catalog.Store, instances *registry.Registry, tracker *operations.Tracker, logger lager.Logger, config Config) *Broker {
	if config.DefaultDelay <= 0 {
		config.DefaultDelay = time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}

	return &Broker{
		catalog:  store,
		registry: instances,
		tracker:  tracker,
		logger:   logger,
		config:   config,
	}
}

func (b *Broker) Services() []mockbroker.Service {
	return b.catalog.Services()
}

func (b *Broker) Provision(instanceID string, details mockbroker.ProvisionDetails) (mockbroker.ProvisionedServiceSpec, error) {
	logger := b.logger.Session(provisionLogKey, lager.Data{instanceIDLogKey: instanceID})

	plan, err := b.resolvePlan(details.ServiceID, details.PlanID)
	if err != nil {
		return mockbroker.ProvisionedServiceSpec{}, err
	}

	if err := validateParameters(plan, instanceCreateSchema, details.Parameters); err != nil {
		return mockbroker.ProvisionedServiceSpec{}, err
	}

	instance := mockbroker.ServiceInstance{
		ID:               instanceID,
		APIVersion:       details.APIVersion,
		ServiceID:        details.ServiceID,
		PlanID:           details.PlanID,
		OrganizationGUID: details.OrganizationGUID,
		SpaceGUID:        details.SpaceGUID,
		Parameters:       details.Parameters,
		Context:          details.Context,
	}
	if err := b.registry.Create(instance); err != nil {
		return mockbroker.ProvisionedServiceSpec{}, err
	}

	if plan.Asynchronous {
		delay := asyncDelay(details.Parameters, b.config.DefaultDelay)
		b.tracker.Schedule(instanceID, operations.ClassProvision, delay)
		logger.Info("accepted", lager.Data{"delay": delay.String()})

		return mockbroker.ProvisionedServiceSpec{
			IsAsync:      true,
			DashboardURL: fmt.Sprintf("%s/dashboard/%s", b.config.BaseURL, instanceID),
		}, nil
	}

	logger.Info("provisioned")
	return mockbroker.ProvisionedServiceSpec{
		MetricsURL: fmt.Sprintf("%s/metrics/%s", b.config.BaseURL, uuid.New()),
	}, nil
}

func (b *Broker) Update(instanceID string, details mockbroker.UpdateDetails) (mockbroker.UpdateServiceSpec, error) {
	logger := b.logger.Session(updateLogKey, lager.Data{instanceIDLogKey: instanceID})

	if _, found := b.registry.Get(instanceID); !found {
		return mockbroker.UpdateServiceSpec{}, mockbroker.ErrInstanceDoesNotExist
	}

	if b.tracker.Pending(instanceID, operations.ClassProvision) {
		return mockbroker.UpdateServiceSpec{}, mockbroker.ErrOperationInProgress
	}

	plan, err := b.resolvePlan(details.ServiceID, details.PlanID)
	if err != nil {
		return mockbroker.UpdateServiceSpec{}, err
	}

	if err := validateParameters(plan, instanceUpdateSchema, details.Parameters); err != nil {
		return mockbroker.UpdateServiceSpec{}, err
	}

	err = b.registry.Update(instanceID, registry.UpdateFields{
		ServiceID:  details.ServiceID,
		PlanID:     details.PlanID,
		APIVersion: details.APIVersion,
		Parameters: details.Parameters,
		Context:    details.Context,
	})
	if err != nil {
		return mockbroker.UpdateServiceSpec{}, err
	}

	if plan.Asynchronous {
		delay := asyncDelay(details.Parameters, b.config.DefaultDelay)
		b.tracker.Schedule(instanceID, operations.ClassUpdate, delay)
		logger.Info("accepted", lager.Data{"delay": delay.String()})
		return mockbroker.UpdateServiceSpec{IsAsync: true}, nil
	}

	logger.Info("updated")
	return mockbroker.UpdateServiceSpec{}, nil
}

// Deprovision requires the service and plan ids on the request for
// auditing, but a failed catalog lookup only logs: cleanup stays available
// when the catalog drifted after a restart.
func (b *Broker) Deprovision(instanceID string, details mockbroker.DeprovisionDetails) error {
	logger := b.logger.Session(deprovisionLogKey, lager.Data{instanceIDLogKey: instanceID})

	if details.ServiceID == "" {
		return mockbroker.ErrServiceIDMissing
	}
	if details.PlanID == "" {
		return mockbroker.ErrPlanIDMissing
	}

	if _, found := b.catalog.Plan(details.ServiceID, details.PlanID); !found {
		logger.Info("catalog-drift", lager.Data{
			serviceIDLogKey: details.ServiceID,
			planIDLogKey:    details.PlanID,
		})
	}

	b.tracker.Forget(instanceID)
	b.registry.Delete(instanceID)
	logger.Info("deprovisioned")
	return nil
}

func (b *Broker) Bind(instanceID, bindingID string, details mockbroker.BindDetails) (mockbroker.Binding, error) {
	logger := b.logger.Session(bindLogKey, lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
	})

	if _, found := b.registry.Get(instanceID); !found {
		return mockbroker.Binding{}, mockbroker.ErrInstanceDoesNotExist
	}

	plan, err := b.resolvePlan(details.ServiceID, details.PlanID)
	if err != nil {
		return mockbroker.Binding{}, err
	}
	service, _ := b.catalog.Service(details.ServiceID)

	if err := validateParameters(plan, bindingCreateSchema, details.Parameters); err != nil {
		return mockbroker.Binding{}, err
	}

	binding := mockbroker.ServiceBinding{
		ID:           bindingID,
		APIVersion:   details.APIVersion,
		ServiceID:    details.ServiceID,
		PlanID:       details.PlanID,
		AppGUID:      details.AppGUID,
		BindResource: details.BindResource,
		Parameters:   details.Parameters,
	}
	if err := b.registry.AddBinding(instanceID, binding); err != nil {
		return mockbroker.Binding{}, err
	}

	logger.Info("bound")
	return b.bindingPayload(service, instanceID, bindingID), nil
}

// bindingPayload synthesizes the bind response by the service's required
// permissions, first match wins: a syslog drain URL, then a volume mount
// descriptor, then opaque credentials.
func (b *Broker) bindingPayload(service mockbroker.Service, instanceID, bindingID string) mockbroker.Binding {
	switch {
	case service.RequiresPermission(mockbroker.PermissionSyslogDrain):
		return mockbroker.Binding{
			SyslogDrainURL: fmt.Sprintf("syslog://%s.drain.example.com:514", instanceID),
		}

	case service.RequiresPermission(mockbroker.PermissionVolumeMount):
		return mockbroker.Binding{
			VolumeMounts: []mockbroker.VolumeMount{{
				Driver:       "mockdriver",
				ContainerDir: "/var/vcap/data/" + bindingID,
				Mode:         "rw",
				DeviceType:   "shared",
				Device: mockbroker.SharedDevice{
					VolumeId: uuid.New(),
				},
			}},
		}

	default:
		return mockbroker.Binding{
			Credentials: mockbroker.BasicCredentials{
				Username: uuid.New(),
				Password: uuid.New(),
			},
		}
	}
}

func (b *Broker) Unbind(instanceID, bindingID string, details mockbroker.UnbindDetails) error {
	logger := b.logger.Session(unbindLogKey, lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
	})

	if details.ServiceID == "" {
		return mockbroker.ErrServiceIDMissing
	}
	if details.PlanID == "" {
		return mockbroker.ErrPlanIDMissing
	}

	b.registry.DeleteBinding(instanceID, bindingID)
	logger.Info("unbound")
	return nil
}

func (b *Broker) LastOperation(instanceID string) (mockbroker.LastOperation, error) {
	operation := b.tracker.Poll(instanceID)
	b.logger.Session(lastOperationLogKey, lager.Data{instanceIDLogKey: instanceID}).
		Info("polled", lager.Data{"state": operation.State})
	return operation, nil
}

func (b *Broker) ReplaceCatalog(services []mockbroker.Service) error {
	logger := b.logger.Session(replaceCatalogLogKey)

	if err := b.catalog.Replace(services); err != nil {
		return err
	}
	logger.Info("replaced", lager.Data{"services": len(services)})
	return nil
}

// Reset clears all instances, pending operations and diagnostic snapshots.
// The catalog survives a reset.
func (b *Broker) Reset() {
	b.registry.Reset()
	b.tracker.Reset()
	b.introspection.reset()
	b.logger.Info("reset")
}

func (b *Broker) resolvePlan(serviceID, planID string) (mockbroker.ServicePlan, error) {
	if serviceID == "" {
		return mockbroker.ServicePlan{}, mockbroker.ErrServiceIDMissing
	}
	if planID == "" {
		return mockbroker.ServicePlan{}, mockbroker.ErrPlanIDMissing
	}

	if _, found := b.catalog.Service(serviceID); !found {
		return mockbroker.ServicePlan{}, mockbroker.ErrServiceNotInCatalog
	}

	plan, found := b.catalog.Plan(serviceID, planID)
	if !found {
		return mockbroker.ServicePlan{}, mockbroker.ErrPlanNotInCatalog
	}
	return plan, nil
}

type schemaSelector func(*mockbroker.ServiceSchemas) map[string]interface{}

func instanceCreateSchema(s *mockbroker.ServiceSchemas) map[string]interface{} {
	return s.Instance.Create.Parameters
}

func instanceUpdateSchema(s *mockbroker.ServiceSchemas) map[string]interface{} {
	return s.Instance.Update.Parameters
}

func bindingCreateSchema(s *mockbroker.ServiceSchemas) map[string]interface{} {
	return s.Binding.Create.Parameters
}

func validateParameters(plan mockbroker.ServicePlan, selector schemaSelector, params map[string]interface{}) error {
	if plan.Schemas == nil {
		return nil
	}

	violations := schema.Validate(selector(plan.Schemas), params)
	if len(violations) == 0 {
		return nil
	}
	return mockbroker.NewParameterValidationError(schema.Descriptions(violations))
}

// asyncDelay reads the simulated completion delay from a numeric "delay"
// parameter, in seconds. Absent or non-numeric values fall back to the
// configured default.
func asyncDelay(params map[string]interface{}, fallback time.Duration) time.Duration {
	raw, present := params["delay"]
	if !present {
		return fallback
	}

	seconds, numeric := raw.(float64)
	if !numeric || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
