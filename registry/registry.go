// Copyright (C) 2016-Present Pivotal Software, Inc. All rights reserved.
// This program and the accompanying materials are made available under the terms of the under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the specific language governing permissions and limitations under the License.

// Package registry owns the in-memory service instance records and their
// nested bindings. All mutation goes through one coarse lock; instance
// create/update/delete on the same id do not commute and no finer locking is
// attempted.
package registry

import (
	"sync"
	"time"

	"github.com/cloudfoundry-community/mockbroker"
)

type Registry struct {
	mutex     sync.RWMutex
	instances map[string]*mockbroker.ServiceInstance
	now       func() time.Time
}

func New() *Registry {
	return &Registry{
		instances: map[string]*mockbroker.ServiceInstance{},
		now:       time.Now,
	}
}

// Create inserts a fresh record with no bindings. An id already present is a
// conflict; the existing record is left untouched.
func (r *Registry) Create(instance mockbroker.ServiceInstance) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.instances[instance.ID]; exists {
		return mockbroker.ErrInstanceAlreadyExists
	}

	instance.CreatedAt = r.now()
	instance.Bindings = map[string]mockbroker.ServiceBinding{}
	r.instances[instance.ID] = &instance
	return nil
}

func (r *Registry) Get(instanceID string) (mockbroker.ServiceInstance, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	instance, found := r.instances[instanceID]
	if !found {
		return mockbroker.ServiceInstance{}, false
	}
	return copyInstance(instance), true
}

// UpdateFields carries the field-level updates applied to an existing
// record. Zero values leave the corresponding field alone.
type UpdateFields struct {
	ServiceID  string
	PlanID     string
	APIVersion string
	Parameters map[string]interface{}
	Context    map[string]interface{}
}

func (r *Registry) Update(instanceID string, fields UpdateFields) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	instance, found := r.instances[instanceID]
	if !found {
		return mockbroker.ErrInstanceDoesNotExist
	}

	if fields.ServiceID != "" {
		instance.ServiceID = fields.ServiceID
	}
	if fields.PlanID != "" {
		instance.PlanID = fields.PlanID
	}
	if fields.APIVersion != "" {
		instance.APIVersion = fields.APIVersion
	}
	if fields.Parameters != nil {
		instance.Parameters = fields.Parameters
	}
	if fields.Context != nil {
		instance.Context = fields.Context
	}
	instance.UpdatedAt = r.now()
	return nil
}

// Delete removes the instance and all its bindings. Removing an absent id is
// a no-op, not an error.
func (r *Registry) Delete(instanceID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.instances, instanceID)
}

func (r *Registry) AddBinding(instanceID string, binding mockbroker.ServiceBinding) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	instance, found := r.instances[instanceID]
	if !found {
		return mockbroker.ErrInstanceDoesNotExist
	}

	if _, exists := instance.Bindings[binding.ID]; exists {
		return mockbroker.ErrBindingAlreadyExists
	}

	instance.Bindings[binding.ID] = binding
	return nil
}

func (r *Registry) Binding(instanceID, bindingID string) (mockbroker.ServiceBinding, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	instance, found := r.instances[instanceID]
	if !found {
		return mockbroker.ServiceBinding{}, false
	}
	binding, found := instance.Bindings[bindingID]
	return binding, found
}

// DeleteBinding swallows absence of the instance or the binding.
func (r *Registry) DeleteBinding(instanceID, bindingID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	instance, found := r.instances[instanceID]
	if !found {
		return
	}
	delete(instance.Bindings, bindingID)
}

func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.instances)
}

func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.instances = map[string]*mockbroker.ServiceInstance{}
}

func copyInstance(instance *mockbroker.ServiceInstance) mockbroker.ServiceInstance {
	duplicate := *instance
	duplicate.Bindings = make(map[string]mockbroker.ServiceBinding, len(instance.Bindings))
	for id, binding := range instance.Bindings {
		duplicate.Bindings[id] = binding
	}
	return duplicate
}
