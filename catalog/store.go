// Copyright (C) 2016-Present Pivotal Software, Inc. All rights reserved.
// This program and the accompanying materials are made available under the terms of the under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the specific language governing permissions and limitations under the License.

// Package catalog holds the broker's offerable services and plans and
// answers lookups by service and plan id. The catalog is replaced as a
// whole; a replacement that fails structural validation leaves the previous
// catalog untouched.
package catalog

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/cloudfoundry-community/mockbroker"
)

type Store struct {
	mutex    sync.RWMutex
	services []mockbroker.Service
}

func NewStore() *Store {
	return &Store{}
}

// Services returns the full catalog. The slice is a copy; callers cannot
// mutate the store through it.
func (s *Store) Services() []mockbroker.Service {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	services := make([]mockbroker.Service, len(s.services))
	copy(services, s.services)
	return services
}

func (s *Store) Service(serviceID string) (mockbroker.Service, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, service := range s.services {
		if service.ID == serviceID {
			return service, true
		}
	}
	return mockbroker.Service{}, false
}

// Plan resolves a (service, plan) pair. It reports false when either id does
// not resolve.
func (s *Store) Plan(serviceID, planID string) (mockbroker.ServicePlan, bool) {
	service, found := s.Service(serviceID)
	if !found {
		return mockbroker.ServicePlan{}, false
	}

	for _, plan := range service.Plans {
		if plan.ID == planID {
			return plan, true
		}
	}
	return mockbroker.ServicePlan{}, false
}

// Replace swaps the whole catalog atomically. Malformed input is rejected
// with a catalog format failure and the existing catalog stays in place.
// Plans carrying the legacy "async" name are normalized onto the
// asynchronous flag.
func (s *Store) Replace(services []mockbroker.Service) error {
	if err := validateServices(services); err != nil {
		return mockbroker.NewCatalogFormatError(err)
	}

	replacement := make([]mockbroker.Service, len(services))
	copy(replacement, services)
	for i := range replacement {
		plans := make([]mockbroker.ServicePlan, len(replacement[i].Plans))
		copy(plans, replacement[i].Plans)
		for j := range plans {
			if plans[j].Name == mockbroker.LegacyAsyncPlanName {
				plans[j].Asynchronous = true
			}
		}
		replacement[i].Plans = plans
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.services = replacement
	return nil
}

func validateServices(services []mockbroker.Service) error {
	seenServices := map[string]bool{}

	for _, service := range services {
		if service.ID == "" {
			return errors.New("catalog contains a service without an id")
		}
		if service.Name == "" {
			return errors.Errorf("service %s has no name", service.ID)
		}
		if seenServices[service.ID] {
			return errors.Errorf("duplicate service id %s", service.ID)
		}
		seenServices[service.ID] = true

		if len(service.Plans) == 0 {
			return errors.Errorf("service %s has no plans", service.ID)
		}

		seenPlans := map[string]bool{}
		for _, plan := range service.Plans {
			if plan.ID == "" {
				return errors.Errorf("service %s contains a plan without an id", service.ID)
			}
			if plan.Name == "" {
				return errors.Errorf("plan %s of service %s has no name", plan.ID, service.ID)
			}
			if seenPlans[plan.ID] {
				return errors.Errorf("duplicate plan id %s in service %s", plan.ID, service.ID)
			}
			seenPlans[plan.ID] = true
		}
	}
	return nil
}
