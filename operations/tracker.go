// Copyright (C) 2016-Present Pivotal Software, Inc. All rights reserved.
// This program and the accompanying materials are made available under the terms of the under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the specific language governing permissions and limitations under the License.

// Package operations tracks simulated asynchronous provision and update
// operations. Nothing runs in the background: an operation is a scheduled
// completion time compared against the clock at poll time, and a poll that
// observes the time as elapsed retires the entry.
package operations

import (
	"fmt"
	"sync"
	"time"

	"github.com/cloudfoundry-community/mockbroker"
)

type Class string

const (
	ClassProvision = Class("provision")
	ClassUpdate    = Class("update")
)

var classes = []Class{ClassProvision, ClassUpdate}

type Tracker struct {
	mutex   sync.Mutex
	pending map[Class]map[string]time.Time
	now     func() time.Time
}

func New() *Tracker {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests drive the poll comparisons with their own clock.
func NewWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		pending: map[Class]map[string]time.Time{
			ClassProvision: {},
			ClassUpdate:    {},
		},
		now: now,
	}
}

// Schedule records a pending operation completing delay from now. At most
// one operation per instance per class; scheduling again moves the
// completion time.
func (t *Tracker) Schedule(instanceID string, class Class, delay time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.pending[class][instanceID] = t.now().Add(delay)
}

func (t *Tracker) Pending(instanceID string, class Class) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	_, pending := t.pending[class][instanceID]
	return pending
}

// Poll answers the last-operation query for an instance. No tracked entry
// means the operation already completed (or was never asynchronous), which
// keeps polling tolerant of restarts that lose this state. An elapsed entry
// is retired under both classes as a side effect.
func (t *Tracker) Poll(instanceID string) mockbroker.LastOperation {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, class := range classes {
		completion, tracked := t.pending[class][instanceID]
		if !tracked {
			continue
		}

		if t.now().Before(completion) {
			return mockbroker.LastOperation{
				State:       mockbroker.InProgress,
				Description: fmt.Sprintf("%s in progress", class),
			}
		}

		for _, retire := range classes {
			delete(t.pending[retire], instanceID)
		}
		return mockbroker.LastOperation{
			State:       mockbroker.Succeeded,
			Description: fmt.Sprintf("%s completed", class),
		}
	}

	return mockbroker.LastOperation{State: mockbroker.Succeeded}
}

// Forget drops any tracked operations for an instance. Called when the
// owning instance is deleted.
func (t *Tracker) Forget(instanceID string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, class := range classes {
		delete(t.pending[class], instanceID)
	}
}

func (t *Tracker) Reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, class := range classes {
		t.pending[class] = map[string]time.Time{}
	}
}
