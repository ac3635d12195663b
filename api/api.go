// Copyright (C) 2015-Present Pivotal Software, Inc. All rights reserved.

// This program and the accompanying materials are made available under
// the terms of the under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

// http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the broker over HTTP: the service broker endpoints
// under /v2, plus catalog replacement and the admin introspection surface.
package api

import (
	"net/http"

	"code.cloudfoundry.org/lager"
	"github.com/gorilla/mux"

	"github.com/cloudfoundry-community/mockbroker"
	"github.com/cloudfoundry-community/mockbroker/middlewares"
)

// New wires the routes for a broker. When the broker also implements
// mockbroker.Introspector, every /v2 call refreshes the last
// request/response snapshots and the /admin introspection routes are
// mounted.
func New(serviceBroker mockbroker.ServiceBroker, logger lager.Logger) http.Handler {
	router := mux.NewRouter()
	handler := &handler{serviceBroker: serviceBroker, logger: logger}

	v2 := router.PathPrefix("/v2").Subrouter()
	v2.Use(middlewares.APIVersionMiddleware{Logger: logger}.ValidateAPIVersionHdr)

	v2.HandleFunc("/catalog", handler.Catalog).Methods("GET")
	v2.HandleFunc("/catalog", handler.ReplaceCatalog).Methods("POST")

	v2.HandleFunc("/service_instances/{instance_id}", handler.Provision).Methods("PUT")
	v2.HandleFunc("/service_instances/{instance_id}", handler.Update).Methods("PATCH")
	v2.HandleFunc("/service_instances/{instance_id}", handler.Deprovision).Methods("DELETE")
	v2.HandleFunc("/service_instances/{instance_id}/last_operation", handler.LastOperation).Methods("GET")

	v2.HandleFunc("/service_instances/{instance_id}/service_bindings/{binding_id}", handler.Bind).Methods("PUT")
	v2.HandleFunc("/service_instances/{instance_id}/service_bindings/{binding_id}", handler.Unbind).Methods("DELETE")

	admin := router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/reset", handler.Reset).Methods("POST")

	if introspector, ok := serviceBroker.(mockbroker.Introspector); ok {
		handler.introspector = introspector
		v2.Use(recordSnapshots(introspector))

		admin.HandleFunc("/last_request", handler.LastRequest).Methods("GET")
		admin.HandleFunc("/last_response", handler.LastResponse).Methods("GET")
	}

	return router
}
