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

package api

import (
	"encoding/json"
	"net/http"

	"code.cloudfoundry.org/lager"
	"github.com/gorilla/mux"

	"github.com/cloudfoundry-community/mockbroker"
	"github.com/cloudfoundry-community/mockbroker/middlewares"
)

const (
	provisionLogKey     = "provision"
	updateLogKey        = "update"
	deprovisionLogKey   = "deprovision"
	bindLogKey          = "bind"
	unbindLogKey        = "unbind"
	lastOperationLogKey = "lastOperation"
	catalogLogKey       = "catalog"

	instanceIDLogKey = "instance-id"
	bindingIDLogKey  = "binding-id"

	invalidServiceDetailsErrorKey = "invalid-service-details"
	invalidBindDetailsErrorKey    = "invalid-bind-details"
	invalidCatalogErrorKey        = "invalid-catalog"
	unknownErrorKey               = "unknown-error"
)

type handler struct {
	serviceBroker mockbroker.ServiceBroker
	introspector  mockbroker.Introspector
	logger        lager.Logger
}

func (h *handler) Catalog(w http.ResponseWriter, req *http.Request) {
	h.respond(w, http.StatusOK, mockbroker.CatalogResponse{
		Services: h.serviceBroker.Services(),
	})
}

func (h *handler) ReplaceCatalog(w http.ResponseWriter, req *http.Request) {
	logger := h.logger.Session(catalogLogKey)

	var catalog mockbroker.CatalogResponse
	if err := json.NewDecoder(req.Body).Decode(&catalog); err != nil {
		logger.Error(invalidCatalogErrorKey, err)
		h.respond(w, http.StatusUnprocessableEntity, mockbroker.ErrorResponse{
			Description: err.Error(),
		})
		return
	}

	if err := h.serviceBroker.ReplaceCatalog(catalog.Services); err != nil {
		h.respondError(w, logger, err)
		return
	}

	h.respond(w, http.StatusOK, mockbroker.EmptyResponse{})
}

func (h *handler) Provision(w http.ResponseWriter, req *http.Request) {
	instanceID := mux.Vars(req)["instance_id"]

	logger := h.logger.Session(provisionLogKey, lager.Data{
		instanceIDLogKey: instanceID,
	})

	var details mockbroker.ProvisionDetails
	if err := json.NewDecoder(req.Body).Decode(&details); err != nil {
		logger.Error(invalidServiceDetailsErrorKey, err)
		h.respond(w, http.StatusUnprocessableEntity, mockbroker.ErrorResponse{
			Description: err.Error(),
		})
		return
	}
	details.APIVersion = req.Header.Get(middlewares.APIVersionHeader)

	provisionedSpec, err := h.serviceBroker.Provision(instanceID, details)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	if provisionedSpec.IsAsync {
		h.respond(w, http.StatusAccepted, mockbroker.ProvisioningResponse{
			DashboardURL: provisionedSpec.DashboardURL,
		})
	} else {
		h.respond(w, http.StatusCreated, mockbroker.ProvisioningResponse{
			MetricsURL: provisionedSpec.MetricsURL,
		})
	}
}

func (h *handler) Update(w http.ResponseWriter, req *http.Request) {
	instanceID := mux.Vars(req)["instance_id"]

	logger := h.logger.Session(updateLogKey, lager.Data{
		instanceIDLogKey: instanceID,
	})

	var details mockbroker.UpdateDetails
	if err := json.NewDecoder(req.Body).Decode(&details); err != nil {
		logger.Error(invalidServiceDetailsErrorKey, err)
		h.respond(w, http.StatusUnprocessableEntity, mockbroker.ErrorResponse{
			Description: err.Error(),
		})
		return
	}
	details.APIVersion = req.Header.Get(middlewares.APIVersionHeader)

	updateSpec, err := h.serviceBroker.Update(instanceID, details)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	statusCode := http.StatusOK
	if updateSpec.IsAsync {
		statusCode = http.StatusAccepted
	}
	h.respond(w, statusCode, mockbroker.UpdateResponse{})
}

func (h *handler) Deprovision(w http.ResponseWriter, req *http.Request) {
	instanceID := mux.Vars(req)["instance_id"]

	logger := h.logger.Session(deprovisionLogKey, lager.Data{
		instanceIDLogKey: instanceID,
	})

	details := mockbroker.DeprovisionDetails{
		ServiceID: req.FormValue("service_id"),
		PlanID:    req.FormValue("plan_id"),
	}

	if err := h.serviceBroker.Deprovision(instanceID, details); err != nil {
		h.respondError(w, logger, err)
		return
	}

	h.respond(w, http.StatusOK, mockbroker.EmptyResponse{})
}

func (h *handler) Bind(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	instanceID := vars["instance_id"]
	bindingID := vars["binding_id"]

	logger := h.logger.Session(bindLogKey, lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
	})

	var details mockbroker.BindDetails
	if err := json.NewDecoder(req.Body).Decode(&details); err != nil {
		logger.Error(invalidBindDetailsErrorKey, err)
		h.respond(w, http.StatusUnprocessableEntity, mockbroker.ErrorResponse{
			Description: err.Error(),
		})
		return
	}
	details.APIVersion = req.Header.Get(middlewares.APIVersionHeader)

	binding, err := h.serviceBroker.Bind(instanceID, bindingID, details)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	h.respond(w, http.StatusCreated, binding)
}

func (h *handler) Unbind(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	instanceID := vars["instance_id"]
	bindingID := vars["binding_id"]

	logger := h.logger.Session(unbindLogKey, lager.Data{
		instanceIDLogKey: instanceID,
		bindingIDLogKey:  bindingID,
	})

	details := mockbroker.UnbindDetails{
		ServiceID: req.FormValue("service_id"),
		PlanID:    req.FormValue("plan_id"),
	}

	if err := h.serviceBroker.Unbind(instanceID, bindingID, details); err != nil {
		h.respondError(w, logger, err)
		return
	}

	h.respond(w, http.StatusOK, mockbroker.EmptyResponse{})
}

func (h *handler) LastOperation(w http.ResponseWriter, req *http.Request) {
	instanceID := mux.Vars(req)["instance_id"]

	logger := h.logger.Session(lastOperationLogKey, lager.Data{
		instanceIDLogKey: instanceID,
	})

	lastOperation, err := h.serviceBroker.LastOperation(instanceID)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	h.respond(w, http.StatusOK, mockbroker.LastOperationResponse{
		State:       string(lastOperation.State),
		Description: lastOperation.Description,
	})
}

func (h *handler) Reset(w http.ResponseWriter, req *http.Request) {
	h.serviceBroker.Reset()
	h.respond(w, http.StatusOK, mockbroker.EmptyResponse{})
}

func (h *handler) LastRequest(w http.ResponseWriter, req *http.Request) {
	snapshot := h.introspector.LastRequest()
	if snapshot == nil {
		h.respond(w, http.StatusNotFound, mockbroker.ErrorResponse{
			Description: "no requests recorded",
		})
		return
	}
	h.respond(w, http.StatusOK, snapshot)
}

func (h *handler) LastResponse(w http.ResponseWriter, req *http.Request) {
	snapshot := h.introspector.LastResponse()
	if snapshot == nil {
		h.respond(w, http.StatusNotFound, mockbroker.ErrorResponse{
			Description: "no responses recorded",
		})
		return
	}
	h.respond(w, http.StatusOK, snapshot)
}

func (h *handler) respondError(w http.ResponseWriter, logger lager.Logger, err error) {
	switch err := err.(type) {
	case *mockbroker.FailureResponse:
		logger.Error(err.LoggerAction(), err)
		h.respond(w, err.ValidatedStatusCode(logger), err.ErrorResponse())
	default:
		logger.Error(unknownErrorKey, err)
		h.respond(w, http.StatusInternalServerError, mockbroker.ErrorResponse{
			Description: err.Error(),
		})
	}
}

func (h *handler) respond(w http.ResponseWriter, status int, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(response); err != nil {
		h.logger.Error("encoding response", err, lager.Data{"status": status})
	}
}
