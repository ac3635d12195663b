package fakes

import (
	"github.com/cloudfoundry-community/mockbroker"
)

// FakeServiceBroker records the lifecycle calls made against it and answers
// with canned payloads. Error fields, when set, are returned instead.
type FakeServiceBroker struct {
	CatalogServices []mockbroker.Service

	ProvisionDetails  mockbroker.ProvisionDetails
	UpdateDetails     mockbroker.UpdateDetails
	BindDetails       mockbroker.BindDetails
	ProvisionedSpec   mockbroker.ProvisionedServiceSpec
	UpdatedSpec       mockbroker.UpdateServiceSpec
	BindingPayload    mockbroker.Binding
	OperationResponse mockbroker.LastOperation

	ProvisionedInstanceIDs   []string
	UpdatedInstanceIDs       []string
	DeprovisionedInstanceIDs []string
	BoundInstanceIDs         []string
	BoundBindingIDs          []string
	UnboundBindingIDs        []string
	PolledInstanceIDs        []string
	ReplacedCatalogs         [][]mockbroker.Service

	ProvisionError      error
	UpdateError         error
	DeprovisionError    error
	BindError           error
	UnbindError         error
	LastOperationError  error
	ReplaceCatalogError error

	ResetCalled bool

	lastRequest  *mockbroker.RequestSnapshot
	lastResponse *mockbroker.ResponseSnapshot
}

func (fakeBroker *FakeServiceBroker) Services() []mockbroker.Service {
	return fakeBroker.CatalogServices
}

func (fakeBroker *FakeServiceBroker) Provision(instanceID string, details mockbroker.ProvisionDetails) (mockbroker.ProvisionedServiceSpec, error) {
	if fakeBroker.ProvisionError != nil {
		return mockbroker.ProvisionedServiceSpec{}, fakeBroker.ProvisionError
	}

	fakeBroker.ProvisionDetails = details
	fakeBroker.ProvisionedInstanceIDs = append(fakeBroker.ProvisionedInstanceIDs, instanceID)
	return fakeBroker.ProvisionedSpec, nil
}

func (fakeBroker *FakeServiceBroker) Update(instanceID string, details mockbroker.UpdateDetails) (mockbroker.UpdateServiceSpec, error) {
	if fakeBroker.UpdateError != nil {
		return mockbroker.UpdateServiceSpec{}, fakeBroker.UpdateError
	}

	fakeBroker.UpdateDetails = details
	fakeBroker.UpdatedInstanceIDs = append(fakeBroker.UpdatedInstanceIDs, instanceID)
	return fakeBroker.UpdatedSpec, nil
}

func (fakeBroker *FakeServiceBroker) Deprovision(instanceID string, details mockbroker.DeprovisionDetails) error {
	if fakeBroker.DeprovisionError != nil {
		return fakeBroker.DeprovisionError
	}

	fakeBroker.DeprovisionedInstanceIDs = append(fakeBroker.DeprovisionedInstanceIDs, instanceID)
	return nil
}

func (fakeBroker *FakeServiceBroker) Bind(instanceID, bindingID string, details mockbroker.BindDetails) (mockbroker.Binding, error) {
	if fakeBroker.BindError != nil {
		return mockbroker.Binding{}, fakeBroker.BindError
	}

	fakeBroker.BindDetails = details
	fakeBroker.BoundInstanceIDs = append(fakeBroker.BoundInstanceIDs, instanceID)
	fakeBroker.BoundBindingIDs = append(fakeBroker.BoundBindingIDs, bindingID)
	return fakeBroker.BindingPayload, nil
}

func (fakeBroker *FakeServiceBroker) Unbind(instanceID, bindingID string, details mockbroker.UnbindDetails) error {
	if fakeBroker.UnbindError != nil {
		return fakeBroker.UnbindError
	}

	fakeBroker.UnboundBindingIDs = append(fakeBroker.UnboundBindingIDs, bindingID)
	return nil
}

func (fakeBroker *FakeServiceBroker) LastOperation(instanceID string) (mockbroker.LastOperation, error) {
	if fakeBroker.LastOperationError != nil {
		return mockbroker.LastOperation{}, fakeBroker.LastOperationError
	}

	fakeBroker.PolledInstanceIDs = append(fakeBroker.PolledInstanceIDs, instanceID)
	return fakeBroker.OperationResponse, nil
}

func (fakeBroker *FakeServiceBroker) ReplaceCatalog(services []mockbroker.Service) error {
	if fakeBroker.ReplaceCatalogError != nil {
		return fakeBroker.ReplaceCatalogError
	}

	fakeBroker.ReplacedCatalogs = append(fakeBroker.ReplacedCatalogs, services)
	fakeBroker.CatalogServices = services
	return nil
}

func (fakeBroker *FakeServiceBroker) Reset() {
	fakeBroker.ResetCalled = true
	fakeBroker.lastRequest = nil
	fakeBroker.lastResponse = nil
}

func (fakeBroker *FakeServiceBroker) RecordRequest(snapshot mockbroker.RequestSnapshot) {
	fakeBroker.lastRequest = &snapshot
}

func (fakeBroker *FakeServiceBroker) RecordResponse(snapshot mockbroker.ResponseSnapshot) {
	fakeBroker.lastResponse = &snapshot
}

func (fakeBroker *FakeServiceBroker) LastRequest() *mockbroker.RequestSnapshot {
	return fakeBroker.lastRequest
}

func (fakeBroker *FakeServiceBroker) LastResponse() *mockbroker.ResponseSnapshot {
	return fakeBroker.lastResponse
}
