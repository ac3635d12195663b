package mockbroker

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const statusUnprocessableEntity = 422

var (
	ErrServiceIDMissing = NewFailureResponse(
		errors.New("service_id missing"), http.StatusBadRequest, "service-id-missing",
	)

	ErrPlanIDMissing = NewFailureResponse(
		errors.New("plan_id missing"), http.StatusBadRequest, "plan-id-missing",
	)

	ErrServiceNotInCatalog = NewFailureResponse(
		errors.New("service-id not in the catalog"), http.StatusBadRequest, "invalid-service-id",
	)

	ErrPlanNotInCatalog = NewFailureResponse(
		errors.New("plan-id not in the catalog"), http.StatusBadRequest, "invalid-plan-id",
	)

	ErrInstanceAlreadyExists = NewFailureResponseBuilder(
		errors.New("instance already exists"), http.StatusConflict, "instance-already-exists",
	).WithEmptyResponse().Build()

	ErrInstanceDoesNotExist = NewFailureResponse(
		errors.New("instance does not exist"), http.StatusNotFound, "instance-missing",
	)

	ErrBindingAlreadyExists = NewFailureResponse(
		errors.New("binding already exists"), http.StatusConflict, "binding-already-exists",
	)

	ErrOperationInProgress = NewFailureResponseBuilder(
		errors.New("an operation for this instance is in progress"), statusUnprocessableEntity, "operation-in-progress",
	).WithErrorKey("ConcurrencyError").Build()
)

// NewCatalogFormatError wraps the structural validation failure of a catalog
// replacement. The prior catalog stays in effect.
func NewCatalogFormatError(err error) *FailureResponse {
	return NewFailureResponseBuilder(err, statusUnprocessableEntity, "catalog-malformed").
		WithErrorKey("CatalogFormatError").
		Build()
}

// NewParameterValidationError reports request parameters rejected by a plan's
// schema. One violation per "field: description" clause.
func NewParameterValidationError(violations []string) *FailureResponse {
	return NewFailureResponseBuilder(
		fmt.Errorf("parameters failed schema validation: %s", strings.Join(violations, "; ")),
		http.StatusBadRequest,
		"invalid-parameters",
	).WithErrorKey("ValidationError").Build()
}
