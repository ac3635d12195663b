// Copyright (C) 2016-Present Pivotal Software, Inc. All rights reserved.
// This program and the accompanying materials are made available under the terms of the under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the specific language governing permissions and limitations under the License.

// Package schema validates request parameters against the JSON Schema
// documents a plan advertises in the catalog.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Violation is a single schema check failure, addressed by the field that
// failed it.
type Violation struct {
	Field       string
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Description)
}

// Validate checks params against a JSON Schema document. An absent schema
// means "no constraints", and so does a document the schema compiler
// rejects; only violations of a well-formed schema are reported.
func Validate(document map[string]interface{}, params map[string]interface{}) []Violation {
	if len(document) == 0 {
		return nil
	}

	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(document),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return nil
	}

	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		violations = append(violations, Violation{
			Field:       resultError.Field(),
			Description: resultError.Description(),
		})
	}
	return violations
}

// Descriptions renders violations for embedding in an error message.
func Descriptions(violations []Violation) []string {
	descriptions := make([]string, 0, len(violations))
	for _, violation := range violations {
		descriptions = append(descriptions, violation.String())
	}
	return descriptions
}
