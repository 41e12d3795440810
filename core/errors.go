// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Catalog errors
var (
	// ErrSchema indicates the catalog source is missing required columns.
	ErrSchema = errors.New("catalog schema error")

	// ErrLoad indicates the catalog source could not be read or parsed.
	ErrLoad = errors.New("catalog load error")

	// ErrInvalidItem indicates a CatalogItem failed validation.
	ErrInvalidItem = errors.New("invalid catalog item")

	// ErrEmptyProductName indicates the Product field is empty.
	ErrEmptyProductName = errors.New("product name cannot be empty")

	// ErrEmptyDescription indicates the Description field is empty.
	ErrEmptyDescription = errors.New("description cannot be empty")
)

// Embedding errors
var (
	// ErrEmbedding indicates the embedding backend failed or returned
	// vectors that cannot be scored.
	ErrEmbedding = errors.New("embedding error")
)

// Query validation errors
var (
	// ErrInvalidQuery indicates a recommendation request was rejected.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyQuery indicates the query text is blank.
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// ErrInvalidTopK indicates a negative result cap.
	ErrInvalidTopK = errors.New("top k cannot be negative")

	// ErrInvalidMinScore indicates a threshold outside [-1, 1].
	ErrInvalidMinScore = errors.New("min score must be between -1 and 1")
)
