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

import (
	"fmt"
	"math"
	"strings"
)

// ValidateItem validates a CatalogItem according to domain rules.
//
// Validation rules:
//   - ProductName must not be blank
//   - Description must not be blank
//
// NOT validated:
//   - Keywords (filled from Category during normalization)
//   - DurationMinutes (0 is valid for unknown length)
func ValidateItem(item *CatalogItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if strings.TrimSpace(item.ProductName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyProductName)
	}

	if strings.TrimSpace(item.Description) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyDescription)
	}

	return nil
}

// ValidateQuery validates a Query before any embedding work is done.
//
// Validation rules:
//   - Text must not be blank
//   - TopK must not be negative (0 selects DefaultTopK)
//   - MinScore must be within the cosine range [-1, 1]
func ValidateQuery(q Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}

	if q.TopK < 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidQuery, ErrInvalidTopK, q.TopK)
	}

	if q.MinScore < -1 || q.MinScore > 1 || math.IsNaN(float64(q.MinScore)) {
		return fmt.Errorf("%w: %w: %g", ErrInvalidQuery, ErrInvalidMinScore, q.MinScore)
	}

	return nil
}
