// Copyright 2026 Veldt Labs
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


package budget

import "errors"

var (
	// ErrBudgetExceeded indicates a call would push the period's spend
	// past the configured cap. Callers must halt, not retry.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrUnknownModel indicates the cost table has no price for the model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrInvalidTokenCount indicates a negative token count.
	ErrInvalidTokenCount = errors.New("invalid token count")

	// ErrInvalidBudget indicates a non-positive budget cap.
	ErrInvalidBudget = errors.New("budget must be positive")

	// ErrEmptyCostTable indicates an empty cost table was supplied.
	ErrEmptyCostTable = errors.New("cost table is empty")

	// ErrReservationSettled indicates Commit or Release was called twice.
	ErrReservationSettled = errors.New("reservation already settled")

	// ErrNilClock indicates a nil time source was supplied.
	ErrNilClock = errors.New("clock must not be nil")
)
