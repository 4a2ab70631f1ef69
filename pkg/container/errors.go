// Copyright 2018-2019 The logrange Authors
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

package container

import (
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by TryPush-like methods when the
	// container capacity bound is reached
	ErrCapacityExceeded = fmt.Errorf("Capacity exceeded, the value is not stored.")

	// ErrIndexInPast is returned when a value is pushed at an index which
	// is already assigned
	ErrIndexInPast = fmt.Errorf("The index is already assigned.")
)
