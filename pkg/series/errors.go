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

package series

import (
	"fmt"
)

var (
	ErrNotInitialized = fmt.Errorf("The store is not initialized, Init() must be called first.")
	ErrShutdown       = fmt.Errorf("Wrong state, the store is already shut down.")
	ErrSeriesNotFound = fmt.Errorf("The requested series was not found")
)
