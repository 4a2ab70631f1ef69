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
	"strconv"
	"time"

	"github.com/kr/logfmt"
	"github.com/pkg/errors"
)

type (
	// Sample is a set of named values observed at the same time
	Sample struct {
		// Time is zero, if the source line had no timestamp
		Time   time.Time
		Values map[string]float64
	}

	sampleHandler Sample
)

const (
	cTimeKey = "ts"
)

// ParseSample parses a logfmt (https://brandur.org/logfmt) line into Sample.
// The "ts" key contains the sample time in RFC3339 format, or as a number of
// milliseconds since the epoch. All other keys are series names with float
// values, for example:
//
//	ts=2019-03-01T12:00:00Z cpu=0.35 mem=1024
func ParseSample(line []byte) (Sample, error) {
	sh := sampleHandler{Values: make(map[string]float64)}
	if err := logfmt.Unmarshal(line, &sh); err != nil {
		return Sample{}, errors.Wrapf(err, "could not parse sample line %q", line)
	}
	return Sample(sh), nil
}

// HandleLogfmt is the logfmt.Handler implementation
func (sh *sampleHandler) HandleLogfmt(key, val []byte) error {
	k := string(key)
	if k == cTimeKey {
		t, err := parseTime(string(val))
		if err != nil {
			return err
		}
		sh.Time = t
		return nil
	}

	f, err := strconv.ParseFloat(string(val), 64)
	if err != nil {
		return errors.Wrapf(err, "wrong value for %s", k)
	}
	sh.Values[k] = f
	return nil
}

func parseTime(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "wrong time %s", s)
	}
	return t, nil
}
