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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefault(t *testing.T) {
	c := GetDefaultConfig()
	assert.NoError(t, c.Check())
	assert.Equal(t, 600, c.MaxAgeSec)
	assert.Equal(t, -1, c.ShrinkSlack)
	assert.Equal(t, "{MaxAgeSec=600, CheckpointSec=10, MaxSeries=1000, SeriesTTLSec=0, SeriesCapacity=0, ShrinkSlack=-1, Reserve=1024}", c.String())
}

func TestConfigApply(t *testing.T) {
	c := GetDefaultConfig()
	c.Apply(nil)
	assert.Equal(t, GetDefaultConfig(), c)

	c.Apply(&Config{MaxAgeSec: 60, SeriesTTLSec: 5, ShrinkSlack: -1})
	exp := GetDefaultConfig()
	exp.MaxAgeSec = 60
	exp.SeriesTTLSec = 5
	assert.Equal(t, exp, c)

	c.Apply(&Config{MaxAgeSec: -1, SeriesTTLSec: -1, ShrinkSlack: 0})
	exp.ShrinkSlack = 0
	assert.Equal(t, exp, c)

	// zero values disable pruning by age and series TTL
	c.Apply(&Config{MaxAgeSec: 0, SeriesTTLSec: 0, ShrinkSlack: -1})
	exp.MaxAgeSec = 0
	exp.SeriesTTLSec = 0
	assert.Equal(t, exp, c)
	assert.NoError(t, c.Check())
}

func TestConfigCheck(t *testing.T) {
	assert.Error(t, (&Config{MaxAgeSec: -1, MaxSeries: 1}).Check())
	assert.Error(t, (&Config{MaxAgeSec: 10, MaxSeries: 1}).Check())
	assert.Error(t, (&Config{MaxSeries: 0}).Check())
	assert.Error(t, (&Config{MaxSeries: 1, Reserve: -1}).Check())
	assert.NoError(t, (&Config{MaxAgeSec: 10, CheckpointSec: 1, MaxSeries: 1}).Check())
}

func TestConfigClone(t *testing.T) {
	c := GetDefaultConfig()
	c2 := c.Clone()
	assert.Equal(t, c, c2)
	c2.MaxSeries = 1
	assert.Equal(t, 1000, c.MaxSeries)
}

func TestConfigFromMap(t *testing.T) {
	c, err := ConfigFromMap(map[string]interface{}{"MaxAgeSec": 30, "MaxSeries": 5})
	assert.NoError(t, err)
	assert.Equal(t, &Config{MaxAgeSec: 30, MaxSeries: 5, SeriesTTLSec: -1, ShrinkSlack: -1}, c)

	_, err = ConfigFromMap(map[string]interface{}{"MaxAgeSec": "abc"})
	assert.Error(t, err)
}

func TestReadConfigFromFile(t *testing.T) {
	c, err := ReadConfigFromFile("")
	assert.NoError(t, err)
	assert.Nil(t, c)

	dir, err := ioutil.TempDir("", "seriesConfigTest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, "store.json")
	c, err = ReadConfigFromFile(fn)
	assert.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, ioutil.WriteFile(fn, []byte(`{"MaxAgeSec": 120, "CheckpointSec": 5}`), 0640))
	c, err = ReadConfigFromFile(fn)
	assert.NoError(t, err)
	assert.Equal(t, &Config{MaxAgeSec: 120, CheckpointSec: 5, SeriesTTLSec: -1, ShrinkSlack: -1}, c)

	cfg := GetDefaultConfig()
	cfg.Apply(c)
	assert.Equal(t, 120, cfg.MaxAgeSec)
	assert.Equal(t, 5, cfg.CheckpointSec)
	assert.Equal(t, 1000, cfg.MaxSeries)

	require.NoError(t, ioutil.WriteFile(fn, []byte(`{"MaxAgeSec": 0, "MaxSeries": 7}`), 0640))
	c, err = ReadConfigFromFile(fn)
	assert.NoError(t, err)
	cfg = GetDefaultConfig()
	cfg.Apply(c)
	assert.Equal(t, 0, cfg.MaxAgeSec)
	assert.Equal(t, 7, cfg.MaxSeries)
	assert.Equal(t, 0, cfg.SeriesTTLSec)
	assert.Equal(t, -1, cfg.ShrinkSlack)

	require.NoError(t, ioutil.WriteFile(fn, []byte(`{"MaxAgeSec": `), 0640))
	_, err = ReadConfigFromFile(fn)
	assert.Error(t, err)
}
