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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/jrivets/log4g"
	"github.com/mitchellh/mapstructure"
	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"
)

// Config struct defines the Store settings
type Config struct {
	// MaxAgeSec defines how long, in seconds, samples are kept in the store.
	// 0 means samples are never pruned by age.
	MaxAgeSec int

	// CheckpointSec defines how often, in seconds, the store checkpoints its
	// timeline. Pruning by age is as precise as the checkpoint interval.
	CheckpointSec int

	// MaxSeries limits number of series in the store. When the limit is
	// reached, the least recently updated series is removed.
	MaxSeries int

	// SeriesTTLSec defines how long, in seconds, a series without new samples
	// stays in the store. 0 means forever.
	SeriesTTLSec int

	// SeriesCapacity limits number of samples a series may keep, samples
	// above the limit are dropped until the series is pruned. 0 means no limit.
	SeriesCapacity int

	// ShrinkSlack is the number of spare elements left in containers after
	// pruning. Negative value means containers are not shrunk at all.
	ShrinkSlack int

	// Reserve is the number of timeline entries allocated up front
	Reserve int
}

var configLog = log4g.GetLogger("series.config")

// GetDefaultConfig returns the default Store configuration
func GetDefaultConfig() *Config {
	c := new(Config)
	c.MaxAgeSec = 600
	c.CheckpointSec = 10
	c.MaxSeries = 1000
	c.SeriesTTLSec = 0
	c.SeriesCapacity = 0
	c.ShrinkSlack = -1
	c.Reserve = 1024
	return c
}

// MaxAge returns MaxAgeSec as time.Duration
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSec) * time.Second
}

// CheckpointInterval returns CheckpointSec as time.Duration
func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.CheckpointSec) * time.Second
}

// SeriesTTL returns SeriesTTLSec as time.Duration
func (c *Config) SeriesTTL() time.Duration {
	return time.Duration(c.SeriesTTLSec) * time.Second
}

// Apply override c's properties by non-default values from cfg. MaxAgeSec,
// SeriesTTLSec and ShrinkSlack can be 0, so for them only negative values
// are treated as not set (see ReadConfigFromFile and ConfigFromMap).
func (c *Config) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.MaxAgeSec >= 0 {
		c.MaxAgeSec = cfg.MaxAgeSec
	}
	if cfg.CheckpointSec > 0 {
		c.CheckpointSec = cfg.CheckpointSec
	}
	if cfg.MaxSeries > 0 {
		c.MaxSeries = cfg.MaxSeries
	}
	if cfg.SeriesTTLSec >= 0 {
		c.SeriesTTLSec = cfg.SeriesTTLSec
	}
	if cfg.SeriesCapacity > 0 {
		c.SeriesCapacity = cfg.SeriesCapacity
	}
	if cfg.ShrinkSlack >= 0 {
		c.ShrinkSlack = cfg.ShrinkSlack
	}
	if cfg.Reserve > 0 {
		c.Reserve = cfg.Reserve
	}
}

// Check returns an error if the configuration is not valid
func (c *Config) Check() error {
	if c.MaxAgeSec < 0 || c.CheckpointSec < 0 || c.SeriesTTLSec < 0 {
		return fmt.Errorf("MaxAgeSec=%d, CheckpointSec=%d and SeriesTTLSec=%d must not be negative", c.MaxAgeSec, c.CheckpointSec, c.SeriesTTLSec)
	}
	if c.MaxAgeSec > 0 && c.CheckpointSec == 0 {
		return fmt.Errorf("CheckpointSec must be positive when MaxAgeSec=%d is set", c.MaxAgeSec)
	}
	if c.MaxSeries <= 0 {
		return fmt.Errorf("MaxSeries must be positive, but it is %d", c.MaxSeries)
	}
	if c.SeriesCapacity < 0 || c.Reserve < 0 {
		return fmt.Errorf("SeriesCapacity=%d and Reserve=%d must not be negative", c.SeriesCapacity, c.Reserve)
	}
	return nil
}

// Clone returns a copy of c
func (c *Config) Clone() *Config {
	return deepcopy.Copy(c).(*Config)
}

func (c *Config) String() string {
	return fmt.Sprintf("{MaxAgeSec=%d, CheckpointSec=%d, MaxSeries=%d, SeriesTTLSec=%d, SeriesCapacity=%d, ShrinkSlack=%d, Reserve=%d}",
		c.MaxAgeSec, c.CheckpointSec, c.MaxSeries, c.SeriesTTLSec, c.SeriesCapacity, c.ShrinkSlack, c.Reserve)
}

// ConfigFromMap builds Config from the key-value params. Keys are the Config
// field names. MaxAgeSec, SeriesTTLSec and ShrinkSlack are -1, if they are
// not in the params.
func ConfigFromMap(params map[string]interface{}) (*Config, error) {
	c := newUnsetConfig()
	if err := mapstructure.Decode(params, c); err != nil {
		return nil, errors.Wrapf(err, "could not decode store config from %v", params)
	}
	return c, nil
}

// ReadConfigFromFile reads JSON config from the file filename. It returns
// nil and no error if filename is empty or the file doesn't exist. Fields
// which are not in the file are not set, so the result is intended for Apply.
func ReadConfigFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, nil
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		configLog.Warn("There is no file ", filename, " for reading the store config, will use default configuration.")
		return nil, nil
	}

	cfgData, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read data from config file %s", filename)
	}

	c := newUnsetConfig()
	err = json.Unmarshal(cfgData, c)
	if err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal json data from config file %s", filename)
	}

	configLog.Info("Configuration read from ", filename)
	return c, nil
}

// newUnsetConfig returns Config with all fields not set in terms of Apply
func newUnsetConfig() *Config {
	return &Config{MaxAgeSec: -1, SeriesTTLSec: -1, ShrinkSlack: -1}
}
