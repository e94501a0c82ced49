package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// config holds the options a user would otherwise have to repeat on every
// invocation: cache sizes and whether to verify checksums while scanning.
type config struct {
	PageCacheCapacity int  `yaml:"pageCacheCapacity"`
	WALCacheCapacity  int  `yaml:"walCacheCapacity"`
	VerifyChecksums   bool `yaml:"verifyChecksums"`
}

func defaultConfig() config {
	return config{PageCacheCapacity: 256, WALCacheCapacity: 1024}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}
