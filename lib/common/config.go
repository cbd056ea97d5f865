package common

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

const (
	CacheNopAdapterName    = "nop"
	CacheMemoryAdapterName = "mem"
	CacheRedisAdapterName  = "redis"

	DefaultCachePoolSize = 1024
	DefaultListen        = "127.0.0.1:12480"
)

//
// Config is the runtime configuration shared by the `dbo` commands. Every
// field can also be given by flag or environment variable; the file only
// supplies defaults for them.
//
type Config struct {
	Storage string `yaml:"storage"`

	CacheAdapter    string            `yaml:"cache-adapter"`
	CachePoolSize   int               `yaml:"cache-pool-size"`
	CacheRedisAddrs map[string]string `yaml:"cache-redis-addrs"`

	LogLevel  string `yaml:"log-level"`
	LogOutput string `yaml:"log-output"`

	Listen  string `yaml:"listen"`
	Metrics bool   `yaml:"metrics"`
}

func NewConfig() Config {
	c := Config{}

	c.Storage = "memory://"
	c.CacheAdapter = CacheNopAdapterName
	c.CachePoolSize = DefaultCachePoolSize
	c.LogLevel = DefaultLogLevel.String()
	c.Listen = DefaultListen

	return c
}

// LoadConfig reads a yaml file over the defaults of `NewConfig()`.
func LoadConfig(path string) (c Config, err error) {
	c = NewConfig()

	var b []byte
	if b, err = ioutil.ReadFile(path); err != nil {
		return
	}

	if err = yaml.Unmarshal(b, &c); err != nil {
		return
	}

	if c.CachePoolSize < 1 {
		c.CachePoolSize = DefaultCachePoolSize
	}

	return
}
