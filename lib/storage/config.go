package storage

import (
	"net/url"
	"strings"

	"boscoin.io/dbo/lib/errors"
)

const (
	SchemeMemory = "memory"
	SchemeFile   = "file"
)

type Config struct {
	Scheme string
	Path   string
	Query  url.Values
}

// NewConfigFromString parses storage uri; "memory://" keeps everything in
// memory, "file:///var/lib/dbo" stores the leveldb files under the path.
func NewConfigFromString(s string) (*Config, error) {
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, errors.StorageInvalidConfig.Clone().SetData("error", err.Error())
	}

	config := &Config{Scheme: strings.ToLower(parsed.Scheme), Query: parsed.Query()}

	switch config.Scheme {
	case SchemeMemory:
	case SchemeFile:
		config.Path = parsed.Path
		if len(config.Path) < 1 {
			return nil, errors.StorageInvalidConfig.Clone().SetData("error", "empty path")
		}
	default:
		return nil, errors.StorageInvalidConfig.Clone().SetData("scheme", parsed.Scheme)
	}

	return config, nil
}

func (c Config) String() string {
	u := url.URL{Scheme: c.Scheme, Path: c.Path, RawQuery: c.Query.Encode()}
	if c.Scheme == SchemeMemory {
		return "memory://"
	}

	return u.String()
}
