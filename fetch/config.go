// SPDX-License-Identifier: EPL-2.0

package fetch

import (
	"fmt"
	"net/http"
	"time"
)

const (
	defaultHeaderTimeout  = 30 * time.Second
	defaultMaxHeaderBytes = 1 << 20
	defaultReadBufferSize = 8192
	defaultUserAgent      = "trackpool/1.0"
)

// Config configures the HTTP fetcher.
type Config struct {
	// HeaderTimeout bounds the wait for response headers. The body has no
	// deadline so long tracks can stream. Defaults to 30s.
	HeaderTimeout time.Duration `yaml:"header_timeout" mapstructure:"header_timeout"`

	// MaxHeaderBytes limits the response header size. Defaults to 1 MiB.
	MaxHeaderBytes int64 `yaml:"max_header_bytes" mapstructure:"max_header_bytes"`

	// ReadBufferSize is the buffer placed in front of the response body.
	// Defaults to 8192.
	ReadBufferSize int `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Client replaces the internally built client, mostly for tests. When
	// set, HeaderTimeout and MaxHeaderBytes are not applied.
	Client *http.Client `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HeaderTimeout == 0 {
		c.HeaderTimeout = defaultHeaderTimeout
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.HeaderTimeout < 0 {
		return fmt.Errorf("fetch: header timeout must not be negative")
	}
	if c.MaxHeaderBytes < 0 {
		return fmt.Errorf("fetch: max header bytes must not be negative")
	}
	if c.ReadBufferSize < 16 {
		return fmt.Errorf("fetch: read buffer size must be at least 16, got %d", c.ReadBufferSize)
	}
	return nil
}
