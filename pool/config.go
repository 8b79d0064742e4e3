// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/trackpool/audio"
	"github.com/ik5/trackpool/fetch"
)

const (
	defaultBufferSize = 1024
	defaultReadFrames = 4096

	defaultRetryInitial    = 200 * time.Millisecond
	defaultRetryMax        = 5 * time.Second
	defaultRetryMultiplier = 2.0
)

// RetryConfig controls re-fetching a track whose request failed before
// any audio was read. Only network errors and 429/5xx statuses are
// retried.
type RetryConfig struct {
	// MaxAttempts counts the first try. Defaults to 1, no retry.
	MaxAttempts     int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval" mapstructure:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" mapstructure:"max_interval"`
	Multiplier      float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// DefaultSpeedTarget is the duration of 512*256-1 samples at 16 kHz.
// WithSpeed uses it for a zero target.
const DefaultSpeedTarget = 131071 * time.Second / 16000

// SpeedConfig switches chunking from a fixed frame count to a fixed
// duration scaled by a random speed factor. Before each chunk a semitone
// step s is drawn and the chunk holds Target * 2^(-s/12) of source audio,
// so it lasts Target once played back at that speed factor.
type SpeedConfig struct {
	// Target is the chunk duration at its speed factor. 0 disables.
	Target time.Duration `yaml:"target" mapstructure:"target"`

	// MinStep and MaxStep bound the drawn step, inclusive.
	MinStep int `yaml:"min_step" mapstructure:"min_step"`
	MaxStep int `yaml:"max_step" mapstructure:"max_step"`

	// Step draws the step for the next chunk. It is called from every
	// worker goroutine. Defaults to a uniform draw over [MinStep, MaxStep].
	Step func() int `yaml:"-" mapstructure:"-"`
}

// Factor returns the speed factor of a semitone step.
func Factor(step int) float64 {
	return math.Pow(2, float64(step)/-12)
}

// Config configures a Pool.
type Config struct {
	// BufferSize is the capacity of the shared chunk queue. Defaults to 1024.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// ReadFrames is how many frames a worker asks the decoder for at a
	// time. Defaults to 4096.
	ReadFrames int `yaml:"read_frames" mapstructure:"read_frames"`

	// ChunkFrames regroups output into chunks of exactly this many frames,
	// the last one possibly shorter. 0 emits one chunk per decoder read.
	ChunkFrames int `yaml:"chunk_frames" mapstructure:"chunk_frames"`

	// Speed chunks by duration instead. Exclusive with ChunkFrames.
	Speed SpeedConfig `yaml:"speed" mapstructure:"speed"`

	// TargetSampleRate resamples every track when non-zero.
	TargetSampleRate int `yaml:"target_sample_rate" mapstructure:"target_sample_rate"`

	// Mono averages all channels into one.
	Mono bool `yaml:"mono" mapstructure:"mono"`

	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`

	// Registry resolves decoders by format. Required.
	Registry *audio.Registry `yaml:"-" mapstructure:"-"`

	// Fetcher opens track URLs. Required.
	Fetcher fetch.Fetcher `yaml:"-" mapstructure:"-"`

	// Logger receives lifecycle events. Defaults to a no-op logger.
	Logger *zerolog.Logger `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.ReadFrames == 0 {
		c.ReadFrames = defaultReadFrames
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = defaultRetryInitial
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = defaultRetryMax
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = defaultRetryMultiplier
	}
	if c.Speed.Target > 0 && c.Speed.Step == nil {
		lo, hi := c.Speed.MinStep, c.Speed.MaxStep
		c.Speed.Step = func() int { return lo + rand.IntN(hi-lo+1) }
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch {
	case c.BufferSize < 0:
		return fmt.Errorf("buffer size must not be negative, got %d", c.BufferSize)
	case c.ReadFrames < 1:
		return fmt.Errorf("read frames must be positive, got %d", c.ReadFrames)
	case c.ChunkFrames < 0:
		return fmt.Errorf("chunk frames must not be negative, got %d", c.ChunkFrames)
	case c.Speed.Target < 0:
		return fmt.Errorf("speed target must not be negative, got %v", c.Speed.Target)
	case c.Speed.Target > 0 && c.ChunkFrames > 0:
		return fmt.Errorf("chunk frames and speed target are exclusive")
	case c.Speed.MinStep > c.Speed.MaxStep:
		return fmt.Errorf("speed steps out of order: %d > %d", c.Speed.MinStep, c.Speed.MaxStep)
	case c.TargetSampleRate < 0:
		return fmt.Errorf("target sample rate must not be negative, got %d", c.TargetSampleRate)
	case c.Retry.MaxAttempts < 1:
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	case c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0:
		return fmt.Errorf("retry intervals must not be negative")
	case c.Retry.Multiplier < 1:
		return fmt.Errorf("retry multiplier must be at least 1, got %v", c.Retry.Multiplier)
	case c.Registry == nil:
		return fmt.Errorf("registry is required")
	case c.Fetcher == nil:
		return fmt.Errorf("fetcher is required")
	}
	return nil
}

// Option mutates a Config before defaults are applied.
type Option func(*Config)

// WithConfig replaces the whole configuration; later options still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

func WithReadFrames(n int) Option {
	return func(c *Config) { c.ReadFrames = n }
}

func WithChunkFrames(n int) Option {
	return func(c *Config) { c.ChunkFrames = n }
}

// WithSpeed chunks by duration, drawing a semitone step in
// [minStep, maxStep] for each chunk.
func WithSpeed(target time.Duration, minStep, maxStep int) Option {
	if target == 0 {
		target = DefaultSpeedTarget
	}
	return func(c *Config) {
		c.Speed.Target = target
		c.Speed.MinStep = minStep
		c.Speed.MaxStep = maxStep
	}
}

// WithStepSource replaces the random step draw.
func WithStepSource(step func() int) Option {
	return func(c *Config) { c.Speed.Step = step }
}

func WithTargetSampleRate(rate int) Option {
	return func(c *Config) { c.TargetSampleRate = rate }
}

func WithMono() Option {
	return func(c *Config) { c.Mono = true }
}

// WithRetry enables fetch retries with exponential backoff starting at
// initial.
func WithRetry(attempts int, initial time.Duration) Option {
	return func(c *Config) {
		c.Retry.MaxAttempts = attempts
		c.Retry.InitialInterval = initial
	}
}

func WithRegistry(r *audio.Registry) Option {
	return func(c *Config) { c.Registry = r }
}

func WithFetcher(f fetch.Fetcher) Option {
	return func(c *Config) { c.Fetcher = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = &l }
}
