// SPDX-License-Identifier: EPL-2.0

package trackpool

import (
	"context"
	"fmt"

	"github.com/ik5/trackpool/audio"
	"github.com/ik5/trackpool/fetch"
	"github.com/ik5/trackpool/formats/aiff"
	"github.com/ik5/trackpool/formats/flac"
	"github.com/ik5/trackpool/formats/mp3"
	"github.com/ik5/trackpool/formats/vorbis"
	"github.com/ik5/trackpool/formats/wav"
	"github.com/ik5/trackpool/pool"
)

// DefaultRegistry returns a registry with every bundled decoder.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(audio.FormatMP3, mp3.Decoder{})
	r.Register(audio.FormatWAV, wav.Decoder{})
	r.Register(audio.FormatOgg, vorbis.Decoder{})
	r.Register(audio.FormatFLAC, flac.Decoder{})
	r.Register(audio.FormatAIFF, aiff.Decoder{})
	return r
}

// New starts a pool over urls that fetches with a default fetch.HTTP and
// decodes with DefaultRegistry. pool.WithFetcher and pool.WithRegistry in
// opts replace either one.
func New(ctx context.Context, limit int, urls []string, opts ...pool.Option) (*pool.Pool, error) {
	f, err := fetch.NewHTTP(fetch.Config{})
	if err != nil {
		return nil, fmt.Errorf("trackpool: %w", err)
	}

	base := []pool.Option{
		pool.WithRegistry(DefaultRegistry()),
		pool.WithFetcher(f),
	}
	return pool.New(ctx, limit, urls, append(base, opts...)...)
}
