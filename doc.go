// SPDX-License-Identifier: EPL-2.0

// Package trackpool downloads a list of remote audio files concurrently and
// streams them back as decoded PCM.
//
// The package wires the pieces most programs need: an HTTP fetcher and a
// decoder registry covering every bundled format. The pool itself lives in
// the pool subpackage and can be assembled by hand for custom fetchers or
// codecs.
//
// # Supported Formats
//
//   - MP3 via formats/mp3
//   - WAV (PCM 8/16/24/32-bit, float 32-bit) via formats/wav
//   - Ogg Vorbis via formats/vorbis
//   - FLAC via formats/flac
//   - AIFF (PCM 8/16/24/32-bit) via formats/aiff
//
// The format of a download is chosen from its Content-Type header, then from
// the extension of the URL path.
//
// # Quick Start
//
//	p, err := trackpool.New(ctx, 3, []string{
//	    "https://example.com/intro.mp3",
//	    "https://example.com/theme.ogg",
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	for chunk, err := range p.All(ctx) {
//	    if err != nil {
//	        log.Print(err)
//	        continue
//	    }
//	    fmt.Println(chunk.Track, chunk.Seq, chunk.Frames())
//	}
//
// # Processing Options
//
// Options from the pool package apply unchanged:
//
//	p, err := trackpool.New(ctx, 3, urls,
//	    pool.WithTargetSampleRate(16000),
//	    pool.WithMono(),
//	    pool.WithChunkFrames(320),
//	    pool.WithRetry(3, 500*time.Millisecond),
//	)
//
// # Whole Tracks
//
// CollectInt16 drains a pool and returns each track as 16-bit PCM, for
// callers that do not need streaming.
package trackpool
