// SPDX-License-Identifier: EPL-2.0

// Package pool downloads and decodes a list of audio tracks with bounded
// concurrency and hands the decoded PCM to a single consumer.
//
// A Pool admits tracks in input order, running at most limit workers at a
// time. Each worker fetches its URL, picks a decoder from the configured
// audio.Registry and streams interleaved float32 chunks onto a shared
// queue. The consumer pulls them with Next:
//
//	p, err := pool.New(ctx, 4, urls,
//	    pool.WithRegistry(registry),
//	    pool.WithFetcher(fetcher),
//	)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	for {
//	    chunk, err := p.Next(ctx)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    var perr *pool.PoolError
//	    if errors.As(err, &perr) && perr.Track >= 0 {
//	        log.Printf("track %d failed: %v", perr.Track, err)
//	        continue
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    play(chunk.Samples())
//	}
//
// # Ordering
//
// Chunks of one track arrive in order, numbered by Seq, and the last one
// of a track that decoded to the end has Final set. Chunks of different
// tracks interleave in whatever order the workers produce them. A failed
// track yields exactly one *PoolError after any chunks it already sent.
//
// # Chunking
//
// By default a chunk is whatever one decoder read returned. ChunkFrames
// regroups the audio into chunks of a fixed frame count. Speed regroups
// it by duration instead: each chunk draws a semitone step, records it in
// StepFactor with SpeedFactor = 2^(-step/12), and holds SpeedFactor times
// the target duration of audio. In both regrouping modes only the Final
// chunk may be shorter, and it carries audio unless the track had none.
//
// # Backpressure
//
// The queue holds Config.BufferSize items. A worker blocks on a full
// queue before reading more audio, so at most BufferSize+limit chunks
// exist at once and downloads advance only as fast as Next is called.
//
// # Errors
//
// Every error from New and Next other than io.EOF and context errors is a
// *PoolError. Match the kind with errors.Is against ErrInvalidArgument,
// ErrInvalidURL, ErrNetwork, ErrHTTPStatus, ErrDecode or ErrPoolClosed,
// and reach the cause with errors.As. Malformed URLs and non-HTTP schemes
// fail with ErrInvalidURL and are never retried.
package pool
