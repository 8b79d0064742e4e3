// SPDX-License-Identifier: EPL-2.0

// Package audio defines the streaming PCM abstraction shared by the
// decoders and the download pool.
//
// A Source yields interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// SampleRate and Channels are known as soon as a Decoder returns, before
// the first read. Sources pull their input incrementally, so a decoder can
// sit directly on an HTTP response body.
//
// # Choosing a Decoder
//
// A Registry maps format keys to decoders. Lookup picks the key for a
// download from its Content-Type header, falling back to the URL path
// extension:
//
//	registry := audio.NewRegistry()
//	registry.Register(audio.FormatWAV, wav.Decoder{})
//	format, decoder, err := registry.Lookup(url, contentType)
//	if errors.Is(err, audio.ErrUnsupportedFormat) {
//	    // unknown or unregistered format
//	}
//
// DetectFormat exposes the detection step on its own.
//
// # Transforms
//
// MonoMixer averages all channels into one and Resampler converts to
// another rate with cubic interpolation. Both wrap a Source and close it
// when they are closed:
//
//	src = audio.NewMonoMixer(src)
//	src = audio.NewResampler(src, 16000)
//
// # Reading
//
// Ask for whole frames: len(dst) should be a multiple of Channels().
// ReadSamples may return samples together with io.EOF on the last call, so
// handle n before checking the error:
//
//	for {
//	    n, err := src.ReadSamples(buf)
//	    process(buf[:n])
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
