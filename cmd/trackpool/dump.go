// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ik5/trackpool/formats/wav"
	"github.com/ik5/trackpool/pool"
)

// dumper writes each track to its own WAV file as chunks arrive. Files of
// tracks that fail or never finish are removed.
type dumper struct {
	dir   string
	log   zerolog.Logger
	files map[int]*dumpFile
}

type dumpFile struct {
	path string
	f    *os.File
	w    *wav.Writer
}

func newDumper(dir string, log zerolog.Logger) *dumper {
	return &dumper{dir: dir, log: log, files: make(map[int]*dumpFile)}
}

func (d *dumper) write(c *pool.Chunk) error {
	if d.dir == "" {
		return nil
	}

	df, ok := d.files[c.Track]
	if !ok {
		var err error
		if df, err = d.create(c); err != nil {
			return err
		}
		d.files[c.Track] = df
	}

	if err := df.w.Write(c.Samples()); err != nil {
		d.discard(c.Track)
		return fmt.Errorf("dump track %d: %w", c.Track, err)
	}

	if c.Final {
		return d.finish(c.Track)
	}
	return nil
}

func (d *dumper) create(c *pool.Chunk) (*dumpFile, error) {
	path := filepath.Join(d.dir, fmt.Sprintf("track-%03d.wav", c.Track))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("dump track %d: %w", c.Track, err)
	}

	w, err := wav.NewWriter(f, c.SampleRate, c.Channels, 16)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("dump track %d: %w", c.Track, err)
	}

	return &dumpFile{path: path, f: f, w: w}, nil
}

func (d *dumper) finish(track int) error {
	df := d.files[track]
	delete(d.files, track)

	if err := df.w.Close(); err != nil {
		df.f.Close()
		return fmt.Errorf("dump track %d: %w", track, err)
	}
	if err := df.f.Close(); err != nil {
		return fmt.Errorf("dump track %d: %w", track, err)
	}

	d.log.Info().Int("track", track).Str("path", df.path).Msg("track written")
	return nil
}

// discard drops a partial file.
func (d *dumper) discard(track int) {
	df, ok := d.files[track]
	if !ok {
		return
	}
	delete(d.files, track)

	df.f.Close()
	if err := os.Remove(df.path); err != nil {
		d.log.Warn().Err(err).Str("path", df.path).Msg("removing partial dump")
	}
}

func (d *dumper) close() {
	for track := range d.files {
		d.discard(track)
	}
}
