// SPDX-License-Identifier: EPL-2.0

// Command trackpool downloads audio URLs concurrently and prints the shape
// of every decoded chunk as it arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/ik5/trackpool"
	"github.com/ik5/trackpool/fetch"
	"github.com/ik5/trackpool/pool"
)

// version is set via ldflags at build time.
var version = "dev"

type CLI struct {
	URLs []string `arg:"" name:"url" help:"Audio URLs to download, in order."`

	Limit       int           `short:"l" help:"Maximum concurrent downloads." default:"4" env:"TRACKPOOL_LIMIT"`
	Buffer      int           `help:"Chunks queued between the workers and the consumer." default:"1024" env:"TRACKPOOL_BUFFER"`
	ChunkFrames int           `help:"Frames per chunk; 0 emits one chunk per decoder read." default:"0" env:"TRACKPOOL_CHUNK_FRAMES"`
	Speed       bool          `help:"Chunk by duration with a random speed factor per chunk." env:"TRACKPOOL_SPEED"`
	SpeedTarget time.Duration `help:"Chunk duration at its speed factor; 0 uses 512*256-1 samples at 16 kHz." default:"0" env:"TRACKPOOL_SPEED_TARGET"`
	MinStep     int           `help:"Lowest semitone step drawn for speed chunks." default:"-3" env:"TRACKPOOL_MIN_STEP"`
	MaxStep     int           `help:"Highest semitone step drawn for speed chunks." default:"3" env:"TRACKPOOL_MAX_STEP"`
	Rate        int           `help:"Resample every track to this rate in Hz; 0 keeps the source rate." default:"0" env:"TRACKPOOL_RATE"`
	Mono        bool          `help:"Downmix every track to one channel." env:"TRACKPOOL_MONO"`
	Retries     int           `help:"Fetch attempts per track, counting the first." default:"1" env:"TRACKPOOL_RETRIES"`
	Timeout     time.Duration `help:"Time to wait for response headers." default:"30s" env:"TRACKPOOL_HEADER_TIMEOUT"`
	Dump        string        `help:"Write every completed track as a 16-bit WAV into this directory." type:"existingdir" placeholder:"DIR"`
	Quiet       bool          `short:"q" help:"Do not print chunk lines."`

	LogLevel string           `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"TRACKPOOL_LOG_LEVEL"`
	NoColor  bool             `help:"Disable colored log output." env:"NO_COLOR"`
	Version  kong.VersionFlag `help:"Show version information."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("trackpool"),
		kong.Description("Download audio tracks concurrently and stream them as PCM."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	log := newLogger(cli.LogLevel, cli.NoColor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.FatalIfErrorf(run(ctx, &cli, os.Stdout, log))
}

func newLogger(level string, noColor bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}).Level(lvl).With().Timestamp().Logger()
}

func run(ctx context.Context, cli *CLI, out io.Writer, log zerolog.Logger) error {
	f, err := fetch.NewHTTP(fetch.Config{
		HeaderTimeout: cli.Timeout,
		UserAgent:     "trackpool/" + version,
	})
	if err != nil {
		return err
	}

	opts := []pool.Option{
		pool.WithFetcher(f),
		pool.WithLogger(log),
		pool.WithBufferSize(cli.Buffer),
		pool.WithChunkFrames(cli.ChunkFrames),
		pool.WithTargetSampleRate(cli.Rate),
		pool.WithRetry(cli.Retries, 0),
	}
	if cli.Mono {
		opts = append(opts, pool.WithMono())
	}
	if cli.Speed {
		opts = append(opts, pool.WithSpeed(cli.SpeedTarget, cli.MinStep, cli.MaxStep))
	}

	p, err := trackpool.New(ctx, cli.Limit, cli.URLs, opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	d := newDumper(cli.Dump, log)
	defer d.close()

	for {
		c, err := p.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}

		var perr *pool.PoolError
		if errors.As(err, &perr) && perr.Track >= 0 {
			fmt.Fprintf(out, "track=%d failed kind=%s\n", perr.Track, perr.Kind)
			d.discard(perr.Track)
			continue
		}
		if err != nil {
			return err
		}

		if !cli.Quiet {
			fmt.Fprintf(out, "track=%d seq=%d frames=%d channels=%d rate=%d duration=%v final=%v",
				c.Track, c.Seq, c.Frames(), c.Channels, c.SampleRate, c.Duration(), c.Final)
			if cli.Speed {
				fmt.Fprintf(out, " step=%d speed=%.4f", c.StepFactor, c.SpeedFactor)
			}
			fmt.Fprintln(out)
		}
		if err := d.write(c); err != nil {
			return err
		}
	}

	st := p.Stats()
	log.Info().
		Int("completed", st.Completed).
		Int("failed", st.Failed).
		Int("chunks", st.Chunks).
		Int("peak_active", st.PeakActive).
		Int("peak_buffered", st.PeakBuffered).
		Msg("done")

	if st.Failed > 0 {
		return fmt.Errorf("%d of %d tracks failed", st.Failed, st.Total)
	}
	return nil
}
