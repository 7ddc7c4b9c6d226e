// Package player drives a karaoke display from the wall clock.
// No audio is produced; the display is refreshed at a fixed interval as if
// the song were playing.
package player

import (
	"context"
	"log/slog"
	"time"

	"github.com/zurustar/kmidi/pkg/karaoke"
	"github.com/zurustar/kmidi/pkg/logger"
)

// DefaultInterval is the default refresh interval.
const DefaultInterval = 100 * time.Millisecond

// DefaultTail is how long the player keeps running after the last syllable.
const DefaultTail = 2 * time.Second

// Renderer shows the display lines for playback time t in seconds.
type Renderer interface {
	Render(t float64, lines [karaoke.NumLines]karaoke.Line) error
}

// Player periodically updates a Display and hands changed lines to a Renderer.
type Player struct {
	display  *karaoke.Display
	renderer Renderer
	interval time.Duration
	tail     time.Duration
	start    float64
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithInterval sets the refresh interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTail sets how long to run after the last syllable.
func WithTail(d time.Duration) Option {
	return func(p *Player) {
		if d >= 0 {
			p.tail = d
		}
	}
}

// WithStart starts playback at the given song position in seconds.
func WithStart(seconds float64) Option {
	return func(p *Player) {
		if seconds > 0 {
			p.start = seconds
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Player) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Player for d rendering through r.
func New(d *karaoke.Display, r Renderer, opts ...Option) *Player {
	p := &Player{
		display:  d,
		renderer: r,
		interval: DefaultInterval,
		tail:     DefaultTail,
		now:      time.Now,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the refresh interval.
func (p *Player) Interval() time.Duration {
	return p.interval
}

// Run plays from the start position until the song is over or ctx is done.
// It returns ctx.Err() when cancelled and nil when the song ended.
func (p *Player) Run(ctx context.Context) error {
	p.display.Reset()
	end := p.display.End() + p.tail.Seconds()
	begin := p.now()

	p.log.Info("Playback started", "start", p.start, "end", end, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last [karaoke.NumLines]karaoke.Line
	first := true
	for {
		t := p.start + p.now().Sub(begin).Seconds()
		p.display.Update(t)

		if lines := p.display.Lines(); first || lines != last {
			if err := p.renderer.Render(t, lines); err != nil {
				return err
			}
			last, first = lines, false
		}

		if t >= end {
			p.log.Info("Playback finished", "time", t)
			return nil
		}

		select {
		case <-ctx.Done():
			p.log.Info("Playback stopped", "time", t, "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
