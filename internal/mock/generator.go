// Package mock simulates running games for frontend development on machines
// without Lutris. Synthetic sessions write plausible Wine and Proton log
// lines through the real capture pipeline, so clients see the same buffers,
// chunks and topics a real launch produces.
package mock

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gamedock/backend/internal/logbuf"
)

type mockGame struct {
	slug    string
	pattern string
	// linesPerTick controls output volume for the steady pattern.
	linesPerTick int

	w *io.PipeWriter
}

var wineLines = []string{
	"wine: Starting process (binary type 64-bit)",
	"fsync: up and running.",
	"wine: RLIMIT_NICE is <= 20, unable to use setpriority safely",
	"Setting breakpad minidump AppID = 1245620",
	"Adding process 1337 for game ID 1245620",
	"pressure-vessel-wrap[2219]: W: Most of /etc is hidden",
	"Fossilize INFO: Setting up async thread for database.",
	"MESA: info: Lossless compression enabled",
	"DXVK: Using 16 compiler threads",
	"info:  Game: eldenring.exe",
	"info:  Found built-in config:",
	"warn:  OpenVR: Failed to locate module",
	"ShaderCache: misses=12 hits=3410",
	"GamepadChanged: 0 gamepads",
	"esync: up and running.",
}

type Generator struct {
	registry *logbuf.Registry
	sink     logbuf.Sink
	games    []*mockGame
	tick     time.Duration
}

func NewGenerator(registry *logbuf.Registry, sink logbuf.Sink) *Generator {
	return &Generator{
		registry: registry,
		sink:     sink,
		tick:     500 * time.Millisecond,
	}
}

// SetTick overrides the line emission interval. Must be called before Start.
func (g *Generator) SetTick(d time.Duration) {
	if d > 0 {
		g.tick = d
	}
}

// Start registers the synthetic sessions and begins emitting log lines into
// their pipelines. Emission stops when ctx is cancelled; each pipeline then
// drains and closes exactly as on game exit.
func (g *Generator) Start(ctx context.Context) {
	g.games = []*mockGame{
		{slug: "mock-elden-ring", pattern: "steady", linesPerTick: 3},
		{slug: "mock-celeste", pattern: "burst"},
		{slug: "mock-hades", pattern: "quiet"},
	}

	for _, mg := range g.games {
		buf := g.registry.GetOrCreate(mg.slug)
		s := logbuf.NewStreamer(mg.slug, buf, g.sink)

		pr, pw := io.Pipe()
		mg.w = pw
		s.Stream(pr)
	}

	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			for _, mg := range g.games {
				mg.w.Close()
			}
			return
		case <-ticker.C:
			tick++
			for _, mg := range g.games {
				g.emit(mg, tick)
			}
		}
	}
}

func (g *Generator) emit(mg *mockGame, tick int) {
	n := 0
	switch mg.pattern {
	case "steady":
		n = mg.linesPerTick + rand.Intn(2)
	case "burst":
		// Long silence, then a shader-compilation style burst.
		if tick%10 == 0 {
			n = 15 + rand.Intn(10)
		}
	case "quiet":
		if tick%6 == 0 {
			n = 1
		}
	}

	for i := 0; i < n; i++ {
		line := wineLines[rand.Intn(len(wineLines))]
		fmt.Fprintf(mg.w, "[%s] %s\n", mg.slug, line)
	}
}
