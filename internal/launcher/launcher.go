// Package launcher starts games through Lutris and wires their output into
// the in-memory log pipeline.
package launcher

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/gamedock/backend/internal/logbuf"
	"github.com/gamedock/backend/internal/lutris"
)

// Launcher spawns game processes and captures their output.
type Launcher struct {
	install  *lutris.Install
	registry *logbuf.Registry
	sink     logbuf.Sink

	tick    time.Duration
	chanCap int
}

func New(install *lutris.Install, registry *logbuf.Registry, sink logbuf.Sink) *Launcher {
	return &Launcher{
		install:  install,
		registry: registry,
		sink:     sink,
		tick:     logbuf.DefaultTickInterval,
		chanCap:  logbuf.DefaultChannelCapacity,
	}
}

// SetCaptureOptions overrides the pipeline tuning for every future launch.
func (l *Launcher) SetCaptureOptions(tick time.Duration, chanCap int) {
	if tick > 0 {
		l.tick = tick
	}
	if chanCap > 0 {
		l.chanCap = chanCap
	}
}

// Launch starts the game with the given slug via Lutris and begins capturing
// its stdout and stderr into the slug's shared buffer. It returns the PID as
// soon as the process is started; it never waits for the game to exit.
func (l *Launcher) Launch(slug string) (int, error) {
	cmd := l.install.Command(lutris.RunGameURI(slug))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("capture stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("capture stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch %s: %w", slug, err)
	}
	pid := cmd.Process.Pid
	log.Printf("launched %s via %s (pid %d)", slug, l.install.Description(), pid)

	buf := l.registry.GetOrCreate(slug)

	outStream := logbuf.NewStreamer(slug, buf, l.sink)
	errStream := logbuf.NewStreamer(slug, buf, l.sink)
	for _, s := range []*logbuf.Streamer{outStream, errStream} {
		s.SetTickInterval(l.tick)
		s.SetChannelCapacity(l.chanCap)
	}
	outStream.Stream(stdout)
	errStream.Stream(stderr)

	// Reap after both pipelines have drained; calling Wait earlier would
	// close the pipes out from under the readers.
	go func() {
		<-outStream.Done()
		<-errStream.Done()
		if err := cmd.Wait(); err != nil {
			log.Printf("%s exited: %v", slug, err)
		} else {
			log.Printf("%s exited", slug)
		}
	}()

	return pid, nil
}

// Running reports whether the game appears to be running, either as a
// Lutris process mentioning the slug or as the game's own executable.
func (l *Launcher) Running(slug, executable string) (bool, error) {
	procs, err := process.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	exeName := ""
	if executable != "" {
		exeName = filepath.Base(executable)
	}

	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		if strings.Contains(cmdline, "lutris") && strings.Contains(cmdline, slug) {
			return true, nil
		}
		if exeName != "" && strings.Contains(cmdline, exeName) {
			return true, nil
		}
	}
	return false, nil
}
