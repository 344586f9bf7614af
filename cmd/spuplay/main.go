// Command spuplay drives the SPU core directly from a register-write trace
// and plays the resulting stereo stream through the host's SDL2 audio
// device, primarily useful for smoke-testing the core end to end.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"nitrospu/internal/clock"
	"nitrospu/internal/config"
	"nitrospu/internal/debug"
	"nitrospu/internal/hostaudio"
	"nitrospu/internal/savestate"
	"nitrospu/internal/spu"
	"nitrospu/internal/wavdump"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "TOML config file (defaults applied if absent)")
		tracePath  = pflag.StringP("trace", "t", "", "register write trace: lines of 'offset value' in hex")
		framesFlag = pflag.IntP("frames", "n", 44100, "number of output frames to produce")
		loadState  = pflag.StringP("load-state", "l", "", "save-state file to restore before running")
		saveState  = pflag.StringP("save-state", "s", "", "save-state file to write after running")
		noAudio    = pflag.BoolP("no-audio", "N", false, "discard output instead of opening an SDL audio device")
	)
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "spuplay:", err)
			os.Exit(1)
		}
	}

	registry := debug.NewRegistry(os.Stderr, debug.LevelInfo)
	registry.Enable(debug.ComponentSPU, true)

	core := spu.New()
	core.Reset()
	core.Logger = registry.For(debug.ComponentSPU)

	if *loadState != "" {
		if err := savestate.Load(*loadState, core); err != nil {
			fmt.Fprintln(os.Stderr, "spuplay:", err)
			os.Exit(1)
		}
	}

	if *tracePath != "" {
		if err := applyTrace(core, *tracePath); err != nil {
			fmt.Fprintln(os.Stderr, "spuplay:", err)
			os.Exit(1)
		}
	}

	if cfg.DumpPath != "" {
		dump := &wavdump.Writer{}
		if err := dump.Open(cfg.DumpPath, cfg.SampleRate, 2); err != nil {
			fmt.Fprintln(os.Stderr, "spuplay:", err)
			os.Exit(1)
		}
		defer dump.Close()
		core.Dump = dumpAdapter{dump}
	}

	var sink hostaudio.Sink = hostaudio.NullSink{}
	if !*noAudio {
		sdlSink, err := hostaudio.OpenSDLSink(cfg.SampleRate, 4096)
		if err != nil {
			fmt.Fprintln(os.Stderr, "spuplay: falling back to silent output:", err)
		} else {
			defer sdlSink.Close()
			sink = sdlSink
		}
	}

	sched := clock.NewScheduler(core, sink)
	sched.RunFrames(*framesFlag)

	if *saveState != "" {
		if err := savestate.Save(*saveState, core); err != nil {
			fmt.Fprintln(os.Stderr, "spuplay:", err)
			os.Exit(1)
		}
	}
}

// dumpAdapter satisfies spu.DumpWriter by flattening [2]int16 frames into
// wavdump's interleaved []int16 stream.
type dumpAdapter struct{ w *wavdump.Writer }

func (d dumpAdapter) WriteFrames(frames [][2]int16) error {
	flat := make([]int16, 0, len(frames)*2)
	for _, f := range frames {
		flat = append(flat, f[0], f[1])
	}
	return d.w.WriteFrames(flat)
}

// applyTrace replays a text trace of "offset value" hex pairs (one register
// write per line, blank lines and '#' comments ignored) against the core.
func applyTrace(core *spu.SPU, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return fmt.Errorf("trace line %d: expected 'offset value', got %q", line, text)
		}
		offset, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 32)
		if err != nil {
			return fmt.Errorf("trace line %d: bad offset: %w", line, err)
		}
		value, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 16)
		if err != nil {
			return fmt.Errorf("trace line %d: bad value: %w", line, err)
		}
		core.WriteRegister(uint32(offset), uint16(value))
	}
	return scanner.Err()
}
