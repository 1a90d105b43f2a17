package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/gpu"
	"github.com/gekko3d/particles/gpu/wgpubackend"
	"github.com/gekko3d/particles/instrument"
)

func init() {
	runtime.LockOSThread()
}

type options struct {
	configPath string
	batch      bool
	useGPU     bool
	debug      bool
	frames     int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a .toml or .yaml config file")
	flag.BoolVar(&opts.batch, "batch", false, "Upload all transforms and dispatch once per frame")
	flag.BoolVar(&opts.useGPU, "gpu", false, "Render through a headless WebGPU device")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.IntVar(&opts.frames, "frames", 0, "Stop after this many frames (0 = until sampling completes)")
	dt := flag.Duration("dt", 0, "Fixed frame step (0 = wall clock)")
	flag.Parse()

	cfg := particles.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := particles.LoadConfig(opts.configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if opts.batch {
		cfg.UseBatch = true
	}
	if opts.debug {
		cfg.Logging.Debug = true
	}

	logger := particles.NewDefaultLogger(cfg.Logging.Prefix, cfg.Logging.Debug)
	if err := run(cfg, opts, particles.NewFrameClock(*dt), logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg particles.Config, opts options, clock *particles.FrameClock, logger particles.Logger) error {
	fpsLog, err := instrument.CreateLog(cfg.Output.FPSLog)
	if err != nil {
		return err
	}
	defer fpsLog.Close()
	cpuLog, err := instrument.CreateLog(cfg.Output.CPULog)
	if err != nil {
		return err
	}
	defer cpuLog.Close()
	gpuLog, err := instrument.CreateLog(cfg.Output.GPULog)
	if err != nil {
		return err
	}
	defer gpuLog.Close()

	system := particles.NewParticleSystemBuilder().
		FromConfig(cfg).
		WithLogger(logger).
		Build()
	defer system.Release()
	camera := cfg.Camera.NewCamera()

	var (
		provider gpu.ResourceProvider
		reporter gpu.MemoryReporter
	)
	if opts.useGPU {
		device, err := wgpubackend.Open(logger)
		if err != nil {
			return err
		}
		defer device.Close()
		if err := system.Initialize(device); err != nil {
			return fmt.Errorf("initialize particle system: %w", err)
		}
		provider, reporter = device, device
	}

	frames := instrument.NewFrameSampler(fpsLog, cfg.Samples, logger)
	memory := instrument.NewMemorySampler(cpuLog, gpuLog, reporter, logger)
	profiler := instrument.NewProfiler()
	stats := &frameStats{}

	logger.Infof("starting run %s: %d particles, batch=%t, gpu=%t",
		frames.RunID(), system.Len(), cfg.UseBatch, provider != nil)

	n := 0
	for opts.frames <= 0 || n < opts.frames {
		delta := clock.Tick()
		if !frames.Update(delta) {
			break
		}

		profiler.Time("update", func() {
			system.Update(delta, camera, frames, memory)
		})

		if provider != nil {
			stats.reset()
			profiler.BeginScope("render")
			err := system.Render(stats, provider, stats, camera, cfg.UseBatch)
			profiler.EndScope("render")
			if err != nil {
				logger.Warnf("frame %d: %v", n, err)
			}
			profiler.SetCount("draws", stats.draws)
			profiler.SetCount("dispatches", stats.dispatches)
		}
		profiler.SetCount("particles", system.Len())
		n++
	}

	logger.Infof("finished run %s after %d frames with %d particles", frames.RunID(), n, system.Len())
	fmt.Print(profiler.String())
	return nil
}
