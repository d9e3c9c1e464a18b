package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"

	"github.com/cellforge/cellcore/config"
	"github.com/cellforge/cellcore/console"
	"github.com/cellforge/cellcore/memory"
	"github.com/cellforge/cellcore/runner"
	"github.com/cellforge/cellcore/util/debug"
	"github.com/cellforge/cellcore/util/logger"
)

var Logger *slog.Logger

// nullCollaborator satisfies runner.Collaborator for configurations
// with no attached graphics/audio frontend.
type nullCollaborator struct{}

func (nullCollaborator) BeginFrame() {}
func (nullCollaborator) EndFrame()   {}

func main() {
	optConfig := getopt.StringLong("config", 'c', "cellcore.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}))
	slog.SetDefault(Logger)

	Logger.Info("cellcore started")

	cfg := config.Defaults()
	if optConfig != nil && *optConfig != "" {
		if _, err := os.Stat(*optConfig); err == nil {
			loaded, err := config.Load(*optConfig)
			if err != nil {
				Logger.Error(err.Error())
				os.Exit(1)
			}
			cfg = loaded
		} else {
			Logger.Info("no configuration file found, using defaults", "path", *optConfig)
		}
	}

	if err := debug.Open(cfg.LogFile); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	debug.Enable(cfg.DebugOpts...)

	userBase := uint32(0x0002_0000)
	userSize := cfg.MemorySize
	regions := []memory.Region{
		{Name: "main", Base: 0x0001_0000, Size: 0x1_0000, Flags: memory.PermRead | memory.PermWrite | memory.PermExecute},
		{Name: "user", Base: userBase, Size: userSize, Flags: memory.PermRead | memory.PermWrite | memory.PermExecute},
		{Name: "stack", Base: 0xD000_0000 - 0x10_0000, Size: 0x10_0000, Flags: memory.PermRead | memory.PermWrite},
		{Name: "rsx-vram", Base: 0xC000_0000, Size: 256 * 1024 * 1024, Flags: memory.PermMMIO},
	}
	mem := memory.NewSpace(userBase, userSize, regions)

	frameInterval := time.Second / time.Duration(cfg.FrameRateHz)
	r := runner.New(mem, runner.Config{
		MicroQuantaPerFrame: cfg.Quantum,
		FrameInterval:       frameInterval,
	}, Logger)

	Logger.Info("address space committed",
		"memory", cfg.MemorySize, "spus", cfg.SPUCount, "quantum", cfg.Quantum, "frame-rate", cfg.FrameRateHz)

	pacer := runner.NewPacer(r, nullCollaborator{}, frameInterval)
	pacer.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	consoleDone := make(chan struct{})
	go func() {
		console.Run(r)
		close(consoleDone)
	}()

	select {
	case <-sigChan:
		fmt.Println("got quit signal")
	case <-consoleDone:
	}

	Logger.Info("shutting down")
	pacer.Shutdown()
	Logger.Info("stopped")
}
