package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/steelhost/apexscreen/internal/config"
	"github.com/steelhost/apexscreen/internal/manager"
	"github.com/steelhost/apexscreen/internal/usb"
	"github.com/steelhost/apexscreen/pkg/apex"
)

var (
	configPath = flag.String("config", "", "path to the YAML configuration file")
	model      = flag.String("model", "", "keyboard model to drive (overrides config)")
	interval   = flag.Duration("poll-interval", 0, "hotplug poll interval (overrides config)")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn or error")
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:", path.Base(os.Args[0]), "[options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "apexscreen keeps the OLED of a SteelSeries Apex keyboard showing the")
	fmt.Fprintln(os.Stderr, "current hostname, repainting whenever the keyboard is replugged.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Known models:", apex.Models())
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *model != "" {
		cfg.Model = *model
		cfg.VendorID, cfg.ProductID = 0, 0
	}
	if *interval > 0 {
		cfg.PollInterval = config.Duration(*interval)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	})))

	info, err := cfg.Keyboard()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := usb.NewGousbBus()
	defer bus.Close()

	mgr := manager.New(bus, info)

	// Teardown order matters: the registration is closed before the bus so
	// no callback fires into a dead context.
	reg := usb.RegisterHotplug(bus, info.VendorID, info.ProductID, cfg.PollInterval.Std(), mgr)
	defer reg.Close()

	slog.Info("watching for keyboard", slog.String("keyboard", info.String()))

	mgr.Refresh()
	mgr.Run(ctx)
	return nil
}
