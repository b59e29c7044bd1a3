package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"colourclock/internal/colourclock"
	"colourclock/internal/config"
	"colourclock/internal/display/raster"
	"colourclock/internal/display/window"
	"colourclock/internal/display/x11"
	appLog "colourclock/internal/log"
	"colourclock/internal/model"
	"colourclock/internal/preview"
	"colourclock/internal/resource"
	"colourclock/internal/screenhack"
	"colourclock/internal/web"
)

func init() {
	if err := screenhack.Register(colourclock.Module); err != nil {
		panic(err)
	}
}

// flagConfig holds CLI flag values. Host flags override the config file
// only when given; module options go to cli.
type flagConfig struct {
	configPath string
	module     string
	backend    string
	display    string
	root       bool
	windowID   uint
	frames     int
	listen     string
	logLevel   string
	snapshot   bool
	list       bool

	set map[string]bool
	cli *resource.DB
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.list {
		for _, name := range screenhack.Modules() {
			fmt.Println(name)
		}
		return
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	flags.apply(conf)
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	m, err := screenhack.Lookup(conf.Module)
	if err != nil {
		appLog.Error("unknown module", err, "available", screenhack.Modules())
		os.Exit(2)
	}
	db := m.Resources(conf.Resources)
	for _, name := range flags.cli.Names() {
		v, _ := flags.cli.String(name)
		db.Set(name, v)
	}

	appLog.Info("effective config",
		"module", m.Name,
		"backend", conf.Backend,
		"size", fmt.Sprintf("%dx%d", conf.Width, conf.Height),
		"frames", conf.Frames,
		"preview_schedule", conf.Preview.Schedule,
		"listen", conf.Listen,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	rec := model.NewRecorder(m.Name, conf.Backend)
	if err := run(ctx, conf, m, db, rec, flags.snapshot); err != nil {
		appLog.Error("run failed", err, "backend", conf.Backend)
		os.Exit(1)
	}
	appLog.Info("colourclock exiting", "frames", rec.Snapshot().Frames)
}

func parseFlags(args []string) flagConfig {
	cfg := flagConfig{cli: resource.New()}
	fs := flag.NewFlagSet("colourclock", flag.ExitOnError)

	fs.StringVar(&cfg.configPath, "config", config.DefaultPath(), "Path to config file")
	fs.StringVar(&cfg.module, "module", "", "Module to run (see -list)")
	fs.StringVar(&cfg.backend, "backend", "", "Display backend: window, x11 or headless")
	fs.StringVar(&cfg.display, "display", "", "X display name (x11 backend)")
	fs.BoolVar(&cfg.root, "root", false, "Draw on the root window (x11 backend)")
	fs.UintVar(&cfg.windowID, "window-id", 0, "Draw into an existing X window (x11 backend)")
	fs.IntVar(&cfg.frames, "frames", 0, "Stop after this many frames (0 = until stopped)")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info or error")
	fs.BoolVar(&cfg.snapshot, "snapshot", false, "Write a preview PNG when the run ends")
	fs.BoolVar(&cfg.list, "list", false, "List available modules and exit")

	// Resources common to every module.
	cfg.cli.Bind(fs, []resource.Option{
		{Flag: "font", Resource: ".font", Usage: "font name or pattern"},
		{Flag: "fg", Resource: ".foreground", Usage: "foreground colour"},
		{Flag: "foreground", Resource: ".foreground", Usage: "foreground colour"},
	})
	for _, name := range screenhack.Modules() {
		m, err := screenhack.Lookup(name)
		if err != nil {
			continue
		}
		cfg.cli.Bind(fs, m.Options)
	}

	_ = fs.Parse(args)

	cfg.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })
	return cfg
}

// apply copies explicitly given host flags over conf.
func (f flagConfig) apply(conf *config.Config) {
	if f.set["module"] {
		conf.Module = f.module
	}
	if f.set["backend"] {
		conf.Backend = f.backend
	}
	if f.set["display"] {
		conf.Display = f.display
	}
	if f.set["root"] {
		conf.Root = f.root
	}
	if f.set["window-id"] {
		conf.WindowID = uint32(f.windowID)
	}
	if f.set["frames"] {
		conf.Frames = f.frames
	}
	if f.set["listen"] {
		conf.Listen = f.listen
	}
	if f.set["log-level"] {
		conf.LogLevel = f.logLevel
	}
	conf.Normalize()
}

// snapshotDisplay is a Display that can also be read back for previews.
type snapshotDisplay interface {
	screenhack.Display
	preview.Snapshotter
}

func run(ctx context.Context, conf *config.Config, m screenhack.Module, db *resource.DB, rec *model.Recorder, snapshot bool) error {
	switch conf.Backend {
	case config.BackendX11:
		d, err := x11.Open(x11.Options{
			Display:  conf.Display,
			Root:     conf.Root,
			WindowID: conf.WindowID,
			Width:    conf.Width,
			Height:   conf.Height,
			Title:    m.Name,
		})
		if err != nil {
			return err
		}
		defer d.Close()

		startServices(ctx, conf, d, rec)
		err = screenhack.Run(ctx, screenhack.RunConfig{
			Module:    m,
			Display:   d,
			Window:    d.Window(),
			Resources: db,
			Events:    d.Events(),
			MaxFrames: conf.Frames,
			Recorder:  rec,
		})
		return finish(err, conf, d, snapshot)

	case config.BackendHeadless:
		d, err := raster.New(raster.Options{Width: conf.Width, Height: conf.Height})
		if err != nil {
			return err
		}
		defer d.Close()

		startServices(ctx, conf, d, rec)
		err = screenhack.Run(ctx, screenhack.RunConfig{
			Module:    m,
			Display:   d,
			Window:    raster.RootWindow,
			Resources: db,
			MaxFrames: conf.Frames,
			Recorder:  rec,
		})
		return finish(err, conf, d, snapshot)

	case config.BackendWindow:
		d, err := raster.New(raster.Options{Width: conf.Width, Height: conf.Height})
		if err != nil {
			return err
		}
		defer d.Close()

		startServices(ctx, conf, d, rec)
		err = window.Run(ctx, window.Config{
			Module:     m,
			Display:    d,
			Resources:  db,
			Recorder:   rec,
			Title:      m.Name,
			Fullscreen: conf.Fullscreen,
			MaxFrames:  conf.Frames,
		})
		return finish(err, conf, d, snapshot)
	}
	return fmt.Errorf("unknown backend %q", conf.Backend)
}

// startServices launches the preview schedule and the web server when
// configured. Both stop when ctx is cancelled.
func startServices(ctx context.Context, conf *config.Config, d snapshotDisplay, rec *model.Recorder) {
	if conf.Preview.Schedule != "" {
		w := preview.NewWriter(conf.Preview.Path, d)
		if err := preview.Schedule(ctx, conf.Preview.Schedule, w); err != nil {
			appLog.Error("preview schedule disabled", err)
		}
	}
	if conf.Listen != "" {
		go func() {
			if err := web.StartServer(ctx, conf, rec); err != nil {
				appLog.Error("HTTP server failed", err, "listen", conf.Listen)
			}
		}()
	}
}

// finish writes the final snapshot if asked, keeping the run error first.
func finish(runErr error, conf *config.Config, d snapshotDisplay, snapshot bool) error {
	if !snapshot {
		return runErr
	}
	if err := preview.NewWriter(conf.Preview.Path, d).WriteOnce(); err != nil {
		return errors.Join(runErr, err)
	}
	appLog.Info("snapshot written", "path", conf.Preview.Path)
	return runErr
}
