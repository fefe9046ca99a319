package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"itsrazy/internal/config"
	"itsrazy/internal/export"
	"itsrazy/internal/feed"
	"itsrazy/internal/ics"
	appLog "itsrazy/internal/log"
	"itsrazy/internal/source"
	"itsrazy/internal/web"
)

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath string
	dataDir    string
	listen     string
	once       bool
	importICS  string
	seriesPath string
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	applyFlags(conf, flags)

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("itsrazy starting", "version", "0.1.0")

	if flags.importICS != "" {
		runImport(flags)
		return
	}

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "timezone", conf.Timezone)
	}

	dataDir := conf.DataDir
	if dataDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			appLog.Error("failed to get working directory", err)
			os.Exit(1)
		}
		dataDir, err = source.FindDataDir(wd)
		if err != nil {
			appLog.Error("failed to locate data directory", err, "start", wd)
			os.Exit(1)
		}
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_dir", dataDir,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"output_dir", conf.OutputDir,
		"horizon_days", conf.HorizonDays,
		"snapshot", conf.Snapshot.Enabled,
		"once", flags.once,
	)

	pipeline := feed.Pipeline{
		DataDir:     dataDir,
		Location:    loc,
		HorizonDays: conf.HorizonDays,
	}
	exportOpts := export.Options{
		Pipeline:       pipeline,
		OutputDir:      conf.OutputDir,
		SiteTitle:      conf.SiteTitle,
		SnapshotWidth:  conf.Snapshot.Width,
		SnapshotHeight: conf.Snapshot.Height,
	}
	if conf.Snapshot.Enabled && !flags.once {
		// The snapshot renders the page served by this process.
		exportOpts.SnapshotURL = "http://" + conf.Listen + "/"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.once {
		if _, err := export.Run(ctx, exportOpts, time.Now()); err != nil {
			appLog.Error("export failed", err)
			os.Exit(1)
		}
		return
	}

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if _, err := export.Run(ctx, exportOpts, time.Now()); err != nil {
			appLog.Error("scheduled export failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	srv := web.NewServer(pipeline, conf.SiteTitle)
	if err := srv.ListenAndServe(ctx, conf.Listen); err != nil {
		appLog.Error("http server failed", err)
		cancel()
	}

	appLog.Info("itsrazy exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./itsrazy.yaml", "Path to config file")
	flag.StringVar(&cfg.dataDir, "data", "", "Directory with series YAML files (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one export and exit")
	flag.StringVar(&cfg.importICS, "import", "", "Pre-fetched meetup.com .ics file to merge into -series")
	flag.StringVar(&cfg.seriesPath, "series", "", "Series YAML file updated by -import")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func applyFlags(conf *config.Config, flags flagConfig) {
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
}

func runImport(flags flagConfig) {
	if flags.seriesPath == "" {
		appLog.Error("missing -series for -import", nil)
		os.Exit(2)
	}
	res, err := ics.ImportFile(flags.importICS, flags.seriesPath)
	if err != nil {
		appLog.Error("import failed", err, "ics", flags.importICS, "series", flags.seriesPath)
		os.Exit(1)
	}
	appLog.Info("import done", "added", res.Added, "updated", res.Updated)
}
