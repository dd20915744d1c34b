package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/dispatcher"
	"github.com/animtools/timewarp/internal/handlers"
	"github.com/animtools/timewarp/internal/logging"
	"github.com/animtools/timewarp/internal/monitor"
	"github.com/animtools/timewarp/internal/parser"
	"github.com/animtools/timewarp/internal/project"
	"github.com/animtools/timewarp/internal/provider/memory"
	"github.com/animtools/timewarp/internal/session"
	"github.com/animtools/timewarp/internal/storage"
	"github.com/animtools/timewarp/internal/telemetry"
)

// version defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	ToolName string = "timewarp"
)

var (
	LogManager *logging.Manager
	Logger     *slog.Logger

	projectCtx     *project.Context
	storageBackend storage.Backend
	telemetryMgr   *telemetry.Manager
	sess           *session.Session
)

func main() {
	var (
		configDir   = flag.String("config", ".", "directory containing timewarp.cfg.json")
		fixturePath = flag.String("fixture", "", "document fixture JSON file")
		scriptPath  = flag.String("script", "", "input event script JSON file")
		outPath     = flag.String("out", "", "path for the retimed document JSON")
		projectName = flag.String("project", "untitled", "project name for storage scoping")
		clipName    = flag.String("clip", "", "clip name for storage scoping")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", ToolName, CurrentVersion, BuildDate)
		return
	}
	if *fixturePath == "" || *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "usage: timewarp -fixture doc.json -script events.json [-out result.json]")
		os.Exit(2)
	}

	if err := run(*configDir, *fixturePath, *scriptPath, *outPath, *projectName, *clipName); err != nil {
		fmt.Fprintln(os.Stderr, "timewarp:", err)
		os.Exit(1)
	}
}

func run(configDir, fixturePath, scriptPath, outPath, projectName, clipName string) error {
	start := time.Now()

	if err := config.Load(configDir); err != nil {
		fmt.Fprintln(os.Stderr, "timewarp: no config file, using defaults:", err)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	var logFile io.Writer
	f, err := os.Create(logging.LogFilePath(logsDir, ToolName, start))
	if err == nil {
		defer f.Close()
		logFile = f
	}

	LogManager = logging.NewManager()
	LogManager.Setup(logFile, config.GetString("logLevel"), func() []slog.Attr {
		if sess == nil || !sess.Active() {
			return nil
		}
		return []slog.Attr{slog.String("session", sess.ID())}
	})
	Logger = LogManager.Logger()
	Logger.Info("Starting up", "version", CurrentVersion, "buildDate", BuildDate)

	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	doc, err := memory.Load(fixturePath)
	if err != nil {
		return err
	}
	if clipName != "" {
		doc.SetCurrentClip(clipName)
	}

	projectCtx = project.NewContext()

	storageBackend, err = initStorage(zlog)
	if err != nil {
		Logger.Warn("Storage backend unavailable, continuing without persistence", "error", err)
		storageBackend = nil
	} else {
		defer storageBackend.Close()
	}

	if config.GetBool("influx.enabled") {
		telemetryMgr = telemetry.NewManager(zlog, filepath.Join(logsDir, "telemetry_backup.gz"))
		if err := telemetryMgr.Connect(); err != nil {
			Logger.Warn("Telemetry connection failed, points go to the backup file", "error", err)
		}
		defer telemetryMgr.Close()
	}

	history := newDocumentHistory(doc, Logger)
	sess = session.New(session.Dependencies{
		Channels:  doc,
		Markers:   doc,
		Resolver:  doc,
		History:   history,
		Storage:   storageBackend,
		Telemetry: telemetryMgr,
		Log:       Logger,
		Project:   projectName,
		Clip:      clipName,
	}, config.GetToolConfig())
	history.Bind(sess)

	disp, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	svc := handlers.NewService(handlers.Dependencies{
		Session:    sess,
		Parser:     parser.NewParser(Logger),
		Telemetry:  telemetryMgr,
		LogManager: LogManager,
	})
	svc.RegisterAll(disp)

	mon := monitor.NewService(monitor.Dependencies{
		Session:    sess,
		Storage:    storageBackend,
		Telemetry:  telemetryMgr,
		LogManager: LogManager,
		StatusDir:  logsDir,
	})
	if err := mon.Start(); err != nil {
		Logger.Warn("Status monitor failed to start", "error", err)
	}
	defer mon.Stop()

	events, err := loadScript(scriptPath)
	if err != nil {
		return err
	}
	failed := replayScript(disp, events, Logger)
	if failed > 0 {
		Logger.Warn("Script finished with failed events", "failed", failed, "total", len(events))
	}

	// A script that drops off mid-session still produces a result.
	if sess.Active() {
		Logger.Info("Script left the session open, committing")
		if err := sess.Commit(); err != nil {
			return fmt.Errorf("final commit: %w", err)
		}
	}

	if outPath != "" {
		if err := doc.Export(outPath); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
		Logger.Info("Result written", "path", outPath)
	}

	if storageBackend != nil {
		uploadResult(storageBackend)
	}

	Logger.Info("Done", "elapsed", time.Since(start))
	return nil
}
