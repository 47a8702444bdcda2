package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/tabcore/internal/api"
	"github.com/dgnsrekt/tabcore/internal/browser"
	"github.com/dgnsrekt/tabcore/internal/chromium"
	"github.com/dgnsrekt/tabcore/internal/config"
	"github.com/dgnsrekt/tabcore/internal/controller"
	"github.com/dgnsrekt/tabcore/internal/engine"
	"github.com/dgnsrekt/tabcore/internal/engine/cdpengine"
	"github.com/dgnsrekt/tabcore/internal/events"
	"github.com/dgnsrekt/tabcore/internal/memory"
	"github.com/dgnsrekt/tabcore/internal/netutil"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load browser config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("browser config loaded",
		"engine", cfg.Engine,
		"cdp", cfg.UseCDP(),
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"history_size", cfg.HistorySize,
		"nav_timeout", cfg.NavTimeout,
		"strict_accounting", cfg.StrictAccounting,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	bindAddr := ln.Addr().String()

	eng, cleanupEngine, err := buildEngine(cfg)
	if err != nil {
		_ = ln.Close()
		slog.Error("failed to start engine", "error", err)
		os.Exit(1)
	}
	defer cleanupEngine()

	var poolOpts []memory.Option
	if cfg.StrictAccounting {
		poolOpts = append(poolOpts, memory.WithStrict())
	}
	broker := events.NewBroker()
	b := browser.New(eng,
		browser.WithPool(memory.NewPool(poolOpts...)),
		browser.WithHistorySize(cfg.HistorySize),
		browser.WithSessionHistorySize(cfg.SessionHistorySize),
		browser.WithNavigationTimeout(cfg.NavTimeout),
		browser.WithPublisher(broker),
	)

	svc := controller.NewService(b).WithSearchURL(cfg.SearchURL)
	openStartupTabs(svc, cfg.StartupTabsPath)

	h := api.NewServer(svc, broker)
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		slog.Info("browser listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("browser server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	broker.Close()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("browser shutdown failed", "error", err)
	}
	b.Close(ctx)
}

// buildEngine returns the CDP engine when configured, otherwise the
// simulated kind. The cleanup func is always non-nil.
func buildEngine(cfg *config.Config) (engine.Engine, func(), error) {
	if !cfg.UseCDP() {
		kind := engine.ParseKind(cfg.Engine)
		slog.Info("using simulated engine", "kind", kind, "load_latency", cfg.LoadLatency)
		return engine.New(kind, engine.WithLoadLatency(cfg.LoadLatency)), func() {}, nil
	}

	cdpURL := cfg.CDPURL
	var launcher *chromium.Launcher
	if cfg.LaunchChromium {
		launcher = chromium.NewLauncher(chromium.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			ProfileDir: cfg.ProfileDir,
			Headless:   true,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := launcher.Launch(ctx)
		cancel()
		if err != nil {
			return nil, nil, err
		}
		if cdpURL == "" {
			cdpURL = launcher.CDPURL()
		}
	}

	remote, err := cdpengine.New(cdpURL)
	if err != nil {
		if launcher != nil {
			launcher.Stop()
		}
		return nil, nil, err
	}
	return remote, func() {
		remote.Close()
		if launcher != nil {
			launcher.Stop()
		}
	}, nil
}

func openStartupTabs(svc *controller.Service, path string) {
	tabsCfg, err := config.LoadStartupTabs(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no startup tabs file", "path", path)
			return
		}
		slog.Warn("startup tabs skipped", "path", path, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	opened := openTabs(ctx, svc, tabsCfg.Tabs, "")
	slog.Info("startup tabs opened", "count", opened, "path", path)
}

// openTabs creates each tab blank, then navigates it so the engine loads the
// page. It returns how many tabs were created.
func openTabs(ctx context.Context, svc *controller.Service, tabs []config.StartupTab, parentID string) int {
	opened := 0
	activeID := ""
	for _, t := range tabs {
		info, err := svc.CreateTab(ctx, "", parentID)
		if err != nil {
			slog.Warn("startup tab create failed", "url", t.URL, "error", err)
			continue
		}
		opened++
		if _, err := svc.Navigate(ctx, info.ID, t.URL); err != nil {
			slog.Warn("startup tab navigation failed", "tab_id", info.ID, "url", t.URL, "error", err)
		}
		if t.Active {
			activeID = info.ID
		}
		opened += openTabs(ctx, svc, t.Children, info.ID)
	}
	if activeID != "" {
		if _, err := svc.SetActiveTab(ctx, activeID); err != nil {
			slog.Warn("startup active tab failed", "tab_id", activeID, "error", err)
		}
	}
	return opened
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
