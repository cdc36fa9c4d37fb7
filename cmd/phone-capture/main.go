package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"jordanella.com/phone-agent-go/internal/adb"
	"jordanella.com/phone-agent-go/internal/capture"
	"jordanella.com/phone-agent-go/internal/config"
	"jordanella.com/phone-agent-go/internal/database"
	"jordanella.com/phone-agent-go/internal/events"
	"jordanella.com/phone-agent-go/internal/gesture"
	"jordanella.com/phone-agent-go/internal/logging"
)

func main() {
	if !run() {
		os.Exit(1)
	}
}

func run() bool {
	configPath := flag.String("config", "Settings.ini", "Path to config file (.ini or .yaml)")
	outPath := flag.String("out", "", "Screenshot destination (default: timestamped file in outputDir)")
	format := flag.String("format", "", "Image format: png, jpg or jpeg (default from config)")
	tap := flag.String("tap", "", "Tap at x,y instead of capturing")
	longPress := flag.String("longpress", "", "Long-press at x,y instead of capturing")
	history := flag.Int("history", 0, "Print the n most recent captures and exit")
	base64Out := flag.Bool("base64", false, "Capture to memory and print the PNG as base64 on stdout")
	repeat := flag.Int("repeat", 1, "Number of -base64 captures; repeats within the cache TTL are served from cache")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.NewLogger("phone-capture").SetMinLevel(cfg.Level()).SetOutput(os.Stderr)

	if *history > 0 {
		if err := printHistory(cfg, *history); err != nil {
			log.Fatalf("Failed to read history: %v", err)
		}
		return true
	}

	bus := events.NewEventBus(100).WithLogger(logger.Named("EventBus"))

	// Subscribers close only after the bus has drained
	var closers []func()
	defer func() {
		bus.Stop()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	if cfg.LogDir != "" {
		eventLogger, err := logging.NewEventLogger(bus, cfg.LogDir)
		if err != nil {
			logger.Warn(fmt.Sprintf("Event log disabled: %v", err))
		} else {
			closers = append(closers, func() { eventLogger.Close() })
		}
	}

	if cfg.DatabasePath != "" {
		db, err := openDatabase(cfg.DatabasePath, logger)
		if err != nil {
			logger.Warn(fmt.Sprintf("Capture history disabled: %v", err))
		} else {
			recorder := database.NewEventRecorder(db, bus, logger.Named("History"))
			closers = append(closers, func() { db.Close() }, recorder.Close)
		}
	}

	adbPath, err := adb.FindADB(cfg.ADBPath)
	if err != nil {
		logger.Error("Failed to find ADB", err)
		return false
	}

	controller := adb.NewController(adbPath, cfg.DeviceAddress()).WithTimeout(cfg.ScreencapTimeout())
	if err := controller.Connect(); err != nil {
		logger.Error(fmt.Sprintf("Failed to connect to %s", cfg.DeviceAddress()), err)
		return false
	}
	defer controller.Disconnect()

	var ok bool
	switch {
	case *tap != "":
		ok = runGesture(cfg, controller, bus, gesture.Tap, *tap)
	case *longPress != "":
		ok = runGesture(cfg, controller, bus, gesture.LongPress, *longPress)
	case *base64Out:
		service := newCaptureService(cfg, controller, bus, logger).
			WithCache(capture.NewCache(cfg.CacheSize, cfg.CacheTTL(), logger.Named("ScreenshotCache")))
		return captureBase64(service, func() string { return cacheKey(controller, time.Now()) }, *repeat, os.Stdout)
	default:
		ok = runCapture(cfg, controller, bus, logger, *outPath, *format)
	}

	fmt.Println(ok)
	return ok
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return cfg, cfg.Validate()
}

func openDatabase(path string, logger *logging.Logger) (*database.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	db.WithLogger(logger.Named("Database"))
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newCaptureService(cfg *config.Config, controller *adb.Controller, bus events.EventBus, logger *logging.Logger) *capture.Service {
	platform := adb.NewScreenshotPlatform(controller, cfg.ScreencapTimeout(), logger.Named("Screencap"))
	coordinator := capture.NewCoordinator(platform, logger.Named("Capture"))

	return capture.NewService(coordinator, logger.Named("CaptureService"), cfg.OutputDir, cfg.DefaultFormat).
		WithThrottler(capture.NewThrottler(cfg.ThrottleInterval())).
		WithEventBus(bus)
}

func runCapture(cfg *config.Config, controller *adb.Controller, bus events.EventBus, logger *logging.Logger, path, format string) bool {
	result := newCaptureService(cfg, controller, bus, logger).Capture(path, format)
	if result.Outcome.Success {
		fmt.Fprintf(os.Stderr, "Saved %s (%s, %v)\n", result.Path, result.Format.Codec, result.Duration)
	} else {
		fmt.Fprintf(os.Stderr, "Capture %s failed: %s\n", result.ID, result.Outcome.Failure)
	}
	return result.Outcome.Success
}

// cacheKey keys in-memory captures by foreground package and time slot
func cacheKey(controller *adb.Controller, now time.Time) string {
	pkg, err := controller.CurrentPackage()
	if err != nil || pkg == "" {
		pkg = "unknown"
	}
	return capture.GenerateKey(pkg, now)
}

// captureBase64 writes one base64 PNG line per capture to w. It stops at
// the first failed capture.
func captureBase64(service *capture.Service, key func() string, repeat int, w io.Writer) bool {
	if repeat < 1 {
		repeat = 1
	}
	for i := 0; i < repeat; i++ {
		data, outcome := service.CaptureData(key())
		if !outcome.Success {
			fmt.Fprintf(os.Stderr, "In-memory capture failed: %s\n", outcome.Failure)
			return false
		}
		fmt.Fprintf(os.Stderr, "Captured %dx%d\n", data.Width, data.Height)
		fmt.Fprintln(w, data.Base64PNG)
	}
	return true
}

func runGesture(cfg *config.Config, controller *adb.Controller, bus events.EventBus, variant gesture.Variant, point string) bool {
	x, y, err := parsePoint(point)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid point %q: %v\n", point, err)
		return false
	}

	reporter := gesture.NewReporter(logging.NewLogger(cfg.LogTag).SetMinLevel(cfg.Level()).SetOutput(os.Stderr)).
		WithEventBus(bus)
	dispatcher := adb.NewGestureDispatcher(controller, reporter).
		WithDurations(cfg.TapDuration(), cfg.LongPressDuration())

	if variant == gesture.LongPress {
		err = dispatcher.LongPress(x, y)
	} else {
		err = dispatcher.Tap(x, y)
	}
	return err == nil
}

func parsePoint(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected x,y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func printHistory(cfg *config.Config, limit int) error {
	if cfg.DatabasePath == "" {
		return fmt.Errorf("databasePath is not configured")
	}

	db, err := openDatabase(cfg.DatabasePath, logging.NewLogger("Database").SetMinLevel(logging.LogLevelWarn))
	if err != nil {
		return err
	}
	defer db.Close()

	captures, err := db.ListRecentCaptures(limit)
	if err != nil {
		return err
	}

	fmt.Printf("=== Last %d captures ===\n", len(captures))
	for _, c := range captures {
		status := "ok"
		if !c.Success {
			status = "failed (" + c.Failure + ")"
		}
		fmt.Printf("  %s  %-4s %-20s %6dms  %s\n",
			c.CapturedAt.Format("2006-01-02 15:04:05"), c.Format, status, c.DurationMs, c.Path)
	}

	stats, err := db.CaptureStats(time.Time{})
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d  Succeeded: %d  Failed: %d  Success rate: %.1f%%\n",
		stats.Total, stats.Succeeded, stats.Failed, stats.SuccessRate())
	return nil
}
