package capture

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"jordanella.com/phone-agent-go/internal/cv"
	"jordanella.com/phone-agent-go/internal/events"
	"jordanella.com/phone-agent-go/internal/logging"
)

// Result describes one capture made through the Service
type Result struct {
	ID       string
	Path     string
	Format   cv.Format
	Outcome  Outcome
	Duration time.Duration
}

// Service wraps a Coordinator with throttling, an in-memory cache and
// event publishing
type Service struct {
	coordinator   *Coordinator
	throttler     *Throttler
	cache         *Cache
	bus           events.EventBus
	logger        *logging.Logger
	outputDir     string
	defaultFormat string
	now           func() time.Time
}

// NewService creates a service writing unnamed captures to outputDir
func NewService(coordinator *Coordinator, logger *logging.Logger, outputDir, defaultFormat string) *Service {
	if defaultFormat == "" {
		defaultFormat = "png"
	}
	return &Service{
		coordinator:   coordinator,
		logger:        logger,
		outputDir:     outputDir,
		defaultFormat: defaultFormat,
		now:           time.Now,
	}
}

// WithThrottler refuses captures closer together than the throttler allows
func (s *Service) WithThrottler(t *Throttler) *Service {
	s.throttler = t
	return s
}

// WithCache serves repeated in-memory captures from c
func (s *Service) WithCache(c *Cache) *Service {
	s.cache = c
	return s
}

// WithEventBus publishes capture events on bus
func (s *Service) WithEventBus(bus events.EventBus) *Service {
	s.bus = bus
	return s
}

// Capture writes one screenshot. An empty path picks a timestamped name in
// the output directory; an empty format uses the configured default.
func (s *Service) Capture(path, formatToken string) Result {
	if formatToken == "" {
		formatToken = s.defaultFormat
	}
	format := cv.ResolveFormat(formatToken)
	if path == "" {
		path = filepath.Join(s.outputDir, fmt.Sprintf("screenshot_%s%s", s.now().Format("20060102_150405.000"), format.Extension()))
	}

	result := Result{
		ID:     uuid.NewString(),
		Path:   path,
		Format: format,
	}

	if !s.allow(result.ID) {
		result.Outcome = failed(FailureThrottled)
		return result
	}

	start := s.now()
	result.Outcome = s.coordinator.Issue(path, formatToken)
	result.Duration = s.now().Sub(start)

	s.logger.InfoWithContext("Capture finished", map[string]interface{}{
		"id":      result.ID,
		"path":    path,
		"codec":   format.Codec.String(),
		"success": result.Outcome.Success,
	})
	s.publish(result, formatToken)
	return result
}

// CaptureData returns an in-memory PNG capture. A non-empty cacheKey is
// looked up first and successful captures are stored under it.
func (s *Service) CaptureData(cacheKey string) (*ScreenshotData, Outcome) {
	if s.cache != nil && cacheKey != "" {
		if data := s.cache.Get(cacheKey); data != nil {
			return data, succeeded()
		}
	}

	id := uuid.NewString()
	if !s.allow(id) {
		return nil, failed(FailureThrottled)
	}

	start := s.now()
	data, outcome := s.coordinator.IssueData()
	s.publish(Result{
		ID:       id,
		Path:     "memory",
		Format:   cv.ResolveFormat("png"),
		Outcome:  outcome,
		Duration: s.now().Sub(start),
	}, "png")

	if outcome.Success && s.cache != nil && cacheKey != "" {
		s.cache.Put(cacheKey, data)
	}
	return data, outcome
}

func (s *Service) allow(id string) bool {
	if s.throttler == nil || s.throttler.Allow() {
		return true
	}

	remaining := s.throttler.RemainingWait()
	s.logger.Debug(fmt.Sprintf("Capture throttled, %dms remaining", remaining.Milliseconds()))
	if s.bus != nil {
		s.bus.Publish(events.NewCaptureThrottledEvent(id, remaining))
	}
	return false
}

func (s *Service) publish(result Result, formatToken string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.NewCaptureEvent(events.CaptureResult{
		CaptureID:  result.ID,
		Path:       result.Path,
		Format:     formatToken,
		Success:    result.Outcome.Success,
		Failure:    result.Outcome.Failure.String(),
		DurationMs: result.Duration.Milliseconds(),
	}))
}
