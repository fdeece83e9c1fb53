package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
)

// cameraMonitor listens for udev netlink events and tracks when the
// configured capture device appears or disappears. This keeps the daemon's
// camera presence flag current without polling /dev.
type cameraMonitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler func(ctx context.Context, action, device string)
	device  string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// newCameraMonitor creates a monitor for video4linux hotplug events.
func newCameraMonitor(
	cfg *config.Config,
	logger *slog.Logger,
	handler func(ctx context.Context, action, device string),
) *cameraMonitor {
	if cfg == nil || !cfg.Capture.MonitorHotplug {
		return nil
	}

	device := strings.TrimSpace(cfg.Capture.VideoDevice)
	if device == "" {
		return nil
	}

	return &cameraMonitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "camera-monitor"),
		handler: handler,
		device:  device,
	}
}

// Start begins listening for udev netlink events.
func (m *cameraMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; camera presence tracking disabled",
			logging.Error(err),
			logging.String("device", m.device),
		)
		return nil // Non-fatal - presence stays at whatever startup detected
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("camera monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts down the camera monitor.
func (m *cameraMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false

	m.logger.Info("camera monitor stopped")
}

// Running reports whether the camera monitor is active.
func (m *cameraMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// monitorLoop reads netlink events and processes camera hotplug.
func (m *cameraMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("camera monitor error",
				logging.Error(err),
				logging.String("device", m.device),
			)
		}
	}
}

// buildMatcher creates a matcher for camera hotplug events.
// Matches: SUBSYSTEM=video4linux, ACTION=add|remove
func (m *cameraMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

// handleEvent processes a matched uevent.
func (m *cameraMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	if devname != m.device {
		m.logger.Debug("ignoring event for non-configured device",
			logging.String("device", devname),
			logging.String("configured_device", m.device),
		)
		return
	}

	action := string(uevent.Action)
	if action == "remove" {
		m.logger.Warn("camera removed",
			logging.String("device", devname),
		)
	} else {
		m.logger.Info("camera attached",
			logging.String("device", devname),
			logging.String("action", action),
		)
	}

	if m.handler == nil {
		return
	}
	m.handler(ctx, action, devname)
}

// extractDeviceName gets the device path from a uevent.
func (m *cameraMonitor) extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if strings.HasPrefix(devname, "/") {
			return devname
		}
		// Kernel events can report DEVNAME relative to /dev
		return "/dev/" + devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}

	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
