package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

// ProgressUpdate captures ffmpeg progress output during a capture.
type ProgressUpdate struct {
	Seconds float64
	Percent float64
	Message string
}

// Recorder drives camera capture through ffmpeg.
type Recorder struct {
	binary      string
	videoDevice string
	audioDevice string
	frameRate   int
	resolution  string
	container   string
	maxSeconds  int
	timeout     time.Duration
	stagingRoot string
	exec        Executor
}

// RecorderOption configures the recorder.
type RecorderOption func(*Recorder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) RecorderOption {
	return func(r *Recorder) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// NewRecorder constructs a camera recorder from configuration.
func NewRecorder(cfg *config.Config, opts ...RecorderOption) (*Recorder, error) {
	binary := strings.TrimSpace(cfg.FFmpegBinary())
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	rec := &Recorder{
		binary:      binary,
		videoDevice: cfg.Capture.VideoDevice,
		audioDevice: cfg.Capture.AudioDevice,
		frameRate:   cfg.Capture.FrameRate,
		resolution:  cfg.Capture.Resolution,
		container:   cfg.Capture.Container,
		maxSeconds:  cfg.Capture.MaxDurationSeconds,
		timeout:     time.Duration(cfg.Capture.CaptureTimeout) * time.Second,
		stagingRoot: cfg.Paths.StagingDir,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec, nil
}

// Record captures from the configured camera and microphone for at most
// maxSeconds (bounded by the configured maximum; zero means use it) and
// stages the result for the session. Recording ends on timer expiry or when
// ctx is canceled by an explicit stop; a stopped capture still yields the
// finalized artifact. The ffmpeg process owns the devices and Run returns
// only after it exits, so stop, timeout, and failure all release the camera
// and microphone.
func (r *Recorder) Record(ctx context.Context, sessionID int64, maxSeconds int, progress func(ProgressUpdate)) (media.Artifact, error) {
	var empty media.Artifact
	if maxSeconds <= 0 || maxSeconds > r.maxSeconds {
		maxSeconds = r.maxSeconds
	}

	if err := checkDevice(r.videoDevice, "camera"); err != nil {
		return empty, err
	}
	if strings.HasPrefix(r.audioDevice, "/") {
		if err := checkDevice(r.audioDevice, "microphone"); err != nil {
			return empty, err
		}
	}

	destDir := SessionDir(r.stagingRoot, sessionID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "recorder", "record", "create staging dir", err)
	}
	destPath := filepath.Join(destDir, fmt.Sprintf("capture-%s.%s", time.Now().UTC().Format("20060102-150405"), r.container))

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var tail outputTail
	runErr := r.exec.Run(runCtx, r.binary, r.buildArgs(destPath, maxSeconds), func(line string) {
		tail.append(line)
		if progress == nil {
			return
		}
		if update, ok := parseProgress(line, maxSeconds); ok {
			progress(update)
		}
	})
	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return empty, services.Wrap(services.ErrExternalTool, "recorder", "record", "capture exceeded its watchdog timeout", runErr)
		}
		if !errors.Is(runCtx.Err(), context.Canceled) {
			return empty, classifyRunFailure(runErr, tail.last(3), tail.all())
		}
		// Canceled is an explicit stop; keep whatever ffmpeg finalized.
	}

	info, err := os.Stat(destPath)
	if err != nil || info.Size() == 0 {
		return empty, services.Wrap(services.ErrExternalTool, "recorder", "record", "capture produced no output", runErr)
	}

	fileName := filepath.Base(destPath)
	return media.Artifact{
		Path:      destPath,
		FileName:  fileName,
		MIMEType:  media.MIMEForFileName(fileName),
		SizeBytes: info.Size(),
		Source:    media.SourceRecorded,
	}, nil
}

func (r *Recorder) buildArgs(destPath string, maxSeconds int) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "v4l2",
		"-framerate", strconv.Itoa(r.frameRate),
		"-video_size", r.resolution,
		"-i", r.videoDevice,
		"-f", "alsa",
		"-i", r.audioDevice,
		"-t", strconv.Itoa(maxSeconds),
	}
	switch r.container {
	case "webm":
		args = append(args, "-c:v", "libvpx-vp9", "-b:v", "1M", "-c:a", "libopus")
	default:
		args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p", "-c:a", "aac", "-movflags", "+faststart")
	}
	return append(args, destPath)
}

// checkDevice distinguishes an absent device from one the daemon may not
// open, so callers can tell the user to plug in a camera versus fix
// permissions.
func checkDevice(path, label string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrConfiguration, "recorder", "probe", label+" device not configured", nil)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "recorder", "probe", "no "+label+" device at "+path, nil)
		}
		return services.Wrap(services.ErrUnexpected, "recorder", "probe", "inspect "+label+" device", err)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return services.Wrap(services.ErrPermission, "recorder", "probe", label+" device access denied: "+path, err)
		}
		return services.Wrap(services.ErrUnexpected, "recorder", "probe", "probe "+label+" device", err)
	}
	return nil
}

func classifyRunFailure(runErr error, detailLines, allLines []string) error {
	joined := strings.ToLower(strings.Join(allLines, "\n"))
	detail := strings.TrimSpace(strings.Join(detailLines, "; "))
	switch {
	case strings.Contains(joined, "permission denied"):
		return services.Wrap(services.ErrPermission, "recorder", "record", "camera or microphone access denied: "+detail, runErr)
	case strings.Contains(joined, "no such file or directory"), strings.Contains(joined, "no such device"):
		return services.Wrap(services.ErrNotFound, "recorder", "record", "capture device not present: "+detail, runErr)
	case strings.Contains(joined, "device or resource busy"):
		return services.Wrap(services.ErrBusy, "recorder", "record", "capture device busy: "+detail, runErr)
	default:
		message := "ffmpeg capture failed"
		if detail != "" {
			message += ": " + detail
		}
		return services.Wrap(services.ErrExternalTool, "recorder", "record", message, runErr)
	}
}

// parseProgress extracts elapsed capture time from ffmpeg status lines such
// as "frame= 300 fps= 30 ... time=00:00:10.03 bitrate= ...".
func parseProgress(line string, maxSeconds int) (ProgressUpdate, bool) {
	idx := strings.Index(line, "time=")
	if idx < 0 {
		return ProgressUpdate{}, false
	}
	field := line[idx+len("time="):]
	if sp := strings.IndexByte(field, ' '); sp >= 0 {
		field = field[:sp]
	}
	seconds, ok := parseClock(field)
	if !ok {
		return ProgressUpdate{}, false
	}
	update := ProgressUpdate{Seconds: seconds, Message: strings.TrimSpace(line)}
	if maxSeconds > 0 {
		update.Percent = seconds / float64(maxSeconds) * 100
		if update.Percent > 100 {
			update.Percent = 100
		}
	}
	return update, true
}

func parseClock(value string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}

const tailLimit = 12

// outputTail keeps the most recent process output lines for error reporting.
// The executor forwards lines from both pipes concurrently.
type outputTail struct {
	mu    sync.Mutex
	lines []string
}

func (t *outputTail) append(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) >= tailLimit {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:len(t.lines)-1]
	}
	t.lines = append(t.lines, line)
}

func (t *outputTail) last(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n > len(t.lines) {
		n = len(t.lines)
	}
	out := make([]string, n)
	copy(out, t.lines[len(t.lines)-n:])
	return out
}

func (t *outputTail) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
