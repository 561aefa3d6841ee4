package adapter

import (
	"errors"
	"log/slog"
	"os/exec"
	"runtime"
)

// ErrNoPhotos is returned when a listing has no image to open
var ErrNoPhotos = errors.New("listing has no photos")

// Launcher opens listing photo URLs in an image viewer or browser
type Launcher struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	logger  *slog.Logger

	// start runs a command without waiting for it
	start func(name string, args ...string) error
}

// NewLauncher creates a new Launcher
func NewLauncher(cfg ViewerConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: cfg.Command,
		args:    cfg.Args,
		logger:  logger,
		start:   startCommand,
	}
}

func startCommand(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return exec.Command(name, args...).Start() // Start async, don't wait
}

// OpenPhotos opens every photo URL; a configured viewer gets them all at once
func (l *Launcher) OpenPhotos(urls []string) error {
	if len(urls) == 0 {
		return ErrNoPhotos
	}

	if l.command != "" {
		args := append(append([]string{}, l.args...), urls...)
		l.logger.Info("launching viewer", "command", l.command, "count", len(urls))
		return l.start(l.command, args...)
	}

	// System handlers take one URL per invocation; the first is enough
	name, args := defaultOpener(runtime.GOOS)
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", urls[0])
	return l.start(name, append(args, urls[0])...)
}

// defaultOpener returns the system URL handler for goos
func defaultOpener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "cmd", []string{"/c", "start", ""}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", nil
	}
}
