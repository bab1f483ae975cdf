package notifier

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"sjsage522/auctionwatcher/internal/model"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

const desktopTimeout = 10 * time.Second

// DesktopChannel shows a transient popup through the platform notifier
// command (notify-send on Linux, osascript on macOS).
type DesktopChannel struct {
	enabled  bool
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewDesktopChannel creates the channel; a disabled channel always skips.
func NewDesktopChannel(enabled bool) *DesktopChannel {
	return &DesktopChannel{
		enabled:  enabled,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (d *DesktopChannel) Name() string { return "desktop" }

func (d *DesktopChannel) Send(ctx context.Context, items []model.UrgentItem) error {
	if !d.enabled {
		return fmt.Errorf("desktop notifications disabled: %w", apperrors.ErrUnavailable)
	}
	title, body := desktopText(items)
	name, args, err := d.command(title, body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, desktopTimeout)
	defer cancel()
	return d.run(ctx, name, args...)
}

func (d *DesktopChannel) command(title, body string) (string, []string, error) {
	var name string
	var args []string
	switch d.goos {
	case "linux", "freebsd", "openbsd":
		name = "notify-send"
		args = []string{"--app-name=auctionwatcher", "--urgency=critical", "--expire-time=30000", title, body}
	case "darwin":
		name = "osascript"
		args = []string{"-e", fmt.Sprintf("display notification %q with title %q", body, title)}
	default:
		return "", nil, fmt.Errorf("no desktop notifier for %s: %w", d.goos, apperrors.ErrUnavailable)
	}
	if _, err := d.lookPath(name); err != nil {
		return "", nil, fmt.Errorf("%s not found: %w", name, apperrors.ErrUnavailable)
	}
	return name, args, nil
}
