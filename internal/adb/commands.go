package adb

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jordanella.com/pk-hunter/internal/cv"
)

// DeviceInfo is one line of `adb devices`
type DeviceInfo struct {
	Serial string
	State  string
}

// Online reports whether the device accepts commands
func (d DeviceInfo) Online() bool {
	return d.State == "device"
}

// ListDevices returns every device known to the server
func (c *Client) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	out, err := c.exec(ctx, "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(string(out)), nil
}

// parseDevices parses `adb devices` output, skipping the header and daemon notices
func parseDevices(output string) []DeviceInfo {
	var devices []DeviceInfo
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, DeviceInfo{Serial: fields[0], State: fields[1]})
	}
	return devices
}

// CaptureRaw returns the PNG bytes of the device screen
func (c *Client) CaptureRaw(ctx context.Context, serial string) ([]byte, error) {
	if serial == "" {
		return nil, ErrNoDevice
	}
	out, err := c.exec(ctx, "-s", serial, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen of %s: %w", serial, err)
	}
	return out, nil
}

// CaptureScreen captures and decodes the device screen
func (c *Client) CaptureScreen(ctx context.Context, serial string) (*image.RGBA, error) {
	data, err := c.CaptureRaw(ctx, serial)
	if err != nil {
		return nil, err
	}
	frame, err := cv.DecodeScreenshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screen of %s: %w", serial, err)
	}
	return frame, nil
}

// Tap sends a single touch at (x, y) and waits for the input to settle
func (c *Client) Tap(ctx context.Context, serial string, x, y int) error {
	if _, err := c.Shell(ctx, serial, fmt.Sprintf("input tap %d %d", x, y)); err != nil {
		return fmt.Errorf("failed to tap %s at %d,%d: %w", serial, x, y, err)
	}
	if c.tapSettle <= 0 {
		return nil
	}
	// The tap was delivered; cancellation only cuts the settle short.
	select {
	case <-ctx.Done():
	case <-time.After(c.tapSettle):
	}
	return nil
}

// SendKey sends a key event such as KEYCODE_BACK
func (c *Client) SendKey(ctx context.Context, serial, key string) error {
	_, err := c.Shell(ctx, serial, "input keyevent "+key)
	return err
}

var sizePattern = regexp.MustCompile(`(?:Physical|Override) size:\s*(\d+)x(\d+)`)

// WindowSize returns the physical screen size of a device
func (c *Client) WindowSize(ctx context.Context, serial string) (int, int, error) {
	out, err := c.Shell(ctx, serial, "wm size")
	if err != nil {
		return 0, 0, err
	}
	return parseWindowSize(out)
}

func parseWindowSize(output string) (int, int, error) {
	m := sizePattern.FindStringSubmatch(output)
	if m == nil {
		return 0, 0, fmt.Errorf("failed to parse window size: %q", output)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h, nil
}
