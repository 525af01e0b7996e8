package hotkey

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const procInputDevices = "/proc/bus/input/devices"

// evKeyBit is the EV_KEY bit in the EV bitmask reported by the kernel.
const evKeyBit = 1 << 0x01

// ScanKeyboardDevice finds the first keyboard-capable event device.
func ScanKeyboardDevice() (string, error) {
	file, err := os.Open(procInputDevices)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", procInputDevices, err)
	}
	defer file.Close()
	return scanKeyboardDevice(file)
}

// scanKeyboardDevice parses /proc/bus/input/devices blocks and picks the
// first device with a kbd handler and EV_KEY capability.
func scanKeyboardDevice(r io.Reader) (string, error) {
	var (
		handlers string
		evMask   uint64
	)

	flush := func() string {
		defer func() {
			handlers = ""
			evMask = 0
		}()
		if evMask&evKeyBit == 0 {
			return ""
		}
		if !strings.Contains(handlers, "kbd") {
			return ""
		}
		for _, field := range strings.Fields(handlers) {
			if strings.HasPrefix(field, "event") {
				return "/dev/input/" + field
			}
		}
		return ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			if path := flush(); path != "" {
				return path, nil
			}
		case strings.HasPrefix(line, "H: Handlers="):
			handlers = strings.TrimPrefix(line, "H: Handlers=")
		case strings.HasPrefix(line, "B: EV="):
			mask, err := strconv.ParseUint(strings.TrimPrefix(line, "B: EV="), 16, 64)
			if err == nil {
				evMask = mask
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan input devices: %w", err)
	}
	if path := flush(); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("no keyboard event device found")
}
