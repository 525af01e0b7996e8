package hotkey

import (
	"fmt"
	"strings"
)

// Linux input event key codes for the keys that make sense as a global
// push-to-talk trigger.
var keyCodes = map[string]uint16{
	"leftctrl":   29,
	"leftshift":  42,
	"rightshift": 54,
	"leftalt":    56,
	"capslock":   58,
	"scrolllock": 70,
	"rightctrl":  97,
	"rightalt":   100,
	"compose":    127,
	"pause":      119,
	"leftmeta":   125,
	"rightmeta":  126,
	"f13":        183,
	"f14":        184,
	"f15":        185,
	"f16":        186,
	"f17":        187,
	"f18":        188,
	"f19":        189,
	"f20":        190,
	"f21":        191,
	"f22":        192,
	"f23":        193,
	"f24":        194,
}

// KeyCode resolves a configured key name to its evdev code.
func KeyCode(name string) (uint16, error) {
	code, ok := keyCodes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown hotkey.key %q", name)
	}
	return code, nil
}

// KnownKeys lists the supported key names for diagnostics output.
func KnownKeys() []string {
	names := make([]string, 0, len(keyCodes))
	for name := range keyCodes {
		names = append(names, name)
	}
	return names
}
