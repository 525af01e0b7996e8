// Package hotkey watches a Linux evdev keyboard device for push-to-talk
// press and release events.
package hotkey

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/voxtool/vox/internal/config"
)

// eventSize is the on-wire size of struct input_event on 64-bit Linux.
const eventSize = 24

const (
	evKey        = 0x01
	valueRelease = 0
	valuePress   = 1
	valueRepeat  = 2
)

// Events carries the callbacks fired from the listener goroutine.
type Events struct {
	OnPress   func()
	OnRelease func()
}

// Listener reads raw input events from one keyboard device and fires
// press/release callbacks for the configured key.
type Listener struct {
	device  string
	keyName string
	keyCode uint16
	events  Events
	logger  *slog.Logger
}

// NewListener resolves the configured key and prepares a listener.
// Device resolution happens at Run time so "auto" tracks hotplug.
func NewListener(cfg config.HotkeyConfig, events Events, logger *slog.Logger) (*Listener, error) {
	code, err := KeyCode(cfg.Key)
	if err != nil {
		return nil, err
	}
	return &Listener{
		device:  cfg.Device,
		keyName: cfg.Key,
		keyCode: code,
		events:  events,
		logger:  logger,
	}, nil
}

// Run blocks reading events until the context is cancelled or the device
// read fails. Callback panics are contained here so a misbehaving handler
// cannot take the daemon down.
func (l *Listener) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hotkey listener panic: %v", r)
			if l.logger != nil {
				l.logger.Error("hotkey listener panic", "panic", fmt.Sprint(r))
			}
		}
	}()

	device := l.device
	if device == "" || device == "auto" {
		device, err = ScanKeyboardDevice()
		if err != nil {
			return fmt.Errorf("resolve hotkey device: %w", err)
		}
	}

	file, err := os.Open(device)
	if err != nil {
		return fmt.Errorf("open hotkey device %s: %w", device, err)
	}

	go func() {
		<-ctx.Done()
		_ = file.Close()
	}()

	if l.logger != nil {
		l.logger.Info("hotkey listener started", "device", device, "key", l.keyName)
	}

	if err := l.consume(ctx, file); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// consume decodes fixed-size input events and dispatches the configured key.
func (l *Listener) consume(ctx context.Context, r io.Reader) error {
	frame := make([]byte, eventSize)
	pressed := false

	for {
		if _, err := io.ReadFull(r, frame); err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read input event: %w", err)
		}

		evType, code, value := decodeEvent(frame)
		if evType != evKey || code != l.keyCode {
			continue
		}

		switch value {
		case valuePress:
			if pressed {
				continue
			}
			pressed = true
			if l.events.OnPress != nil {
				l.events.OnPress()
			}
		case valueRelease:
			if !pressed {
				continue
			}
			pressed = false
			if l.events.OnRelease != nil {
				l.events.OnRelease()
			}
		case valueRepeat:
			// Key auto-repeat while held, ignored.
		}
	}
}

// decodeEvent unpacks type, code, and value from a raw input_event frame.
func decodeEvent(frame []byte) (evType uint16, code uint16, value int32) {
	// The leading 16 bytes are the kernel timeval, unused here.
	evType = binary.LittleEndian.Uint16(frame[16:18])
	code = binary.LittleEndian.Uint16(frame[18:20])
	value = int32(binary.LittleEndian.Uint32(frame[20:24]))
	return evType, code, value
}
