package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// SampleRate is the capture sample rate in Hz.
	SampleRate = 16000
	// Channels is the capture channel count.
	Channels = 1
	// bytesPerSample for s16le PCM.
	bytesPerSample = 2
)

// Buffer holds a finished utterance as raw PCM.
type Buffer struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration reports the playback length of the buffered audio.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.PCM) / (bytesPerSample * b.Channels)
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}

// Empty reports whether the buffer holds no audio at all.
func (b Buffer) Empty() bool {
	return len(b.PCM) == 0
}

// Capture accumulates 16kHz mono s16 PCM from one Pulse source until stopped.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	stopCh chan struct{}

	mu      sync.Mutex
	pcm     []byte
	maxPCM  int
	capped  bool
	stopped bool

	bytes atomic.Int64
}

// StartCapture creates and starts a record stream on the selected source.
// maxPCM bounds the accumulated buffer; zero means unbounded.
func StartCapture(ctx context.Context, selected Device, maxPCM int) (*Capture, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("vox"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := &Capture{
		device: selected,
		client: client,
		stopCh: make(chan struct{}),
		maxPCM: maxPCM,
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordMediaName("vox dictation"),
	)
	if err != nil {
		_ = capture.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = capture.Stop()
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Capped reports whether the buffer limit truncated the capture.
func (c *Capture) Capped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capped
}

// Buffer returns a snapshot of the accumulated PCM.
func (c *Capture) Buffer() Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	pcm := make([]byte, len(c.pcm))
	copy(pcm, c.pcm)
	return Buffer{PCM: pcm, SampleRate: SampleRate, Channels: Channels}
}

// Stop halts the stream and releases the Pulse connection. Idempotent.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

// onPCM receives raw Pulse frames and appends them to the buffer.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}

	accepted := buffer
	if c.maxPCM > 0 {
		room := c.maxPCM - len(c.pcm)
		if room <= 0 {
			c.capped = true
			c.mu.Unlock()
			return 0, io.EOF
		}
		if len(accepted) > room {
			accepted = accepted[:room]
			c.capped = true
		}
	}
	c.pcm = append(c.pcm, accepted...)
	c.mu.Unlock()

	c.bytes.Add(int64(len(accepted)))
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
