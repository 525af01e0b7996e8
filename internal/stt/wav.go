package stt

import (
	"encoding/binary"

	"github.com/voxtool/vox/internal/audio"
)

// EncodeWAV wraps raw little-endian PCM in a minimal 44-byte WAV header.
func EncodeWAV(buf audio.Buffer) []byte {
	channels := buf.Channels
	if channels <= 0 {
		channels = 1
	}
	sampleRate := buf.SampleRate
	if sampleRate <= 0 {
		sampleRate = audio.SampleRate
	}

	const bitsPerSample = uint16(16)
	byteRate := sampleRate * channels * int(bitsPerSample) / 8
	blockAlign := channels * int(bitsPerSample) / 8
	chunkSize := uint32(36 + len(buf.PCM))
	subChunk2Size := uint32(len(buf.PCM))

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], chunkSize)
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], subChunk2Size)

	out := make([]byte, 0, len(header)+len(buf.PCM))
	out = append(out, header...)
	out = append(out, buf.PCM...)
	return out
}
