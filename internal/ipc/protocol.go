// Package ipc provides the unix-socket control protocol for a running vox daemon.
package ipc

// Command names accepted by the daemon.
const (
	CommandStatus   = "status"
	CommandPress    = "press"
	CommandRelease  = "release"
	CommandShutdown = "shutdown"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
