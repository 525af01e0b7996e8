// Package media pauses playing media players around a dictation session and
// resumes exactly the players it paused.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Coordinator brackets a session with playerctl pause/resume calls.
type Coordinator struct {
	playerCmd []string

	mu     sync.Mutex
	paused []string
}

// NewCoordinator takes the playerctl argv base, e.g. ["playerctl"].
func NewCoordinator(playerCmd []string) *Coordinator {
	return &Coordinator{playerCmd: append([]string(nil), playerCmd...)}
}

// Engage pauses every currently-playing player and remembers it for Release.
// Calling Engage while already engaged is a no-op.
func (c *Coordinator) Engage(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.paused) > 0 {
		return nil
	}

	players, err := c.listPlayers(ctx)
	if err != nil {
		return err
	}

	for _, player := range players {
		status, err := c.run(ctx, "-p", player, "status")
		if err != nil {
			// A player can vanish between list and status.
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(status), "Playing") {
			continue
		}
		if _, err := c.run(ctx, "-p", player, "pause"); err != nil {
			return fmt.Errorf("pause player %s: %w", player, err)
		}
		c.paused = append(c.paused, player)
	}
	return nil
}

// Release resumes the players Engage paused. Safe to call repeatedly and
// without a prior Engage.
func (c *Coordinator) Release(ctx context.Context) error {
	c.mu.Lock()
	paused := c.paused
	c.paused = nil
	c.mu.Unlock()

	var firstErr error
	for _, player := range paused {
		if _, err := c.run(ctx, "-p", player, "play"); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("resume player %s: %w", player, err)
		}
	}
	return firstErr
}

// PausedPlayers returns the players currently held paused.
func (c *Coordinator) PausedPlayers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paused...)
}

func (c *Coordinator) listPlayers(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "-l")
	if err != nil {
		// playerctl exits nonzero when no players are registered.
		if strings.Contains(strings.ToLower(out), "no players") {
			return nil, nil
		}
		return nil, fmt.Errorf("list players: %w", err)
	}

	var players []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			players = append(players, line)
		}
	}
	return players, nil
}

func (c *Coordinator) run(ctx context.Context, args ...string) (string, error) {
	if len(c.playerCmd) == 0 {
		return "", fmt.Errorf("media.player_cmd is not configured")
	}
	argv := append(append([]string(nil), c.playerCmd[1:]...), args...)
	cmd := exec.CommandContext(ctx, c.playerCmd[0], argv...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return "", fmt.Errorf("%s %v failed: %w", c.playerCmd[0], args, err)
		}
		return trimmed, fmt.Errorf("%s %v failed: %w (%s)", c.playerCmd[0], args, err, trimmed)
	}
	return string(out), nil
}
