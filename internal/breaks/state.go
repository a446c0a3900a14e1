package breaks

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/core"
)

const (
	stateFileName   = "state"
	stateTag        = "WorkRaveState"
	stateVersion    = 3
	minStateVersion = 1
)

// savedState is the parsed content of a state file.
type savedState struct {
	version  int
	saveTime int64
	// timers maps a timer id to its serialized state, without the id.
	timers map[string]string
}

// StatePath returns the state file path, or "" when persistence is off.
func (c *Control) StatePath() string {
	return c.statePath
}

// SaveState writes the state of every timer.
func (c *Control) SaveState() error {
	if c.statePath == "" {
		return nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d\n", stateTag, stateVersion)
	fmt.Fprintf(&buf, "%d\n", clock.RealSec(c.clock))
	for _, id := range core.BreakIDs {
		buf.WriteString(c.timers[id].SerializeState())
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(c.statePath, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write state file")
	}
	return nil
}

// LoadState restores timer state from the state file. A missing or
// damaged file leaves the timers as they are.
func (c *Control) LoadState() {
	if c.statePath == "" {
		return
	}

	data, err := os.ReadFile(c.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read state file: %v", err)
		}
		return
	}

	state, err := parseState(data)
	if err != nil {
		log.Printf("Warning: ignoring state file %s: %v", c.statePath, err)
		return
	}

	for _, id := range core.BreakIDs {
		rest, ok := state.timers[id.String()]
		if !ok {
			continue
		}
		if err := c.timers[id].DeserializeState(rest, state.version); err != nil {
			log.Printf("Warning: ignoring saved state of %s: %v", id, err)
		}
	}
}

func parseState(data []byte) (*savedState, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	if !scanner.Scan() {
		return nil, ErrBadStateHeader
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 || header[0] != stateTag {
		return nil, ErrBadStateHeader
	}
	version, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, ErrBadStateHeader
	}
	if version < minStateVersion || version > stateVersion {
		return nil, errors.Wrapf(ErrUnsupportedStateVersion, "version %d", version)
	}

	if !scanner.Scan() {
		return nil, ErrBadStateHeader
	}
	saveTime, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
	if err != nil {
		return nil, ErrBadStateHeader
	}

	state := &savedState{version: version, saveTime: saveTime, timers: map[string]string{}}
	for scanner.Scan() {
		id, rest, ok := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if !ok {
			continue
		}
		state.timers[id] = rest
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read state file")
	}
	return state, nil
}
