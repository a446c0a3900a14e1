package breaks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegfried/workrave/internal/core"
)

func serializeAll(c *Control) []string {
	var lines []string
	for _, id := range core.BreakIDs {
		lines = append(lines, c.Timer(id).SerializeState())
	}
	return lines
}

func TestStateRoundTrip(t *testing.T) {
	f := newControlFixture(t, nil)
	for i := 0; i < 75; i++ {
		f.tick(i%10 < 7)
	}
	require.NoError(t, f.control.SaveState())
	want := serializeAll(f.control)

	restored := f.newControl(t)

	assert.Equal(t, want, serializeAll(restored))
	for _, id := range core.BreakIDs {
		assert.Equal(t, f.control.Timer(id).ElapsedTime(), restored.Timer(id).ElapsedTime(), id.String())
	}
}

func TestStateFileFormat(t *testing.T) {
	f := newControlFixture(t, nil)
	require.NoError(t, f.control.SaveState())

	data, err := os.ReadFile(filepath.Join(f.dir, "state"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2+core.NumBreaks)
	assert.Equal(t, "WorkRaveState 3", lines[0])
	assert.Equal(t, fmt.Sprint(epoch.Unix()), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "micro_pause "))
	assert.True(t, strings.HasPrefix(lines[3], "rest_break "))
	assert.True(t, strings.HasPrefix(lines[4], "daily_limit "))
}

func TestLoadStateVersions(t *testing.T) {
	tests := []struct {
		name        string
		version     int
		timer       string
		wantElapsed int64
	}{
		{"version 1", 1, "%d 100 0 0 0 0 0", 100},
		{"version 2", 2, "%d 100 0 0 0 0 0", 100},
		{"version 3", 3, "%d 100 0 0 0 0 0 0", 100},
		{"version 0 is ignored", 0, "%d 100 0 0 0 0 0 0", 0},
		{"version 4 is ignored", 4, "%d 100 0 0 0 0 0 0", 0},
		{"malformed timer is ignored", 3, "%d x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControlFixture(t, nil)

			content := fmt.Sprintf("WorkRaveState %d\n%d\nmicro_pause "+tt.timer+"\n",
				tt.version, epoch.Unix(), epoch.Unix())
			require.NoError(t, os.WriteFile(filepath.Join(f.dir, "state"), []byte(content), 0o644))

			c := f.newControl(t)
			assert.Equal(t, tt.wantElapsed, c.Timer(core.MicroBreak).ElapsedTime())
		})
	}
}

func TestLoadStateDiscardsOldSession(t *testing.T) {
	f := newControlFixture(t, nil)

	saved := epoch.Unix() - 3600
	content := fmt.Sprintf("WorkRaveState 3\n%d\nmicro_pause %d 100 0 0 0 0 0 0\nrest_break %d 900 0 0 0 0 0 0\n",
		saved, saved, saved)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "state"), []byte(content), 0o644))

	c := f.newControl(t)

	assert.Zero(t, c.Timer(core.MicroBreak).ElapsedTime(), "idle longer than the micro break")
	assert.Zero(t, c.Timer(core.RestBreak).ElapsedTime(), "idle longer than the rest break")
}

func TestLoadStateWithoutFile(t *testing.T) {
	f := newControlFixture(t, nil)

	for _, id := range core.BreakIDs {
		assert.Zero(t, f.control.Timer(id).ElapsedTime())
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		timers  int
	}{
		{"valid", "WorkRaveState 3\n1760518800\nmicro_pause 1 2 3\nrest_break 4 5 6\n", nil, 2},
		{"no timers", "WorkRaveState 2\n1760518800\n", nil, 0},
		{"blank lines skipped", "WorkRaveState 3\n1760518800\n\nmicro_pause 1\n", nil, 1},
		{"empty", "", ErrBadStateHeader, 0},
		{"wrong tag", "Workrave 3\n1760518800\n", ErrBadStateHeader, 0},
		{"bad version", "WorkRaveState three\n1760518800\n", ErrBadStateHeader, 0},
		{"missing save time", "WorkRaveState 3\n", ErrBadStateHeader, 0},
		{"bad save time", "WorkRaveState 3\nnow\n", ErrBadStateHeader, 0},
		{"too old", "WorkRaveState 0\n1760518800\n", ErrUnsupportedStateVersion, 0},
		{"too new", "WorkRaveState 4\n1760518800\n", ErrUnsupportedStateVersion, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := parseState([]byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1760518800), state.saveTime)
			assert.Len(t, state.timers, tt.timers)
		})
	}
}

func TestSaveStateDisabledWithoutDir(t *testing.T) {
	c := &Control{}
	assert.NoError(t, c.SaveState())
	assert.Empty(t, c.StatePath())
	c.LoadState()
}
