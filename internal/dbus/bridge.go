// Package dbus publishes break engine state on the session bus.
package dbus

import (
	"log"
	"sync"

	godbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"github.com/siegfried/workrave/internal/core"
)

const (
	busName       = "org.workrave.Workrave"
	objectPath    = godbus.ObjectPath("/org/workrave/Workrave/Core")
	coreInterface = "org.workrave.CoreInterface"
)

// Signal names, relative to the core interface.
const (
	SignalBreakEvent           = coreInterface + ".BreakEvent"
	SignalBreakStageChanged    = coreInterface + ".BreakStageChanged"
	SignalOperationModeChanged = coreInterface + ".OperationModeChanged"
	SignalUsageModeChanged     = coreInterface + ".UsageModeChanged"
)

// Emitter sends signals. *godbus.Conn implements it.
type Emitter interface {
	Emit(path godbus.ObjectPath, name string, values ...interface{}) error
}

// Bridge implements core.Bridge on top of an Emitter. Emit failures are
// logged once and otherwise ignored.
type Bridge struct {
	emitter Emitter
	conn    *godbus.Conn
	warn    sync.Once
}

// NewBridge creates a bridge that emits through e.
func NewBridge(e Emitter) *Bridge {
	return &Bridge{emitter: e}
}

// Connect opens the session bus and claims the workrave name.
func Connect() (*Bridge, error) {
	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to session bus")
	}

	reply, err := conn.RequestName(busName, godbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "failed to request name %s", busName)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errors.Errorf("name %s already taken", busName)
	}

	b := NewBridge(conn)
	b.conn = conn
	return b, nil
}

// ConnectOrNop connects to the session bus, or returns a bridge that
// publishes nothing when the bus is unavailable.
func ConnectOrNop() core.Bridge {
	b, err := Connect()
	if err != nil {
		log.Printf("Warning: DBus bridge disabled: %v", err)
		return core.NopBridge{}
	}
	return b
}

// Close releases the bus connection, if the bridge owns one.
func (b *Bridge) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

// SignalBreakEvent emits BreakEvent.
func (b *Bridge) SignalBreakEvent(id core.BreakID, event core.BreakEvent) {
	b.emit(SignalBreakEvent, id.String(), event.String())
}

// SignalBreakStageChanged emits BreakStageChanged.
func (b *Bridge) SignalBreakStageChanged(id core.BreakID, stage core.BreakStage) {
	b.emit(SignalBreakStageChanged, id.String(), stage.String())
}

// SignalOperationModeChanged emits OperationModeChanged.
func (b *Bridge) SignalOperationModeChanged(mode core.OperationMode) {
	b.emit(SignalOperationModeChanged, mode.String())
}

// SignalUsageModeChanged emits UsageModeChanged.
func (b *Bridge) SignalUsageModeChanged(mode core.UsageMode) {
	b.emit(SignalUsageModeChanged, mode.String())
}

func (b *Bridge) emit(name string, values ...interface{}) {
	if err := b.emitter.Emit(objectPath, name, values...); err != nil {
		b.warn.Do(func() {
			log.Printf("Warning: failed to emit %s: %v", name, err)
		})
	}
}
