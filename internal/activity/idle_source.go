package activity

import (
	"log"
	"os"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
	"github.com/lextoumbourou/idle"
	"github.com/pkg/errors"
)

// IdleSource reports how long the user has not touched any input device.
type IdleSource interface {
	IdleDuration() (time.Duration, error)
}

// IdleFunc adapts a function to an IdleSource.
type IdleFunc func() (time.Duration, error)

func (f IdleFunc) IdleDuration() (time.Duration, error) {
	return f()
}

// SystemIdleSource queries the platform idle time.
type SystemIdleSource struct{}

func (SystemIdleSource) IdleDuration() (time.Duration, error) {
	d, err := idle.Get()
	if err != nil {
		return 0, errors.Wrap(err, "query system idle time")
	}
	return d, nil
}

// X11IdleSource queries the MIT-SCREEN-SAVER extension of an X server.
type X11IdleSource struct {
	conn *xgb.Conn
	root xproto.Window
}

// NewX11IdleSource connects to the X server named by $DISPLAY.
func NewX11IdleSource() (*X11IdleSource, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "connect to X server")
	}

	if err := screensaver.Init(conn); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "initialize screensaver extension")
	}

	setup := xproto.Setup(conn)
	return &X11IdleSource{
		conn: conn,
		root: setup.DefaultScreen(conn).Root,
	}, nil
}

func (s *X11IdleSource) IdleDuration() (time.Duration, error) {
	reply, err := screensaver.QueryInfo(s.conn, xproto.Drawable(s.root)).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "query screensaver info")
	}
	return time.Duration(reply.MsSinceUserInput) * time.Millisecond, nil
}

// Close disconnects from the X server.
func (s *X11IdleSource) Close() error {
	s.conn.Close()
	return nil
}

// NewIdleSource prefers the X server when one is reachable and falls back
// to the platform idle time otherwise.
func NewIdleSource() IdleSource {
	if os.Getenv("DISPLAY") == "" {
		return SystemIdleSource{}
	}

	src, err := NewX11IdleSource()
	if err != nil {
		log.Printf("Warning: X11 idle time unavailable, using system idle time: %v", err)
		return SystemIdleSource{}
	}
	return src
}
