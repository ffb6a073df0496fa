// Package geo acquires the device position for captures.
package geo

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"
)

// DefaultTimeout bounds a single position acquisition.
const DefaultTimeout = 10 * time.Second

// DefaultGPSDAddr is where gpsd listens by default.
const DefaultGPSDAddr = "localhost:2947"

var (
	ErrTimeout     = errors.New("position acquisition timed out")
	ErrUnavailable = errors.New("position unavailable")
	ErrOutOfRange  = errors.New("position out of range")
)

// Position is a WGS84 fix.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Validate rejects coordinates outside latitude [-90, 90] and longitude
// [-180, 180], which the server refuses.
func (p Position) Validate() error {
	switch {
	case math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90:
		return fmt.Errorf("%w: latitude %v", ErrOutOfRange, p.Latitude)
	case math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180:
		return fmt.Errorf("%w: longitude %v", ErrOutOfRange, p.Longitude)
	}
	return nil
}

// Locator yields the current position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// Fixed always reports the same coordinates.
type Fixed Position

func (f Fixed) Locate(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position(f), nil
}

// Locate runs l bounded by timeout. A deadline hit is reported as ErrTimeout.
func Locate(ctx context.Context, l Locator, timeout time.Duration) (Position, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos Position
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := l.Locate(ctx)
		ch <- result{pos, err}
	}()

	select {
	case r := <-ch:
		if errors.Is(r.err, context.DeadlineExceeded) {
			return Position{}, ErrTimeout
		}
		return r.pos, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Position{}, ErrTimeout
		}
		return Position{}, ctx.Err()
	}
}

// GPSD reads fixes from a gpsd daemon over its JSON socket protocol.
type GPSD struct {
	Addr string
}

type gpsdReport struct {
	Class string  `json:"class"`
	Mode  int     `json:"mode"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

func (g GPSD) Locate(ctx context.Context) (Position, error) {
	addr := g.Addr
	if addr == "" {
		addr = DefaultGPSDAddr
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Position{}, fmt.Errorf("%w: dial gpsd: %v", ErrUnavailable, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte(`?WATCH={"enable":true,"json":true};` + "\n")); err != nil {
		return Position{}, fmt.Errorf("%w: watch: %v", ErrUnavailable, err)
	}

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var r gpsdReport
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		// mode 2 is a 2D fix, 3 a 3D fix
		if r.Class == "TPV" && r.Mode >= 2 {
			return Position{Latitude: r.Lat, Longitude: r.Lon}, nil
		}
	}
	if err := sc.Err(); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return Position{}, ErrTimeout
		}
		return Position{}, fmt.Errorf("%w: read gpsd: %v", ErrUnavailable, err)
	}
	return Position{}, fmt.Errorf("%w: gpsd closed without a fix", ErrUnavailable)
}
