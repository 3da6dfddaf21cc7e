package ws2812

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

// frameRecorder collects every SPI write as a separate frame.
type frameRecorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *frameRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), p...))
	return len(p), nil
}

func (r *frameRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *frameRecorder) last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStrip(t *testing.T, leds int) (*Strip, *frameRecorder) {
	t.Helper()
	rec := &frameRecorder{}
	s, err := New(spitest.NewRecordRaw(rec), NewBusConfig(0, 1, leds), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, rec
}

type failingPort struct {
	connectErr error
}

func (p *failingPort) String() string { return "failing" }
func (p *failingPort) LimitSpeed(physic.Frequency) error { return nil }
func (p *failingPort) Connect(physic.Frequency, spi.Mode, int) (spi.Conn, error) {
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return failingConn{}, nil
}

type failingConn struct{}

func (failingConn) String() string               { return "failing" }
func (failingConn) Duplex() conn.Duplex          { return conn.Half }
func (failingConn) Tx(_, _ []byte) error         { return errors.New("wire fault") }
func (failingConn) TxPackets([]spi.Packet) error { return errors.New("wire fault") }

func TestNewStripStartsBlack(t *testing.T) {
	s, _ := newTestStrip(t, 11)

	assert.Equal(t, 11, s.Len())
	for _, c := range s.Snapshot() {
		assert.Equal(t, Black, c)
	}
	assert.False(t, s.IsAnimating())
}

func TestSetGetLED(t *testing.T) {
	s, _ := newTestStrip(t, 5)

	for i := 0; i < s.Len(); i++ {
		c := NewColor(uint8(i), uint8(i*2), uint8(i*3))
		require.NoError(t, s.SetLED(i, c))
		got, err := s.GetLED(i)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	before := s.Snapshot()
	assert.ErrorIs(t, s.SetLED(5, White), ErrIndex)
	assert.ErrorIs(t, s.SetLED(-1, White), ErrIndex)
	assert.Equal(t, before, s.Snapshot(), "failed SetLED must not change the buffer")

	_, err := s.GetLED(5)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestSetLEDsShortInputBlacksOutRemainder(t *testing.T) {
	s, _ := newTestStrip(t, 4)

	s.Fill(White)
	s.SetLEDs([]Color{Red, Green})

	assert.Equal(t, []Color{Red, Green, Black, Black}, s.Snapshot())

	s.SetLEDs([]Color{Blue, Blue, Blue, Blue, Blue, Blue})
	assert.Equal(t, []Color{Blue, Blue, Blue, Blue}, s.Snapshot())
}

func TestShowTransmitsFullFrame(t *testing.T) {
	s, rec := newTestStrip(t, 3)

	s.SetLEDs([]Color{Red, Green, Blue})
	require.NoError(t, s.Show())
	s.SetLEDs(nil)
	require.NoError(t, s.Show())

	require.Equal(t, 2, rec.count())
	for _, f := range rec.frames {
		assert.Len(t, f, s.Config().TransmitLen())
	}
	assert.Equal(t, []Color{Red, Green, Blue}, DecodeFrame(rec.frames[0]))
	assert.Equal(t, []Color{Black, Black, Black}, DecodeFrame(rec.frames[1]))
}

func TestShowBusError(t *testing.T) {
	s, err := New(&failingPort{}, NewBusConfig(0, 0, 2), testLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Show(), ErrBus)
}

func TestNewConnectError(t *testing.T) {
	_, err := New(&failingPort{connectErr: errors.New("busy")}, NewBusConfig(0, 0, 2), testLogger())
	assert.ErrorIs(t, err, ErrBus)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(NewBusConfig(250, 250, 1), testLogger())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestCloseClearsAndReleases(t *testing.T) {
	rec := &frameRecorder{}
	port := spitest.NewRecordRaw(rec)
	s, err := New(port, NewBusConfig(0, 0, 2), testLogger())
	require.NoError(t, err)

	s.Fill(White)
	require.NoError(t, s.StartBreathe(Red, 1))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.False(t, s.IsAnimating())
	assert.Equal(t, []Color{Black, Black}, DecodeFrame(rec.last()))
	assert.ErrorIs(t, s.Show(), ErrClosed)
	assert.ErrorIs(t, s.StartBreathe(Red, 1), ErrClosed)
	assert.ErrorIs(t, s.StartChase(Red, 1, false), ErrClosed)
}
