package audio

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hotscribe/internal/failure"
)

type fakeDriver struct {
	mu         sync.Mutex
	devices    []Device
	devicesErr error
	openErr    error
	handler    StreamHandler
	lastCfg    StreamConfig
	closeGate  chan struct{}

	opens  atomic.Int32
	closes atomic.Int32
}

func (d *fakeDriver) Devices(context.Context) ([]Device, error) {
	return d.devices, d.devicesErr
}

func (d *fakeDriver) Open(_ context.Context, cfg StreamConfig, handler StreamHandler) (Stream, error) {
	d.opens.Add(1)
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
	d.lastCfg = cfg
	return &fakeStream{driver: d}, nil
}

func (d *fakeDriver) emit(samples []float32) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	h.OnChunk(samples)
}

func (d *fakeDriver) report(err error) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	h.OnStatus(err)
}

type fakeStream struct {
	driver *fakeDriver
}

func (s *fakeStream) Close() error {
	if gate := s.driver.closeGate; gate != nil {
		<-gate
	}
	s.driver.closes.Add(1)
	return nil
}

var mono16k = StreamConfig{SampleRate: 16000, Channels: 1}

func TestSessionStopReturnsAllChunks(t *testing.T) {
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{})

	require.NoError(t, session.Start(context.Background(), mono16k))
	require.True(t, session.IsRecording())

	for i := 0; i < 3; i++ {
		chunk := make([]float32, 1600)
		for j := range chunk {
			chunk[j] = float32(i+1) / 10
		}
		driver.emit(chunk)
	}

	buf := session.Stop()
	require.NotNil(t, buf)
	require.Len(t, buf.Samples, 4800)
	require.Equal(t, 300*time.Millisecond, buf.Duration())
	require.InDelta(t, 0.1, buf.Samples[0], 1e-6)
	require.InDelta(t, 0.2, buf.Samples[1600], 1e-6)
	require.InDelta(t, 0.3, buf.Samples[4799], 1e-6)
	require.False(t, session.IsRecording())
	require.Equal(t, int32(1), driver.closes.Load())
}

func TestSessionCopiesReusedDriverBuffers(t *testing.T) {
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{})
	require.NoError(t, session.Start(context.Background(), mono16k))

	scratch := []float32{0.1, 0.2}
	driver.emit(scratch)
	scratch[0], scratch[1] = 0.3, 0.4
	driver.emit(scratch)

	buf := session.Stop()
	require.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, buf.Samples)
}

func TestSessionStopWhenIdleIsNoop(t *testing.T) {
	session := NewSession(&fakeDriver{}, SessionOptions{})
	require.Nil(t, session.Stop())
	require.Nil(t, session.Stop())
	require.Zero(t, session.Elapsed())
}

func TestSessionStopWithoutChunksReturnsNil(t *testing.T) {
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{})

	require.NoError(t, session.Start(context.Background(), mono16k))
	require.Nil(t, session.Stop())
	require.False(t, session.IsRecording())
	require.Equal(t, int32(1), driver.closes.Load())
}

func TestSessionStartWhileRecording(t *testing.T) {
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{})

	require.NoError(t, session.Start(context.Background(), mono16k))
	require.ErrorIs(t, session.Start(context.Background(), mono16k), ErrAlreadyRecording)
	require.Equal(t, int32(1), driver.opens.Load())
	session.Stop()
}

func TestSessionOpenFailureIsDeviceError(t *testing.T) {
	driver := &fakeDriver{openErr: errors.New("device busy")}
	session := NewSession(driver, SessionOptions{})

	err := session.Start(context.Background(), mono16k)
	require.Error(t, err)
	require.Equal(t, failure.KindDevice, failure.KindOf(err))
	require.Contains(t, err.Error(), "device busy")
	require.False(t, session.IsRecording())

	driver.openErr = nil
	require.NoError(t, session.Start(context.Background(), mono16k))
	session.Stop()
}

func TestSessionRejectsInvalidStreamConfig(t *testing.T) {
	session := NewSession(&fakeDriver{}, SessionOptions{})
	err := session.Start(context.Background(), StreamConfig{SampleRate: 0, Channels: 1})
	require.Equal(t, failure.KindDevice, failure.KindOf(err))
}

func TestSessionStatusErrorsDoNotEndCapture(t *testing.T) {
	var logs bytes.Buffer
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	require.NoError(t, session.Start(context.Background(), mono16k))
	driver.emit([]float32{0.2})
	driver.report(errors.New("input overflow"))
	driver.emit([]float32{0.3})

	require.True(t, session.IsRecording())
	buf := session.Stop()
	require.Equal(t, []float32{0.2, 0.3}, buf.Samples)
}

func TestSessionIgnoresChunksAfterStop(t *testing.T) {
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{})

	require.NoError(t, session.Start(context.Background(), mono16k))
	driver.emit([]float32{0.5})
	buf := session.Stop()
	require.Len(t, buf.Samples, 1)

	done := make(chan struct{})
	go func() {
		driver.emit([]float32{0.9, 0.9})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("late chunk delivery blocked")
	}
	require.Len(t, buf.Samples, 1)
}

func TestSessionStopJoinTimeoutAbandonsCapture(t *testing.T) {
	driver := &fakeDriver{closeGate: make(chan struct{})}
	session := NewSession(driver, SessionOptions{JoinTimeout: 50 * time.Millisecond})

	require.NoError(t, session.Start(context.Background(), mono16k))
	driver.emit([]float32{0.5})

	started := time.Now()
	require.Nil(t, session.Stop())
	require.Less(t, time.Since(started), time.Second)
	require.False(t, session.IsRecording())

	close(driver.closeGate)
}

func TestSessionElapsedWhileRecording(t *testing.T) {
	session := NewSession(&fakeDriver{}, SessionOptions{})
	require.NoError(t, session.Start(context.Background(), mono16k))

	time.Sleep(20 * time.Millisecond)
	require.GreaterOrEqual(t, session.Elapsed(), 20*time.Millisecond)

	session.Stop()
	require.Zero(t, session.Elapsed())
}

func TestSessionWarnsOnLowSignal(t *testing.T) {
	var logs bytes.Buffer
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	require.NoError(t, session.Start(context.Background(), mono16k))
	driver.emit([]float32{0.001, -0.002})
	require.NotNil(t, session.Stop())
	require.Contains(t, logs.String(), "nearly silent")

	logs.Reset()
	require.NoError(t, session.Start(context.Background(), mono16k))
	driver.emit([]float32{0.4, -0.6})
	require.NotNil(t, session.Stop())
	require.NotContains(t, logs.String(), "nearly silent")
}

func TestSessionPassesStreamConfigToDriver(t *testing.T) {
	driver := &fakeDriver{}
	session := NewSession(driver, SessionOptions{})

	cfg := StreamConfig{SampleRate: 48000, Channels: 2, DeviceID: "usb-mic"}
	require.NoError(t, session.Start(context.Background(), cfg))
	session.Stop()

	driver.mu.Lock()
	defer driver.mu.Unlock()
	require.Equal(t, cfg, driver.lastCfg)
}
