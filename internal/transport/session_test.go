package transport_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/metrics"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
	"github.com/taoyao-code/monitorctl/internal/transport"
	"github.com/taoyao-code/monitorctl/internal/transport/transporttest"
)

func brightnessReply(v byte) []byte {
	return dell.DefaultFraming.BuildReply(dell.ResultSuccess, dell.OpBrightness, []byte{v})
}

func TestExchange_WritesFrameReturnsReply(t *testing.T) {
	opener := transporttest.NewOpener(brightnessReply(0x32))
	s := transport.NewSession(opener, transport.DefaultConfig(), transport.WithLogger(zap.NewNop()))

	reply, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	require.NoError(t, err)
	assert.Equal(t, brightnessReply(0x32), reply)
	assert.Equal(t, []byte{0x37, 0x51, 0x02, 0xEB, 0x30, 0xBF}, opener.LastFrame())
	assert.Equal(t, 1, opener.Opens())
	assert.Equal(t, 1, opener.Closes())
}

func TestExchange_ChunkedRead(t *testing.T) {
	opener := transporttest.NewOpener(brightnessReply(0x10))
	opener.ChunkSize = 3
	s := transport.NewSession(opener, transport.DefaultConfig())

	reply, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	require.NoError(t, err)
	assert.Equal(t, brightnessReply(0x10), reply)
}

func TestExchange_EmptyReply(t *testing.T) {
	opener := transporttest.NewOpener()
	s := transport.NewSession(opener, transport.DefaultConfig())

	reply, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Equal(t, 1, opener.Closes())
}

func TestExchange_ReadCapped(t *testing.T) {
	long := make([]byte, 100)
	opener := transporttest.NewOpener(long)
	s := transport.NewSession(opener, transport.DefaultConfig())

	reply, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	require.NoError(t, err)
	assert.Len(t, reply, dell.MaxReplySize)
}

func TestExchange_OpenFailure(t *testing.T) {
	opener := transporttest.NewOpener()
	opener.OpenErr = errors.New("no such file or directory")
	m := metrics.NewAppMetrics(metrics.NewRegistry())
	s := transport.NewSession(opener, transport.DefaultConfig(), transport.WithMetrics(m))

	_, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	assert.ErrorIs(t, err, transport.ErrTransportUnavailable)
	assert.Equal(t, 0, opener.Writes())
}

func TestExchange_CanceledContext(t *testing.T) {
	opener := transporttest.NewOpener(brightnessReply(1))
	s := transport.NewSession(opener, transport.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Exchange(ctx, dell.Read, dell.OpBrightness, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, opener.Opens())
}

type countingLocker struct {
	mu       sync.Mutex
	held     bool
	acquired int
	err      error
}

func (l *countingLocker) Acquire(context.Context) (transport.Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held {
		return nil, errors.New("already held")
	}
	l.held = true
	l.acquired++
	return func() {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
	}, nil
}

func TestExchange_SerializesCallers(t *testing.T) {
	opener := transporttest.NewOpener()
	opener.Handler = func([]byte) []byte { return brightnessReply(0x20) }
	locker := &countingLocker{}
	s := transport.NewSession(opener, transport.DefaultConfig(), transport.WithLocker(locker))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 8, locker.acquired)
	assert.Equal(t, 8, opener.Writes())
}

func TestExchange_LockFailure(t *testing.T) {
	opener := transporttest.NewOpener(brightnessReply(1))
	s := transport.NewSession(opener, transport.DefaultConfig(), transport.WithLocker(&countingLocker{err: errors.New("redis down")}))

	_, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	assert.ErrorIs(t, err, transport.ErrTransportUnavailable)
	assert.Equal(t, 0, opener.Opens())
}

func TestExchange_MinInterval(t *testing.T) {
	opener := transporttest.NewOpener()
	opener.Handler = func([]byte) []byte { return brightnessReply(0) }
	cfg := transport.DefaultConfig()
	cfg.MinInterval = 30 * time.Millisecond
	s := transport.NewSession(opener, cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestExchange_SimulatedDeviceInclusiveFraming(t *testing.T) {
	framing := dell.Framing{LengthIncludesChecksum: true}
	opener := transporttest.NewOpener()
	opener.Handler = func(frame []byte) []byte {
		return framing.BuildReply(dell.ResultSuccess, dell.OpBrightness, []byte{0x32})
	}
	cfg := transport.DefaultConfig()
	cfg.Framing = framing
	s := transport.NewSession(opener, cfg)

	reply, err := s.Exchange(context.Background(), dell.Read, dell.OpBrightness, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x6F, 0x37, 0x05, 0x02, 0x00, 0x30, 0x32, 0x5D}, reply)
	assert.Equal(t, []byte{0x37, 0x51, 0x03, 0xEB, 0x30, 0xBE}, opener.LastFrame())
}
