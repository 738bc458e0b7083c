package pipe

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarBytesRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 4096, MaxChunk} {
		n := n
		t.Run("", func(t *testing.T) {
			var buf bytes.Buffer
			p := New(&buf, &buf)
			want := bytes.Repeat([]byte{0x5a}, n)
			require.NoError(t, p.WriteVarBytes(want))
			got, err := p.ReadVarBytes()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestWriteVarBytesOversize(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, &buf)
	err := p.WriteVarBytes(make([]byte, MaxChunk+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocolViolation))
}

func TestReadVarBytesOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, &buf)
	require.NoError(t, p.WriteInt64(MaxChunk+1))
	_, err := p.ReadVarBytes()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocolViolation))
}

func TestReadBytesNegativeLength(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, &buf)
	_, err := p.ReadBytes(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestReadShortFailsWithEndOfStream(t *testing.T) {
	p := New(bytes.NewReader([]byte{1, 2, 3}), io.Discard)
	_, err := p.ReadBytes(10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEndOfStream))
}

func TestInt64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, -2, 1 << 40, -(1 << 40)} {
		v := v
		t.Run("", func(t *testing.T) {
			var buf bytes.Buffer
			p := New(&buf, &buf)
			require.NoError(t, p.WriteInt64(v))
			got, err := p.ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestLocalPairIsFullDuplex(t *testing.T) {
	a, b := NewLocalPair()
	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, a.WriteVarBytes([]byte("ping")))
		got, err := a.ReadVarBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte("pong"), got)
	}()

	got, err := b.ReadVarBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)
	require.NoError(t, b.WriteVarBytes([]byte("pong")))
	<-done
}

func TestCloseUnblocksAPendingRead(t *testing.T) {
	a, b := NewLocalPair()
	errCh := make(chan error, 1)
	go func() {
		_, err := a.ReadBytes(1)
		errCh <- err
	}()
	require.NoError(t, b.Close())
	err := <-errCh
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEndOfStream))
}

func TestLockSerializesExchanges(t *testing.T) {
	// Exercises the documented contract: callers hold the mutex across one
	// command/response exchange. Several goroutines each write and read back
	// one value on a shared buffer under Lock. This does not assert timing,
	// only that every exchange completes intact without deadlock.
	var buf bytes.Buffer
	p := New(&buf, &buf)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Lock()
			defer p.Unlock()
			assert.NoError(t, p.WriteInt64(42))
			got, err := p.ReadInt64()
			assert.NoError(t, err)
			assert.Equal(t, int64(42), got)
		}()
	}
	wg.Wait()
}
