package wasmstore

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/storage/memstore"
)

func newStore(t *testing.T, cfg *Config) *Store {
	t.Helper()
	s, err := NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PayloadInMemory(t *testing.T) {
	s := newStore(t, nil)

	ds, err := s.CreateDataset("grid", leaf.Of[float32](), []int{2, 2})
	require.NoError(t, err)

	raw := make([]byte, 16)
	for i := range 4 {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(i)+0.5))
	}
	require.NoError(t, ds.WriteRaw(raw))

	addr, ok := s.Addr(ds)
	require.True(t, ok)
	assert.Zero(t, addr%4, "f32 payload must be 4-byte aligned")

	seen, ok := s.Memory().Read(addr, 16)
	require.True(t, ok)
	assert.Equal(t, raw, seen)

	// Writes through the memory are visible to the dataset.
	require.True(t, s.Memory().WriteUint32Le(addr, math.Float32bits(9)))
	got := make([]byte, 16)
	require.NoError(t, ds.ReadRaw(got))
	assert.Equal(t, float32(9), math.Float32frombits(binary.LittleEndian.Uint32(got)))
}

func TestStore_Alignment(t *testing.T) {
	s := newStore(t, nil)

	a, err := s.CreateDataset("a", leaf.Of[uint8](), []int{3})
	require.NoError(t, err)
	b, err := s.CreateDataset("b", leaf.Of[float64](), []int{2})
	require.NoError(t, err)
	c, err := s.CreateDataset("c", leaf.Of[int16](), []int{1})
	require.NoError(t, err)

	addrA, _ := s.Addr(a)
	addrB, _ := s.Addr(b)
	addrC, _ := s.Addr(c)
	assert.NotZero(t, addrA)
	assert.Zero(t, addrB%8)
	assert.GreaterOrEqual(t, addrB, addrA+3)
	assert.Equal(t, addrB+16, addrC)

	fresh := make([]byte, 16)
	require.NoError(t, b.ReadRaw(fresh))
	assert.Equal(t, make([]byte, 16), fresh, "new payloads read as zeros")
}

func TestStore_Alloc(t *testing.T) {
	s := newStore(t, nil)

	_, err := s.Alloc(4, 3)
	assert.Error(t, err)

	p1, err := s.Alloc(5, 0)
	require.NoError(t, err)
	p2, err := s.Alloc(4, 16)
	require.NoError(t, err)
	assert.Equal(t, uint32(base), p1)
	assert.Equal(t, uint32(16), p2)
	assert.Equal(t, uint32(20-base), s.Used())

	_, err = s.Alloc(math.MaxUint32, 1)
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindAllocation})
}

func TestStore_Grow(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newStore(t, &Config{MemoryLimitPages: 4, Logger: zap.New(core)})
	assert.Equal(t, uint32(pageSize), s.Memory().Size())

	ds, err := s.CreateDataset("big", leaf.Of[uint64](), []int{2 * pageSize / 8})
	require.NoError(t, err)
	assert.Equal(t, uint32(3*pageSize), s.Memory().Size())
	assert.Equal(t, 1, logs.FilterMessage("grew memory").Len())

	raw := make([]byte, 2*pageSize)
	raw[len(raw)-1] = 0x7f
	require.NoError(t, ds.WriteRaw(raw))

	_, err = s.CreateDataset("too-big", leaf.Of[uint8](), []int{2 * pageSize})
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindAllocation})
	assert.False(t, s.HasDataset("too-big"))
}

func TestStore_Addr(t *testing.T) {
	s := newStore(t, nil)
	other := memstore.New()
	ds, err := other.CreateDataset("x", leaf.Of[int32](), []int{1})
	require.NoError(t, err)
	_, ok := s.Addr(ds)
	assert.False(t, ok, "heap payloads have no address")
}

func TestStore_Close(t *testing.T) {
	s, err := New(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = s.CreateDataset("x", leaf.Of[int32](), []int{1})
	assert.ErrorIs(t, err, errors.ErrClosed)
}
