package wasmstore

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/storage/memstore"
)

const pageSize = 1 << 16

// base is the first address handed out; 0 stays unused so a zero address
// never names a payload.
const base = 8

// memoryModule declares one page of memory and exports it as "memory".
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

// Config holds store options.
type Config struct {
	// MemoryLimitPages caps the linear memory in 64KB pages.
	// 0 means the runtime default (65536 pages = 4GB).
	MemoryLimitPages uint32
	// Logger defaults to the package logger.
	Logger *zap.Logger
}

// Store keeps dataset payloads inside a WebAssembly linear memory, laid
// out back to back with each payload aligned to its leaf size. Guest code
// sharing the memory can read a dataset at the address reported by Addr.
type Store struct {
	*memstore.Store
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
	log     *zap.Logger

	mu   sync.Mutex
	next uint32
}

var (
	_ flatnest.Store     = (*Store)(nil)
	_ flatnest.Allocator = (*Store)(nil)
)

func New(ctx context.Context) (*Store, error) {
	return NewWithConfig(ctx, nil)
}

func NewWithConfig(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	module, err := runtime.InstantiateWithConfig(ctx, memoryModule,
		wazero.NewModuleConfig().WithName("flatnest"))
	if err != nil {
		runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindAllocation, err, "instantiate memory")
	}

	s := &Store{
		runtime: runtime,
		module:  module,
		mem:     module.Memory(),
		log:     cfg.Logger,
		next:    base,
	}
	if s.log == nil {
		s.log = Logger()
	}
	s.Store = memstore.NewWithConfig(&memstore.Config{Payloads: s.payload})
	return s, nil
}

// Memory returns the linear memory holding the payloads.
func (s *Store) Memory() api.Memory { return s.mem }

// Used returns the number of bytes handed out so far, including padding.
func (s *Store) Used() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next - base
}

// Alloc reserves size bytes aligned to align, growing the memory as needed.
// align must be a power of two or zero.
func (s *Store) Alloc(size, align uint32) (uint32, error) {
	if align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseStorage, "alignment must be a power of two")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.next
	if align > 1 {
		padded, ok := safeAdd(start, align-1)
		if !ok {
			return 0, errors.AllocationFailed(errors.PhaseStorage, size, align)
		}
		start = padded &^ (align - 1)
	}
	end, ok := safeAdd(start, size)
	if !ok {
		return 0, errors.AllocationFailed(errors.PhaseStorage, size, align)
	}

	if need := uint64(end); need > uint64(s.mem.Size()) {
		pages := (need - uint64(s.mem.Size()) + pageSize - 1) / pageSize
		if _, grown := s.mem.Grow(uint32(pages)); !grown {
			return 0, errors.AllocationFailed(errors.PhaseStorage, size, align)
		}
		s.log.Debug("grew memory",
			zap.Uint64("pages", pages),
			zap.Uint32("bytes", s.mem.Size()))
	}

	s.next = end
	return start, nil
}

func (s *Store) payload(lt leaf.Type, size int) (memstore.Payload, error) {
	if size < 0 || uint64(size) > uint64(^uint32(0)) {
		return nil, errors.AllocationFailed(errors.PhaseStorage, ^uint32(0), uint32(lt.Size))
	}
	off, err := s.Alloc(uint32(size), uint32(lt.Size))
	if err != nil {
		return nil, err
	}
	return &payload{mem: s.mem, off: off, n: uint32(size)}, nil
}

// Addr returns the linear memory address of a dataset created by this store.
func (s *Store) Addr(ds flatnest.Dataset) (uint32, bool) {
	md, ok := ds.(*memstore.Dataset)
	if !ok {
		return 0, false
	}
	p, ok := md.Payload().(*payload)
	if !ok || p.mem != s.mem {
		return 0, false
	}
	return p.off, true
}

// Close releases the store and its runtime.
func (s *Store) Close() error {
	return s.CloseWithContext(context.Background())
}

func (s *Store) CloseWithContext(ctx context.Context) error {
	if err := s.Store.Close(); err != nil {
		return err
	}
	return s.runtime.Close(ctx)
}

func safeAdd(a, b uint32) (uint32, bool) {
	if a > ^uint32(0)-b {
		return 0, false
	}
	return a + b, true
}

// payload is a window of linear memory. Fresh pages are zeroed and
// addresses are never reused, so a new payload reads as zeros.
type payload struct {
	mem api.Memory
	off uint32
	n   uint32
}

func (p *payload) Len() int { return int(p.n) }

func (p *payload) ReadAt(dst []byte) error {
	b, ok := p.mem.Read(p.off, p.n)
	if !ok {
		return errors.OutOfBounds(errors.PhaseStorage, nil, int(p.off), int(p.mem.Size()))
	}
	copy(dst, b)
	return nil
}

func (p *payload) WriteAt(src []byte) error {
	if !p.mem.Write(p.off, src) {
		return errors.OutOfBounds(errors.PhaseStorage, nil, int(p.off), int(p.mem.Size()))
	}
	return nil
}
