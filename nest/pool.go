package nest

import (
	"sync"
	"unsafe"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxWords  = 1 << 17 // 1 MiB
	poolInitWords = 64
)

// Flat buffers are backed by uint64 words so every leaf view is aligned.
var wordPool = sync.Pool{
	New: func() any {
		buf := make([]uint64, 0, poolInitWords)
		return &buf
	},
}

// getWords returns a zeroed backing store of at least n bytes.
func getWords(n int) *[]uint64 {
	words := (n + 7) / 8
	buf := wordPool.Get().(*[]uint64)
	if cap(*buf) < words {
		*buf = make([]uint64, words)
		return buf
	}
	*buf = (*buf)[:words]
	clear(*buf)
	return buf
}

func putWords(buf *[]uint64) {
	if buf == nil || cap(*buf) > poolMaxWords {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	wordPool.Put(buf)
}

// wordBytes views the first n bytes of a word buffer.
func wordBytes(buf *[]uint64, n int) []byte {
	if n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(*buf))), n)
}
