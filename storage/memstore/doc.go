// Package memstore keeps a flatnest store in memory.
//
// The tree of groups and attributes always lives on the Go heap. Where the
// dataset bytes live is decided by Config.Payloads, which lets other
// backends reuse the tree and only supply storage.
package memstore
