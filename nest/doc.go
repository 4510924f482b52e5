// Package nest flattens nested homogeneous containers of numeric leaves into
// one row-major buffer and rebuilds them from such a buffer.
//
// # Supported Types
//
// A nestable type is a leaf (see package leaf) or a container of nestable
// elements:
//
//	[N]E      fixed length, resizing to anything but N is an error
//	[]E       resizable, contiguous backing store
//	S         any type whose *S implements Sequence, e.g. List[E]
//
// The rank of a type is its nesting depth. A shape lists one extent per
// level, outermost first. Extents below the first level come from the first
// element of each level; a level with no elements reports 0 for itself and
// every level below it.
//
// # Serialization
//
// Values whose leaves form one run in memory ([N]E and []E over leaves or
// arrays of leaves) are serialized without copying: the Buffer is a view of
// the value's own storage and is only valid while the value is alive and
// not resized. Everything else is copied into pooled memory.
//
// By default the copying path rejects ragged values (siblings with
// different counts) with a ragged error. Config.AllowRagged zero pads short
// siblings instead.
//
// # Deserialization
//
// Reconstruction has two phases. Prepare resizes a target to a shape after
// validating the whole shape against the type; Deserialize then copies the
// leaves. Deserializer wraps both for storage backends that read directly
// into memory.
//
//	var grid [][4]float32
//	err := nest.Prepare(&grid, nest.Shape{5, 4})
//	err = nest.Deserialize(&grid, raw)
//
// Values must not be modified concurrently with a call that reads or
// writes them.
package nest
