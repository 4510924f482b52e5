// Package wasmstore keeps a flatnest store inside a WebAssembly linear
// memory run by wazero.
//
// Each dataset payload is placed by a bump allocator at an address aligned
// to its leaf size, so a guest sharing the memory can read the flat data
// in place:
//
//	s, err := wasmstore.New(ctx)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	ds, _ := s.CreateDataset("grid", leaf.Of[float32](), []int{4, 4})
//	addr, _ := s.Addr(ds)
package wasmstore
