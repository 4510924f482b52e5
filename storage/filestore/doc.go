// Package filestore persists a flatnest store in a single file.
//
// The whole tree is loaded on Open and kept in memory; Flush and Close
// write it back. Every dataset payload carries an xxhash64 digest and the
// file ends with a digest of everything before it, both verified on load.
//
//	f, err := filestore.Open("run.fnst", filestore.Default)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
package filestore
