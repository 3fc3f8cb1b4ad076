// Package object reads and writes HDF5 object headers, the lists of header
// messages that describe every group and dataset.
//
// Version 1 headers (superblocks 0 and 1) start with the version byte and
// keep messages 8-byte aligned. Version 2 headers start with "OHDR", use
// shorter message headers and end every block with a checksum. Both may
// continue in further blocks named by continuation messages; [Read] follows
// them and returns the messages of all blocks in order.
//
// Writers always produce a single block version 2 header with [Encode].
//
//	h, err := object.Read(r, addr)
//	ds := h.Dataspace()
//	for _, a := range h.Attributes() { ... }
package object
