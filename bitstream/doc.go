// Package bitstream provides the bit-level primitive the meryl streams are
// built on: a sequential MSB-first bit writer and reader over byte streams,
// plus a self-delimiting Fibonacci code for unsigned integers.
//
// Bit packing is done by github.com/icza/bitio. This package adds bit
// position tracking, readers opened at a recorded bit offset and the
// Fibonacci code.
//
// Bits are emitted highest-first, so writing 0b101 with width 3 followed by
// 0b11111 with width 5 produces the single byte 0xBF.
package bitstream
