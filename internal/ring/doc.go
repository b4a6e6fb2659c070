// Package ring implements the single-producer/single-consumer byte ring
// buffer that sits between the decoder-driven producer and the sink's
// pull-based consumer.
//
// Only one goroutine may call the push family of methods and only one
// goroutine (possibly a different one) may call Pop; the two cursors are
// plain atomics and never share a lock, following the SPSC contract the
// pipeline builds on top of this package.
//
// The push family all follow the same shape: given raw bytes from the
// decoder, convert and append as much as fits, and report how many
// *input* bytes were consumed. The converting pushes never tear a
// sample: if the remaining free space doesn't fit a whole output group,
// the whole group (and its corresponding input bytes) is dropped rather
// than partially written. Plain Push knows no sample size and truncates
// to the free byte count, so it can stop part-way through a sample.
//
//	rb := ring.New(1<<16, 0x00)
//	n := rb.Push(pcmBytes)
//	got := make([]byte, 4096)
//	m := rb.Pop(got, len(got))
package ring
