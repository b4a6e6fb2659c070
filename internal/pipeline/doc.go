// Package pipeline implements AudioPipeline: the producer that pulls
// wire-format samples from a track's decoder and pushes them into a
// ring buffer through the conversion a FormatAdapter plan selects, and
// the consumer callback a sink's own worker invokes once per cycle to
// fill its next outgoing buffer.
//
// AudioPipeline owns exactly the RingBuffer and the sink handle;
// decoder lifecycle and producer-loop timing belong to the track
// engine, which calls ProducerTick once per cycle with whichever
// decoder is currently active.
package pipeline
