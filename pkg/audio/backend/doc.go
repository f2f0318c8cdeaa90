// ABOUTME: Audio backend package abstracting the platform audio graph
// ABOUTME: Provides the Backend interface, the oto implementation, and a fake
// Package backend abstracts the platform audio graph behind a small
// capability interface: open the graph, schedule buffers, set gain, and
// drive the transport.
//
// Two implementations ship with the module:
//   - Oto: the production backend on top of the oto audio library
//   - Fake: an in-memory backend for tests and hardware-free development
//
// Example:
//
//	b := backend.NewOto()
//	err := b.Open(audio.DefaultFormat(), backend.SessionOptions{
//	    BufferDuration: 5 * time.Millisecond,
//	})
package backend
