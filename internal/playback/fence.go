package playback

import "sync/atomic"

// fence orders transport commands. Every command takes a token before going
// to the network and may commit its result only while that token is still
// the latest. Reconciliation observes without issuing, so a poll never
// supersedes a user command, but a command that commits while a poll is in
// flight invalidates the poll.
type fence struct {
	gen atomic.Uint64
}

// issue returns a fresh token, superseding every earlier one.
func (f *fence) issue() uint64 {
	return f.gen.Add(1)
}

// observe returns the current generation without superseding anything.
func (f *fence) observe() uint64 {
	return f.gen.Load()
}

// commit reports whether tok is still the latest and, if so, advances the
// generation so observers that started earlier are invalidated.
func (f *fence) commit(tok uint64) bool {
	return f.gen.CompareAndSwap(tok, tok+1)
}

// holds reports whether nothing was issued or committed since tok was observed.
func (f *fence) holds(tok uint64) bool {
	return f.gen.Load() == tok
}
