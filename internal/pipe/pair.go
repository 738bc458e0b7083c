package pipe

import "io"

// NewLocalPair returns two Pipe values backed by a pair of anonymous
// in-memory byte streams, connected so that writes on one side arrive as
// reads on the other. This is the single-process deployment's transport:
// the SOURCE worker owns one end, the SERVER acceptor owns the other.
func NewLocalPair() (a *Pipe, b *Pipe) {
	aR, bW := io.Pipe()
	bR, aW := io.Pipe()
	return New(aR, aW), New(bR, bW)
}
