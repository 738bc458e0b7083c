package bootstrap

import "errors"

// ErrIdentityMismatch marks a failed digest echo: the remote-shell peer
// did not run a byte-identical copy of the program image.
var ErrIdentityMismatch = errors.New("bootstrap: remote peer failed identity verification")
