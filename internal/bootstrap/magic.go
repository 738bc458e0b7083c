package bootstrap

import "crypto/sha1"

// magicLen is len(M): a SHA-1 digest is always 20 bytes.
const magicLen = sha1.Size

// magic computes M = SHA1(programImage), the identity digest the remote
// peer must echo back before it is trusted with traffic.
func magic(programImage []byte) [magicLen]byte {
	return sha1.Sum(programImage)
}
