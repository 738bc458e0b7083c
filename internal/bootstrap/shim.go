package bootstrap

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/joostvanzwieten/rhttp/internal/config"
)

// buildShimCommand renders the tiny shell shim that §4.5 describes: a
// command line, not a script file, so it runs on a stock peer without
// staging anything ahead of time. It consumes exactly magicLen bytes from
// its standard input, compares them (as hex) against the literal digest
// embedded in the command itself, writes an imageLen-byte program image to
// a fresh temp file, makes it executable, echoes the magic back on stdout,
// then execs the staged image with role as its peer-mode argument so the
// remaining bytes on stdin (the settings payload, then live pipe traffic)
// land directly in its hands.
func buildShimCommand(m [magicLen]byte, imageLen int, role config.Role) string {
	hexMagic := hex.EncodeToString(m[:])
	// A fresh, collision-free name: several bootstraps against the same
	// remote host at once must never stage over one another's image file.
	imgPath := fmt.Sprintf("/tmp/rhttp-%s", uuid.New().String())
	return fmt.Sprintf(
		`sh -c 'set -e; gm=$(mktemp); dd of="$gm" bs=1 count=%d 2>/dev/null; `+
			`got=$(od -An -tx1 "$gm" | tr -d " \n"); `+
			`if [ "$got" != "%s" ]; then rm -f "$gm"; exit 1; fi; `+
			`dd of="%s" bs=1 count=%d 2>/dev/null; chmod +x "%s"; `+
			`cat "$gm"; rm -f "$gm"; exec "%s" --bootstrap-peer %s'`,
		magicLen, hexMagic, imgPath, imageLen, imgPath, imgPath, role,
	)
}
