package source

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
)

// errEscape marks a resolved path that falls outside root.
var errEscape = errors.New("source: path escapes root")

// resolve percent-decodes rel, joins it to root, and canonicalises the
// result (resolving ".." and symlinks). It returns errEscape if the
// canonical path is not root, and not root with root as a strict prefix.
//
// root is expected to end with a slash, per Settings.SourceRoot.
func resolve(root, rel string) (string, error) {
	decoded, err := url.PathUnescape(rel)
	if err != nil {
		return "", err
	}

	rootClean := strings.TrimSuffix(root, string(filepath.Separator))
	joined := filepath.Join(rootClean, decoded)

	canon, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// The target may not exist yet only for paths we're about to
		// stat/open, in which case the caller will get its own I/O error;
		// still enforce confinement using the lexical join so a symlink
		// trick can't be used to probe for existence outside root.
		canon = filepath.Clean(joined)
	}

	if canon != rootClean && !strings.HasPrefix(canon, rootClean+string(filepath.Separator)) {
		return "", errEscape
	}
	return canon, nil
}
