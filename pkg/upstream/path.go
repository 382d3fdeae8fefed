package upstream

import (
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
)

// JoinPath escapes each segment and joins them with "/".
func JoinPath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}
	return strings.Join(escaped, "/")
}

// checkPath rejects dot segments and malformed escapes in an already escaped path.
func checkPath(escaped string) error {
	for _, segment := range strings.Split(escaped, "/") {
		raw, err := url.PathUnescape(segment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request path")
		}
		if raw == "." || raw == ".." {
			return pkgerrors.New(pkgerrors.CodeValidation, "request path may not contain dot segments").
				WithDetails(map[string]any{"segment": raw})
		}
	}
	return nil
}
