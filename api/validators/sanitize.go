package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/go-chi/chi/v5"
)

const maxIdentifierLength = 128

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// PathID returns a required route identifier.
func PathID(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter required").WithDetails(map[string]any{"field": key})
	}
	if len(raw) > maxIdentifierLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter too long").WithDetails(map[string]any{"field": key, "max": maxIdentifierLength})
	}
	if raw == "." || raw == ".." || strings.ContainsRune(raw, '/') {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid path parameter").WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}
