package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded to
// [min, max]. A missing or blank value yields def.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw, present := lookupQuery(r, key)
	if !present {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "must be a whole number", nil)
	}
	if n < min || n > max {
		return 0, queryError(key, "must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max),
			map[string]any{"min": min, "max": max})
	}
	return n, nil
}

func lookupQuery(r *http.Request, key string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func queryError(key, reason string, extra map[string]any) error {
	details := map[string]any{"field": key, "reason": reason}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter").WithDetails(details)
}
