package middleware

import (
	"net/http"

	"github.com/angelmondragon/posfront/api/responses"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

// CompanyContext rejects requests whose token carried no company.
func CompanyContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CompanyIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
