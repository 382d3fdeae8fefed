package middleware

import (
	"net/http"

	"github.com/angelmondragon/posfront/api/responses"
	"github.com/angelmondragon/posfront/pkg/enums"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

// RequirePermission answers 403 FORBIDDEN unless the token role grants perm.
// It runs after Auth.
func RequirePermission(perm enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, err := enums.ParseMemberRole(RoleFromContext(ctx))
			if err != nil || !role.Can(perm) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role").
					WithDetails(map[string]any{"role": RoleFromContext(ctx), "permission": string(perm)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCatalogManager guards variant mutations; cashiers can browse but not edit.
func RequireCatalogManager(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequirePermission(enums.PermissionManageCatalog, logg)
}
