package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/posfront/api/middleware"
	"github.com/angelmondragon/posfront/api/validators"
	"github.com/angelmondragon/posfront/internal/pos"
	"github.com/angelmondragon/posfront/internal/variants"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

func scopeFromRequest(r *http.Request) (pos.Scope, error) {
	ctx := r.Context()
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return pos.Scope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing")
	}
	companyID := middleware.CompanyIDFromContext(ctx)
	if companyID == "" {
		return pos.Scope{}, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	return pos.Scope{SessionID: sessionID, CompanyID: companyID}, nil
}

func productRefFromRequest(r *http.Request) (pos.Scope, variants.ProductRef, error) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		return pos.Scope{}, variants.ProductRef{}, err
	}
	productID, err := validators.PathID(r, "productID")
	if err != nil {
		return pos.Scope{}, variants.ProductRef{}, err
	}
	return scope, variants.ProductRef{CompanyID: scope.CompanyID, ProductID: productID}, nil
}

func logWarn(ctx context.Context, logg *logger.Logger, msg, key string, value any) {
	if logg == nil {
		return
	}
	logg.Warn(logg.WithField(ctx, key, value), msg)
}
