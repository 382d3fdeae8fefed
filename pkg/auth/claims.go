package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/posfront/pkg/enums"
)

// AccessTokenPayload is the input for MintAccessToken.
type AccessTokenPayload struct {
	UserID    string
	CompanyID string
	Role      enums.MemberRole
	JTI       string
}

func (p AccessTokenPayload) validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return errors.New("user id is required")
	case strings.TrimSpace(p.CompanyID) == "":
		return errors.New("company id is required")
	case !p.Role.IsValid():
		return fmt.Errorf("invalid member role %q", p.Role)
	}
	return nil
}

// AccessTokenClaims is the JWT body POS clients present.
type AccessTokenClaims struct {
	UserID    string           `json:"user_id"`
	CompanyID string           `json:"company_id"`
	Role      enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
