package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// NewTokenAuth builds the JWT verifier used to authenticate owners on the
// management API. Tokens carry the owner ID in the "sub" claim.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// ownerFromRequest extracts the authenticated owner ID from the verified
// token on the request context.
func ownerFromRequest(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, errors.New("token missing sub claim")
	}

	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New("sub claim is not a valid owner ID")
	}
	return ownerID, nil
}
