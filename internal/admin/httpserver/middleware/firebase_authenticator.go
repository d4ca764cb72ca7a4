package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"finitefield.org/recruit-admin/internal/admin/rbac"
)

// ErrTokenExpired lets verifiers other than the Admin SDK report expiry.
var ErrTokenExpired = errors.New("firebase token expired")

// FirebaseTokenVerifier is the part of *firebaseauth.Client the authenticator needs.
type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseAuthenticator turns Firebase ID tokens into staff users. Roles come
// from the "role" and "roles" custom claims; unrecognised values are dropped
// and a token without any known role signs in as a viewer.
type FirebaseAuthenticator struct {
	verifier FirebaseTokenVerifier
}

func NewFirebaseAuthenticator(verifier FirebaseTokenVerifier) *FirebaseAuthenticator {
	if verifier == nil {
		panic("firebase token verifier is required")
	}
	return &FirebaseAuthenticator{verifier: verifier}
}

func (f *FirebaseAuthenticator) Authenticate(r *http.Request, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}

	verified, err := f.verifier.VerifyIDToken(r.Context(), token)
	if err != nil {
		if firebaseauth.IsIDTokenExpired(err) || errors.Is(err, ErrTokenExpired) {
			return nil, NewAuthError(ReasonTokenExpired, err)
		}
		return nil, NewAuthError(ReasonTokenInvalid, err)
	}

	email, _ := verified.Claims["email"].(string)
	return &User{
		UID:   verified.UID,
		Email: strings.TrimSpace(email),
		Roles: staffRoles(verified.Claims["role"], verified.Claims["roles"]),
		Token: token,
	}, nil
}

func staffRoles(claims ...any) []string {
	var roles []string
	add := func(raw any) {
		s, ok := raw.(string)
		if !ok {
			return
		}
		if role, known := rbac.ParseRole(s); known && !slices.Contains(roles, string(role)) {
			roles = append(roles, string(role))
		}
	}
	for _, claim := range claims {
		switch v := claim.(type) {
		case []any:
			for _, item := range v {
				add(item)
			}
		case []string:
			for _, item := range v {
				add(item)
			}
		default:
			add(v)
		}
	}
	if len(roles) == 0 {
		return []string{string(rbac.RoleViewer)}
	}
	return roles
}
