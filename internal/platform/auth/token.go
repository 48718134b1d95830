package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medilink/medilink/internal/platform/apperr"
)

// Role identifies which principal table a token's subject resolves against.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carried by every issued token. Subject is the principal's stable
// business id. Role and TokenType are explicit so a patient token can never
// pass a doctor guard and a refresh token can never hit a protected route.
type Claims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	TokenType string `json:"typ"`
}

// TokenPair is the access/refresh pair returned on login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer mints and verifies HS256 token pairs with a process-wide secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueSession returns a fresh access/refresh pair for the principal.
func (i *Issuer) IssueSession(stableID string, role Role) (*TokenPair, error) {
	access, err := i.sign(stableID, role, tokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(stableID, role, tokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) sign(stableID string, role Role, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   stableID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      role,
		TokenType: typ,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindAuth, "sign token", err)
	}
	return signed, nil
}

// VerifyAccess decodes an access token and returns its claims.
func (i *Issuer) VerifyAccess(tokenStr string) (*Claims, error) {
	return i.verify(tokenStr, tokenTypeAccess)
}

// VerifyRefresh decodes a refresh token and returns its claims.
func (i *Issuer) VerifyRefresh(tokenStr string) (*Claims, error) {
	return i.verify(tokenStr, tokenTypeRefresh)
}

func (i *Issuer) verify(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Auth("token has expired")
		}
		return nil, apperr.Auth("token is invalid")
	}
	if !token.Valid {
		return nil, apperr.Auth("token is invalid")
	}
	if claims.TokenType != wantType {
		return nil, apperr.Auth("wrong token type")
	}
	if claims.Subject == "" {
		return nil, apperr.Auth("token carries no subject")
	}
	return claims, nil
}
