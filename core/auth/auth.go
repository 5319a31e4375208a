package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the subject of every token issued by the login endpoint.
const AdminSubject = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims is the JWT payload.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens for the single admin account.
type Issuer struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewIssuer creates an issuer. An empty secret is rejected since every
// token would then verify.
func NewIssuer(passwordHash, secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set when ADMIN_PASSWORD_HASH is configured")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{passwordHash: passwordHash, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Login checks password and returns a signed token with its expiry.
func (i *Issuer) Login(password string) (string, time.Time, error) {
	if !CheckPasswordHash(password, i.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return i.GenerateToken()
}

// GenerateToken issues an admin token.
func (i *Issuer) GenerateToken() (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   AdminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken verifies a token and returns its claims.
func (i *Issuer) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithSubject(AdminSubject),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
