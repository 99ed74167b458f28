package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
)

// tokenIssuer, access token'ların "iss" claim'i.
const tokenIssuer = "readsync"

// AuthService, yerel UI API'sinin erişim token'larını üretir ve doğrular.
//
// Oturum tek bir yerel kullanıcıya aittir. Token HS256 ile imzalanır ve
// sadece oturum kullanıcısı için geçerlidir: başka bir user_id taşıyan
// geçerli imzalı token bile ErrForbidden ile reddedilir.
type AuthService interface {
	IssueAccessToken() (string, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type authService struct {
	jwtSecret   []byte
	localUserID string
	accessExp   time.Duration
	now         func() time.Time
}

// NewAuthService, constructor.
func NewAuthService(jwtSecret, localUserID string, accessExp time.Duration) AuthService {
	return &authService{
		jwtSecret:   []byte(jwtSecret),
		localUserID: localUserID,
		accessExp:   accessExp,
		now:         time.Now,
	}
}

// IssueAccessToken, oturum kullanıcısı için imzalı bir access token üretir.
func (s *authService) IssueAccessToken() (string, error) {
	now := s.now()
	claims := &models.TokenClaims{
		UserID: s.localUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.localUserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	if claims.UserID != s.localUserID {
		return nil, fmt.Errorf("%w: token belongs to another user", pkg.ErrForbidden)
	}

	return claims, nil
}
