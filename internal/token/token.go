// Package token issues and validates the signed bearer tokens used by the
// dashboard. Staff and overseer tokens are separate audiences signed with the
// same key; an overseer token never passes staff validation and vice versa.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
)

const (
	audienceStaff    = "curia-staff"
	audienceOverseer = "curia-overseer"
)

// StaffClaims are carried by tokens issued at staff login.
type StaffClaims struct {
	StaffID  string `json:"staff_id"`
	ParishID string `json:"parish_id"`
	jwt.RegisteredClaims
}

// OverseerClaims are carried by tokens issued to diocesan overseers.
type OverseerClaims struct {
	OverseerID string `json:"overseer_id"`
	Name       string `json:"name"`
	Diocese    string `json:"diocese"`
	jwt.RegisteredClaims
}

// Service signs and validates dashboard tokens with a shared HMAC key.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey, issuer string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// IssueStaff creates a signed token for an authenticated staff member.
func (s *Service) IssueStaff(staffID id.StaffID, parishID id.ParishID, now time.Time) (string, error) {
	claims := StaffClaims{
		StaffID:  staffID.String(),
		ParishID: parishID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audienceStaff},
			Subject:   staffID.String(),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// IssueOverseer creates a signed token for a diocesan overseer.
func (s *Service) IssueOverseer(overseerID, name string, diocese id.Diocese, now time.Time) (string, error) {
	claims := OverseerClaims{
		OverseerID: overseerID,
		Name:       name,
		Diocese:    diocese.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audienceOverseer},
			Subject:   overseerID,
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// ValidateStaff parses a staff token and returns its claims.
func (s *Service) ValidateStaff(tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	if err := s.parse(tokenString, audienceStaff, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateOverseer parses an overseer token and returns its claims.
func (s *Service) ValidateOverseer(tokenString string) (*OverseerClaims, error) {
	claims := &OverseerClaims{}
	if err := s.parse(tokenString, audienceOverseer, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) parse(tokenString, audience string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return nil
}
