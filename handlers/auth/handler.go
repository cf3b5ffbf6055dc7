package auth

import (
	"time"

	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/services"
	authutil "github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/middleware"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklist            *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	invitations          *services.InvitationService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, blacklist *authutil.BlacklistService, bruteForceProtection *middleware.BruteForceProtection, invitations *services.InvitationService) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklist:            blacklist,
		bruteForceProtection: bruteForceProtection,
		invitations:          invitations,
	}
}

// ProfileResponse is the profile shape returned by auth endpoints
type ProfileResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Role          model.Role `json:"role"`
	InstitutionID *string    `json:"institution_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TokenResponse carries a fresh token pair
type TokenResponse struct {
	Profile      ProfileResponse `json:"profile"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int             `json:"expires_in"` // in seconds
}

func toProfileResponse(p *model.Profile) ProfileResponse {
	res := ProfileResponse{
		ID:        p.ID.String(),
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
	if p.InstitutionID != nil {
		id := p.InstitutionID.String()
		res.InstitutionID = &id
	}
	return res
}

func (h *AuthHandler) tokenPair(profile *model.Profile) (*TokenResponse, error) {
	accessToken, _, err := h.jwtManager.GenerateAccessToken(profile.ID, profile.Email, profile.Role, profile.TokenVersion)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(profile.ID, profile.Email, profile.Role, profile.TokenVersion)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		Profile:      toProfileResponse(profile),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    24 * 60 * 60,
	}, nil
}
