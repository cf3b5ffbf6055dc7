package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/apperr"
	"github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/validation"
)

// InvitationMailer sends invitation emails to new users
type InvitationMailer interface {
	SendInvitationEmail(to, fullName string, role model.Role) error
}

// InvitationService handles admin-driven onboarding: an admin invites an
// email address with a role, and the invitee later registers against that
// invitation to activate the account.
type InvitationService struct {
	store  InvitationStore
	audit  *AuditRecorder
	mailer InvitationMailer
}

// NewInvitationService creates a new invitation service. mailer may be nil
// when invitation emails are disabled.
func NewInvitationService(store InvitationStore, audit *AuditRecorder, mailer InvitationMailer) *InvitationService {
	return &InvitationService{
		store:  store,
		audit:  audit,
		mailer: mailer,
	}
}

// InviteInput carries the fields of a new invitation
type InviteInput struct {
	Email         string
	FullName      string
	Role          model.Role
	InstitutionID *uuid.UUID
}

// Invite creates a pending invitation plus the matching inactive profile in
// one transaction. The invitation email goes out only after the commit.
func (s *InvitationService) Invite(ctx context.Context, actor *model.Profile, input InviteInput) (*model.AuthorizedInvitation, error) {
	if !actor.Role.CanManageUsers() {
		return nil, apperr.PermissionDenied("Only admins can invite users")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !validation.ValidateEmail(email) {
		return nil, apperr.Validation("A valid email address is required")
	}
	if !input.Role.Valid() {
		return nil, apperr.Validation("Unknown role")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, apperr.Validation("Full name is required")
	}

	invitation := &model.AuthorizedInvitation{
		Email:         email,
		FullName:      input.FullName,
		Role:          input.Role,
		InstitutionID: input.InstitutionID,
		Status:        model.InvitationPending,
		InvitedBy:     &actor.ID,
	}
	profile := &model.Profile{
		Email:         email,
		FullName:      input.FullName,
		Role:          input.Role,
		InstitutionID: input.InstitutionID,
	}

	err := s.store.InTransaction(ctx, func(tx TxStores) error {
		if _, err := tx.ProfileByEmail(ctx, email); err == nil {
			return apperr.Duplicate("A user with this email already exists")
		} else if !errors.Is(err, ErrRecordNotFound) {
			return apperr.Internal("failed to check existing profile", err)
		}

		if err := tx.CreateInvitation(ctx, invitation); err != nil {
			if errors.Is(err, ErrDuplicateRecord) {
				return apperr.Duplicate("This email has already been invited")
			}
			return apperr.Internal("failed to create invitation", err)
		}
		if err := tx.CreateProfile(ctx, profile); err != nil {
			if errors.Is(err, ErrDuplicateRecord) {
				return apperr.Duplicate("A user with this email already exists")
			}
			return apperr.Internal("failed to create profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actor.ID, "invite", "profile", profile.ID, map[string]interface{}{
		"email": email,
		"role":  string(input.Role),
	})

	if s.mailer != nil {
		if err := s.mailer.SendInvitationEmail(email, input.FullName, input.Role); err != nil {
			log.Printf("email: failed to send invitation to %s: %v", email, err)
		}
	}

	return invitation, nil
}

// Register activates a pending invitation: the invitee sets their password
// and the invitation flips to registered.
func (s *InvitationService) Register(ctx context.Context, email, password string) (*model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	invitation, err := s.store.InvitationByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.PermissionDenied("This email has not been invited")
		}
		return nil, apperr.Internal("failed to load invitation", err)
	}
	if invitation.Status != model.InvitationPending {
		return nil, apperr.BusinessLogic("This invitation has already been used")
	}

	profile, err := s.store.ProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, apperr.NotFound("Profile not found for this invitation")
		}
		return nil, apperr.Internal("failed to load profile", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperr.Validation("Password must be at least 8 characters")
		}
		return nil, apperr.Internal("failed to hash password", err)
	}

	err = s.store.InTransaction(ctx, func(tx TxStores) error {
		profile.PasswordHash = hash
		if err := tx.SaveProfile(ctx, profile); err != nil {
			return apperr.Internal("failed to save profile", err)
		}
		invitation.Status = model.InvitationRegistered
		if err := tx.SaveInvitation(ctx, invitation); err != nil {
			return apperr.Internal("failed to update invitation", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &profile.ID, "register", "profile", profile.ID, map[string]interface{}{
		"email": email,
	})

	return profile, nil
}

// ListInvitations returns all invitations for the admin view
func (s *InvitationService) ListInvitations(ctx context.Context, actor *model.Profile) ([]model.AuthorizedInvitation, error) {
	if !actor.Role.CanManageUsers() {
		return nil, apperr.PermissionDenied("Only admins can list invitations")
	}
	invitations, err := s.store.ListInvitations(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list invitations", err)
	}
	return invitations, nil
}
