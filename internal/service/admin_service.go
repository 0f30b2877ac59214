package service

import (
	"context"
	"strings"

	"parsfix/internal/entity"
	"parsfix/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdminService holds the account operations reserved for ADMIN and
// SUPER_ADMIN principals. Routes gate the caller's role first; the checks
// here cover the relationship between caller and target.
type AdminService struct {
	accounts     repository.AccountRepository
	securityLogs repository.SecurityLogRepository
	logger       logrus.FieldLogger
}

func NewAdminService(
	accounts repository.AccountRepository,
	securityLogs repository.SecurityLogRepository,
	logger logrus.FieldLogger,
) *AdminService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminService{accounts: accounts, securityLogs: securityLogs, logger: logger}
}

// ChangeRole only ever assigns USER or ADMIN; SUPER_ADMIN cannot be granted
// through this path by anyone.
func (s *AdminService) ChangeRole(ctx context.Context, actor entity.Principal, targetID uuid.UUID, role entity.Role) (*entity.Account, error) {
	if role != entity.RoleUser && role != entity.RoleAdmin {
		return nil, ErrRoleNotAssignable
	}
	if actor.Role != entity.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetRole(ctx, target.ID, role); err != nil {
		return nil, err
	}
	s.logSecurity(ctx, target.ID, entity.RoleChanged, map[string]any{
		"actor_id": actor.ID.String(),
		"from":     string(target.Role),
		"to":       string(role),
	})
	target.Role = role
	return target, nil
}

func (s *AdminService) Block(ctx context.Context, actor entity.Principal, targetID uuid.UUID, reason string) (*entity.Account, error) {
	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	var blockReason *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		blockReason = &trimmed
	}
	if err := s.accounts.SetBlocked(ctx, target.ID, true, blockReason); err != nil {
		return nil, err
	}
	s.logSecurity(ctx, target.ID, entity.AccountBlocked, map[string]any{
		"actor_id": actor.ID.String(),
		"reason":   reason,
	})
	target.IsBlocked = true
	target.BlockReason = blockReason
	return target, nil
}

func (s *AdminService) Unblock(ctx context.Context, actor entity.Principal, targetID uuid.UUID) (*entity.Account, error) {
	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetBlocked(ctx, target.ID, false, nil); err != nil {
		return nil, err
	}
	s.logSecurity(ctx, target.ID, entity.AccountUnblocked, map[string]any{"actor_id": actor.ID.String()})
	target.IsBlocked = false
	target.BlockReason = nil
	return target, nil
}

func (s *AdminService) Delete(ctx context.Context, actor entity.Principal, targetID uuid.UUID) error {
	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.logSecurity(ctx, target.ID, entity.AccountDeleted, map[string]any{
		"actor_id": actor.ID.String(),
		"email":    target.Email,
	})
	return nil
}

func (s *AdminService) List(ctx context.Context, limit, offset int) ([]entity.Account, error) {
	return s.accounts.List(ctx, limit, offset)
}

func (s *AdminService) loadTarget(ctx context.Context, actor entity.Principal, targetID uuid.UUID) (*entity.Account, error) {
	if !actor.HasAnyRole(entity.RoleAdmin, entity.RoleSuperAdmin) {
		return nil, ErrForbidden
	}
	if actor.ID == targetID {
		return nil, ErrSelfActionForbidden
	}
	target, err := s.accounts.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrAccountNotFound
	}
	if actor.Role == entity.RoleAdmin && target.Role != entity.RoleUser {
		return nil, ErrForbidden
	}
	return target, nil
}

func (s *AdminService) logSecurity(ctx context.Context, targetID uuid.UUID, action entity.SecurityAction, metadata map[string]any) {
	writeSecurityLog(ctx, s.securityLogs, s.logger, &targetID, nil, action, metadata)
}
