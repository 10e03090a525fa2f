package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dealerlink/dealerlink/internal/dealers"
	"github.com/dealerlink/dealerlink/internal/platform/db"
	"github.com/dealerlink/dealerlink/internal/rbac"
	"github.com/dealerlink/dealerlink/internal/shared"
	"github.com/dealerlink/dealerlink/internal/users"
)

// DealerStore is the slice of the dealers repository the workflow needs.
type DealerStore interface {
	ExistsByCode(ctx context.Context, dealerCode string) (bool, error)
	EnsureTx(ctx context.Context, tx pgx.Tx, dealer dealers.Dealer) (int64, error)
}

// UserStore is the slice of the users repository the workflow needs.
type UserStore interface {
	ActiveEmailExists(ctx context.Context, email string) (bool, error)
	CreateTx(ctx context.Context, tx pgx.Tx, params users.NewUserParams) (int64, error)
	SetApprovalStatusTx(ctx context.Context, tx pgx.Tx, userID int64, status rbac.ApprovalStatus, reason string) error
}

// Notifier enqueues lifecycle notifications. Nil disables them.
type Notifier interface {
	RegistrationEvent(ctx context.Context, event string, requestID uuid.UUID, dealerCode, email, detail string) error
}

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("registration: validation failed (%d fields)", len(e.Fields))
}

// Service drives the registration approval state machine.
type Service struct {
	repo       Repository
	dealerRepo DealerStore
	userRepo   UserStore
	runner     db.Runner
	matrix     *rbac.Matrix
	notify     Notifier
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService constructs the workflow service.
func NewService(repo Repository, dealerRepo DealerStore, userRepo UserStore, runner db.Runner, matrix *rbac.Matrix, notify Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		dealerRepo: dealerRepo,
		userRepo:   userRepo,
		runner:     runner,
		matrix:     matrix,
		notify:     notify,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

// SubmitInput is the public registration form.
type SubmitInput struct {
	DealerCode         string `json:"dealerCode" validate:"required,min=3"`
	DealerName         string `json:"dealerName" validate:"required,min=3"`
	ContactName        string `json:"contactPersonName" validate:"required,min=2"`
	ContactEmail       string `json:"contactPersonEmail" validate:"required,email"`
	ContactPhone       string `json:"contactPersonPhone" validate:"required,min=10"`
	ContactDesignation string `json:"contactPersonDesignation" validate:"omitempty"`
	Address            string `json:"address" validate:"required,min=10"`
	City               string `json:"city" validate:"required,min=2"`
	State              string `json:"state" validate:"required,min=2"`
	Country            string `json:"country" validate:"omitempty"`
	PostalCode         string `json:"postalCode" validate:"required,min=5"`
	Phone              string `json:"phone" validate:"required,min=10"`
	Email              string `json:"email" validate:"required,email"`
	Brand              string `json:"brand" validate:"required,oneof=Volkswagen Skoda Both"`
	BusinessRegNumber  string `json:"businessRegistrationNumber" validate:"omitempty"`
	GSTNumber          string `json:"gstNumber" validate:"omitempty"`
	PANNumber          string `json:"panNumber" validate:"omitempty"`
	RequestedRole      string `json:"requestedRole" validate:"required"`
	AdditionalInfo     string `json:"additionalInfo" validate:"omitempty"`
}

// Submit creates a pending request. Uniqueness guards: no active dealer with
// the code, no active account or non-rejected request with the same
// code/email. Violations abort without creating anything.
func (s *Service) Submit(ctx context.Context, input SubmitInput, meta ClientMeta) (*Request, error) {
	input.DealerCode = strings.ToUpper(strings.TrimSpace(input.DealerCode))
	input.ContactEmail = strings.ToLower(strings.TrimSpace(input.ContactEmail))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Country == "" {
		input.Country = "India"
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, asValidationError(err)
	}
	role := rbac.Role(input.RequestedRole)
	if !s.matrix.IsDealerRole(role) {
		return nil, &ValidationError{Fields: map[string]string{"requestedRole": "unknown or unassignable role"}}
	}

	dealerExists, err := s.dealerRepo.ExistsByCode(ctx, input.DealerCode)
	if err != nil {
		return nil, storage(err)
	}
	if dealerExists {
		return nil, shared.ErrDuplicateRegistration
	}
	emailTaken, err := s.userRepo.ActiveEmailExists(ctx, input.ContactEmail)
	if err != nil {
		return nil, storage(err)
	}
	if emailTaken {
		return nil, shared.ErrDuplicateRegistration
	}
	open, err := s.repo.OpenRequestExists(ctx, input.DealerCode, input.ContactEmail)
	if err != nil {
		return nil, storage(err)
	}
	if open {
		return nil, shared.ErrDuplicateRegistration
	}

	req := &Request{
		ID:                 uuid.New(),
		DealerCode:         input.DealerCode,
		DealerName:         input.DealerName,
		ContactName:        input.ContactName,
		ContactEmail:       input.ContactEmail,
		ContactPhone:       input.ContactPhone,
		ContactDesignation: input.ContactDesignation,
		Address:            input.Address,
		City:               input.City,
		State:              input.State,
		Country:            input.Country,
		PostalCode:         input.PostalCode,
		Phone:              input.Phone,
		Email:              input.Email,
		Brand:              input.Brand,
		BusinessRegNumber:  input.BusinessRegNumber,
		GSTNumber:          input.GSTNumber,
		PANNumber:          input.PANNumber,
		RequestedRole:      role,
		AdditionalInfo:     input.AdditionalInfo,
		Status:             StatusPending,
	}
	if err := s.repo.Insert(ctx, req); err != nil {
		return nil, storage(err)
	}

	s.appendAudit(ctx, AuditEntry{
		RequestID: req.ID,
		Action:    AuditActionCreated,
		NewStatus: StatusPending,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	s.notifyEvent(ctx, "submitted", req.ID, req.DealerCode, req.ContactEmail, "")
	s.logger.Info("registration request submitted",
		slog.String("request_id", req.ID.String()),
		slog.String("dealer_code", req.DealerCode),
	)
	return req, nil
}

// Review moves a non-terminal request to under_review or more_info_required.
// Both review states are revisitable; only approve/reject finalise.
func (s *Service) Review(ctx context.Context, id uuid.UUID, status Status, actor Actor, comments string, meta ClientMeta) error {
	if !status.ReviewStatus() {
		return &ValidationError{Fields: map[string]string{"status": "must be under_review or more_info_required"}}
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFoundOrStorage(err)
	}
	if current.Status.Terminal() {
		return shared.ErrAlreadyTerminal
	}

	moved, err := s.repo.ReviewIfOpen(ctx, id, status, actor.ID, comments)
	if err != nil {
		return storage(err)
	}
	if !moved {
		return shared.ErrAlreadyTerminal
	}

	s.appendAudit(ctx, AuditEntry{
		RequestID:      id,
		Action:         AuditActionReviewed,
		ActorID:        &actor.ID,
		PreviousStatus: current.Status,
		NewStatus:      status,
		Comments:       comments,
		IP:             meta.IP,
		UserAgent:      meta.UserAgent,
	})
	s.logger.Info("registration request reviewed",
		slog.String("request_id", id.String()),
		slog.String("status", string(status)),
		slog.Int64("reviewer", actor.ID),
	)
	return nil
}

// ApproveInput carries the administrator's approval decision.
type ApproveInput struct {
	AdditionalRoles []string `json:"additionalRoles"`
	Comments        string   `json:"comments"`
	DefaultPassword string   `json:"defaultPassword" validate:"required,min=8"`
}

// ApprovalResult reports what the approval created.
type ApprovalResult struct {
	RequestID  uuid.UUID `json:"requestId"`
	DealerID   int64     `json:"dealerId"`
	UserID     int64     `json:"userId"`
	DealerCode string    `json:"dealerCode"`
	Email      string    `json:"email"`
}

// Approve finalises a non-terminal request and provisions the account. The
// side effects run in one transaction: dealer resolve-or-create, user
// creation with hashed credentials, role assignment, approval status, request
// finalisation and the audit entry all commit or roll back together.
// Approving straight from pending is the intended fast path.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, input ApproveInput, actor Actor, meta ClientMeta) (*ApprovalResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, asValidationError(err)
	}

	var result *ApprovalResult
	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		req, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return notFoundOrStorage(err)
		}
		if req.Status.Terminal() {
			return shared.ErrAlreadyTerminal
		}

		roles, err := s.assignableRoles(req.RequestedRole, input.AdditionalRoles)
		if err != nil {
			return err
		}

		dealerID, err := s.dealerRepo.EnsureTx(ctx, tx, dealers.Dealer{
			DealerCode: req.DealerCode,
			Name:       req.DealerName,
			Address:    req.Address,
			City:       req.City,
			State:      req.State,
			Country:    req.Country,
			PostalCode: req.PostalCode,
			Phone:      req.Phone,
			Email:      req.Email,
			Brand:      req.Brand,
		})
		if err != nil {
			return storage(err)
		}

		// The plaintext stops here: only the bcrypt output is persisted and
		// nothing of it reaches the audit trail.
		hash, err := bcrypt.GenerateFromPassword([]byte(input.DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		designation := req.ContactDesignation
		if designation == "" {
			designation = s.matrix.RoleDisplayName(req.RequestedRole)
		}
		userID, err := s.userRepo.CreateTx(ctx, tx, users.NewUserParams{
			Email:        req.ContactEmail,
			PasswordHash: string(hash),
			Name:         req.ContactName,
			UserType:     "dealer",
			DealerID:     dealerID,
			Designation:  designation,
			Roles:        roles,
			CreatedBy:    actor.ID,
		})
		if err != nil {
			return storage(err)
		}
		if err := s.userRepo.SetApprovalStatusTx(ctx, tx, userID, rbac.ApprovalApproved, ""); err != nil {
			return storage(err)
		}

		moved, err := s.repo.ApproveTx(ctx, tx, id, req.Status, actor.ID, dealerID, userID, input.Comments)
		if err != nil {
			return storage(err)
		}
		if !moved {
			return shared.ErrAlreadyTerminal
		}

		if err := s.repo.AppendAuditTx(ctx, tx, AuditEntry{
			RequestID:      id,
			Action:         AuditActionApproved,
			ActorID:        &actor.ID,
			PreviousStatus: req.Status,
			NewStatus:      StatusApproved,
			Comments:       input.Comments,
			IP:             meta.IP,
			UserAgent:      meta.UserAgent,
		}); err != nil {
			return storage(err)
		}

		result = &ApprovalResult{
			RequestID:  id,
			DealerID:   dealerID,
			UserID:     userID,
			DealerCode: req.DealerCode,
			Email:      req.ContactEmail,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyEvent(ctx, "approved", result.RequestID, result.DealerCode, result.Email, "")
	s.logger.Info("registration request approved",
		slog.String("request_id", id.String()),
		slog.String("dealer_code", result.DealerCode),
		slog.Int64("approver", actor.ID),
	)
	return result, nil
}

// Reject finalises a non-terminal request with a reason. No account is
// created or modified; resubmission with the same dealer code stays open.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string, actor Actor, meta ClientMeta) error {
	if len(strings.TrimSpace(reason)) < 10 {
		return &ValidationError{Fields: map[string]string{"reason": "rejection reason of at least 10 characters is required"}}
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFoundOrStorage(err)
	}
	if current.Status.Terminal() {
		return shared.ErrAlreadyTerminal
	}

	moved, err := s.repo.RejectIfOpen(ctx, id, actor.ID, reason)
	if err != nil {
		return storage(err)
	}
	if !moved {
		return shared.ErrAlreadyTerminal
	}

	s.appendAudit(ctx, AuditEntry{
		RequestID:      id,
		Action:         AuditActionRejected,
		ActorID:        &actor.ID,
		PreviousStatus: current.Status,
		NewStatus:      StatusRejected,
		Comments:       reason,
		IP:             meta.IP,
		UserAgent:      meta.UserAgent,
	})
	s.notifyEvent(ctx, "rejected", id, current.DealerCode, current.ContactEmail, reason)
	s.logger.Info("registration request rejected",
		slog.String("request_id", id.String()),
		slog.Int64("reviewer", actor.ID),
	)
	return nil
}

// Get returns a request with its audit trail.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, []AuditEntry, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, notFoundOrStorage(err)
	}
	trail, err := s.repo.AuditTrail(ctx, id)
	if err != nil {
		return nil, nil, storage(err)
	}
	return req, trail, nil
}

// List returns a page of requests and the total matching count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, storage(err)
	}
	return requests, total, nil
}

// assignableRoles merges the requested role with administrator-selected
// extras, deduplicating; duplicates are a no-op, unknown roles an error.
func (s *Service) assignableRoles(primary rbac.Role, additional []string) ([]rbac.Role, error) {
	seen := map[rbac.Role]struct{}{primary: {}}
	roles := []rbac.Role{primary}
	for _, raw := range additional {
		role := rbac.Role(strings.TrimSpace(raw))
		if !s.matrix.IsDealerRole(role) {
			return nil, &ValidationError{Fields: map[string]string{"additionalRoles": fmt.Sprintf("unknown or unassignable role %q", role)}}
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

func (s *Service) appendAudit(ctx context.Context, entry AuditEntry) {
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		s.logger.Error("append registration audit",
			slog.String("request_id", entry.RequestID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *Service) notifyEvent(ctx context.Context, event string, id uuid.UUID, dealerCode, email, detail string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.RegistrationEvent(ctx, event, id, dealerCode, email, detail); err != nil {
		s.logger.Warn("enqueue registration notification",
			slog.String("request_id", id.String()),
			slog.String("event", event),
			slog.Any("error", err),
		)
	}
}

func storage(err error) error {
	return fmt.Errorf("%w: %v", shared.ErrStorage, err)
}

func notFoundOrStorage(err error) error {
	if errors.Is(err, shared.ErrRequestNotFound) {
		return err
	}
	return storage(err)
}

func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return &ValidationError{Fields: fields}
}
