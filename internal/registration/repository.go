package registration

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealerlink/dealerlink/internal/rbac"
	"github.com/dealerlink/dealerlink/internal/shared"
)

// Repository defines persistence for registration requests and their audit
// trail. The Tx-suffixed methods participate in the approval transaction.
type Repository interface {
	Insert(ctx context.Context, req *Request) error
	Get(ctx context.Context, id uuid.UUID) (*Request, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Request, error)
	OpenRequestExists(ctx context.Context, dealerCode, email string) (bool, error)
	ReviewIfOpen(ctx context.Context, id uuid.UUID, status Status, reviewerID int64, comments string) (bool, error)
	RejectIfOpen(ctx context.Context, id uuid.UUID, reviewerID int64, reason string) (bool, error)
	ApproveTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected Status, approverID, dealerID, userID int64, comments string) (bool, error)
	AppendAudit(ctx context.Context, entry AuditEntry) error
	AppendAuditTx(ctx context.Context, tx pgx.Tx, entry AuditEntry) error
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)
	AuditTrail(ctx context.Context, id uuid.UUID) ([]AuditEntry, error)
}

// ListFilter narrows the administrative request listing.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const requestColumns = `id, dealer_code, dealer_name, contact_person_name, contact_person_email,
contact_person_phone, contact_person_designation, address, city, state, country, postal_code,
phone, email, brand, business_registration_number, gst_number, pan_number, requested_role,
additional_info, status, review_comments, rejection_reason, reviewed_by, approved_by,
dealer_id, user_id, created_at, updated_at, reviewed_at, approved_at`

// Insert stores a freshly submitted request.
func (r *PGRepository) Insert(ctx context.Context, req *Request) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO dealer_registration_requests (
	id, dealer_code, dealer_name, contact_person_name, contact_person_email,
	contact_person_phone, contact_person_designation, address, city, state, country,
	postal_code, phone, email, brand, business_registration_number, gst_number,
	pan_number, requested_role, additional_info, status
) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14, $15,
	NULLIF($16, ''), NULLIF($17, ''), NULLIF($18, ''), $19, NULLIF($20, ''), $21)`,
		req.ID, req.DealerCode, req.DealerName, req.ContactName, req.ContactEmail,
		req.ContactPhone, req.ContactDesignation, req.Address, req.City, req.State, req.Country,
		req.PostalCode, req.Phone, req.Email, req.Brand, req.BusinessRegNumber, req.GSTNumber,
		req.PANNumber, string(req.RequestedRole), req.AdditionalInfo, string(req.Status))
	return err
}

// Get fetches a request by id.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM dealer_registration_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// GetForUpdateTx fetches a request with a row lock inside the approval
// transaction so two concurrent approvals serialize.
func (r *PGRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Request, error) {
	row := tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM dealer_registration_requests WHERE id = $1 FOR UPDATE`, id)
	return scanRequest(row)
}

// OpenRequestExists reports whether a non-rejected request shares the dealer
// code or contact email. Rejected requests do not block resubmission.
func (r *PGRepository) OpenRequestExists(ctx context.Context, dealerCode, email string) (bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM dealer_registration_requests
WHERE (dealer_code = $1 OR contact_person_email = $2) AND status <> 'rejected' LIMIT 1`,
		dealerCode, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReviewIfOpen moves the request to a review status unless it is already
// terminal. Returns false when no row transitioned.
func (r *PGRepository) ReviewIfOpen(ctx context.Context, id uuid.UUID, status Status, reviewerID int64, comments string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE dealer_registration_requests
SET status = $2, reviewed_by = $3, reviewed_at = NOW(), review_comments = NULLIF($4, ''), updated_at = NOW()
WHERE id = $1 AND status NOT IN ('approved', 'rejected')`,
		id, string(status), reviewerID, comments)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RejectIfOpen finalises the request as rejected unless already terminal.
func (r *PGRepository) RejectIfOpen(ctx context.Context, id uuid.UUID, reviewerID int64, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE dealer_registration_requests
SET status = 'rejected', reviewed_by = $2, reviewed_at = NOW(), rejection_reason = $3, updated_at = NOW()
WHERE id = $1 AND status NOT IN ('approved', 'rejected')`,
		id, reviewerID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApproveTx finalises the request inside the approval transaction. The status
// guard makes the terminal transition exactly-once even without the row lock.
func (r *PGRepository) ApproveTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected Status, approverID, dealerID, userID int64, comments string) (bool, error) {
	tag, err := tx.Exec(ctx, `UPDATE dealer_registration_requests
SET status = 'approved', approved_by = $3, approved_at = NOW(), dealer_id = $4, user_id = $5,
	review_comments = NULLIF($6, ''), updated_at = NOW()
WHERE id = $1 AND status = $2 AND status NOT IN ('approved', 'rejected')`,
		id, string(expected), approverID, dealerID, userID, comments)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AppendAudit writes a transition record.
func (r *PGRepository) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return appendAudit(ctx, r.pool, entry)
}

// AppendAuditTx writes a transition record within the approval transaction.
func (r *PGRepository) AppendAuditTx(ctx context.Context, tx pgx.Tx, entry AuditEntry) error {
	return appendAudit(ctx, tx, entry)
}

// List returns a page of requests plus the unfiltered total for pagination.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	query := `SELECT ` + requestColumns + ` FROM dealer_registration_requests`
	countQuery := `SELECT COUNT(*) FROM dealer_registration_requests`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		countQuery += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit) + ` OFFSET ` + strconv.Itoa(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// AuditTrail returns the request's transition history, newest first.
func (r *PGRepository) AuditTrail(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, request_id, action, performed_by, previous_status, new_status,
	COALESCE(comments, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
FROM dealer_registration_audit_log WHERE request_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var previous, next string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Action, &e.ActorID, &previous, &next,
			&e.Comments, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PreviousStatus = Status(previous)
		e.NewStatus = Status(next)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func appendAudit(ctx context.Context, q execQuerier, entry AuditEntry) error {
	_, err := q.Exec(ctx, `INSERT INTO dealer_registration_audit_log (
	request_id, action, performed_by, previous_status, new_status, comments, ip_address, user_agent
) VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))`,
		entry.RequestID, entry.Action, entry.ActorID, string(entry.PreviousStatus),
		string(entry.NewStatus), entry.Comments, entry.IP, entry.UserAgent)
	return err
}

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	var designation, businessReg, gst, pan, additional, comments, reason *string
	var role, status string
	var reviewedAt, approvedAt *time.Time
	err := row.Scan(&req.ID, &req.DealerCode, &req.DealerName, &req.ContactName, &req.ContactEmail,
		&req.ContactPhone, &designation, &req.Address, &req.City, &req.State, &req.Country, &req.PostalCode,
		&req.Phone, &req.Email, &req.Brand, &businessReg, &gst, &pan, &role,
		&additional, &status, &comments, &reason, &req.ReviewedBy, &req.ApprovedBy,
		&req.DealerID, &req.UserID, &req.CreatedAt, &req.UpdatedAt, &reviewedAt, &approvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRequestNotFound
		}
		return nil, err
	}
	req.RequestedRole = rbac.Role(role)
	req.Status = Status(status)
	req.ContactDesignation = deref(designation)
	req.BusinessRegNumber = deref(businessReg)
	req.GSTNumber = deref(gst)
	req.PANNumber = deref(pan)
	req.AdditionalInfo = deref(additional)
	req.ReviewComments = deref(comments)
	req.RejectionReason = deref(reason)
	req.ReviewedAt = reviewedAt
	req.ApprovedAt = approvedAt
	return &req, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
