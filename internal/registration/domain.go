package registration

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerlink/dealerlink/internal/rbac"
)

// Status is the workflow state of a registration request.
type Status string

const (
	StatusPending          Status = "pending"
	StatusUnderReview      Status = "under_review"
	StatusMoreInfoRequired Status = "more_info_required"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ReviewStatus reports whether the status is a valid target for the review
// operation. Terminal targets go through Approve/Reject instead.
func (s Status) ReviewStatus() bool {
	return s == StatusUnderReview || s == StatusMoreInfoRequired
}

// Request represents a pending application for a dealer-side account.
type Request struct {
	ID                 uuid.UUID `json:"id"`
	DealerCode         string    `json:"dealerCode"`
	DealerName         string    `json:"dealerName"`
	ContactName        string    `json:"contactPersonName"`
	ContactEmail       string    `json:"contactPersonEmail"`
	ContactPhone       string    `json:"contactPersonPhone"`
	ContactDesignation string    `json:"contactPersonDesignation,omitempty"`
	Address            string    `json:"address"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	Country            string    `json:"country"`
	PostalCode         string    `json:"postalCode"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	Brand              string    `json:"brand"`
	BusinessRegNumber  string    `json:"businessRegistrationNumber,omitempty"`
	GSTNumber          string    `json:"gstNumber,omitempty"`
	PANNumber          string    `json:"panNumber,omitempty"`
	RequestedRole      rbac.Role `json:"requestedRole"`
	AdditionalInfo     string    `json:"additionalInfo,omitempty"`

	Status          Status     `json:"status"`
	ReviewComments  string     `json:"reviewComments,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ReviewedBy      *int64     `json:"reviewedBy,omitempty"`
	ApprovedBy      *int64     `json:"approvedBy,omitempty"`
	DealerID        *int64     `json:"dealerId,omitempty"`
	UserID          *int64     `json:"userId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
}

// Audit actions recorded on transitions.
const (
	AuditActionCreated  = "created"
	AuditActionReviewed = "reviewed"
	AuditActionApproved = "approved"
	AuditActionRejected = "rejected"
)

// AuditEntry is an immutable record of one workflow transition. Entries are
// append-only; nothing updates or deletes them.
type AuditEntry struct {
	ID             int64     `json:"id"`
	RequestID      uuid.UUID `json:"requestId"`
	Action         string    `json:"action"`
	ActorID        *int64    `json:"performedBy,omitempty"`
	PreviousStatus Status    `json:"previousStatus"`
	NewStatus      Status    `json:"newStatus"`
	Comments       string    `json:"comments,omitempty"`
	IP             string    `json:"ipAddress,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Actor identifies the administrator driving a transition.
type Actor struct {
	ID    int64
	Email string
}

// ClientMeta carries request origin details into the audit trail.
type ClientMeta struct {
	IP        string
	UserAgent string
}
