package rbac

// Role identifies a named permission bundle from the deploy-time catalog.
type Role string

// Dealer-side roles assignable through the registration workflow.
const (
	RoleDealerGM         Role = "dealer_gm"
	RoleServiceHead      Role = "service_head"
	RoleServiceManager   Role = "service_manager"
	RoleMasterTechnician Role = "master_technician"
	RoleWarrantyManager  Role = "warranty_manager"
)

// Manufacturer-side administrative roles. These never appear in the feature
// matrix; the evaluator grants them every feature instead.
const (
	RoleManufacturerAdmin Role = "manufacturer_admin"
	RoleSuperAdmin        Role = "super_admin"
)

// Feature identifies a portal module gated by the permission matrix.
type Feature string

const (
	FeatureAPIRegistration    Feature = "api_registration"
	FeatureMTMeet             Feature = "mt_meet"
	FeatureWorkshopSurvey     Feature = "workshop_survey"
	FeatureWarrantySurvey     Feature = "warranty_survey"
	FeatureTechnicalAwareness Feature = "technical_awareness"
	FeatureDatabase           Feature = "database"
)

// Action is a CRUD-style capability on a feature.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

// Grant holds the per-action booleans of a (role, feature) pair.
type Grant struct {
	View    bool
	Create  bool
	Edit    bool
	Delete  bool
	Approve bool
}

// Allows reports whether the grant permits the given action. Unknown actions
// are denied.
func (g Grant) Allows(action Action) bool {
	switch action {
	case ActionView:
		return g.View
	case ActionCreate:
		return g.Create
	case ActionEdit:
		return g.Edit
	case ActionDelete:
		return g.Delete
	case ActionApprove:
		return g.Approve
	default:
		return false
	}
}

// FeatureInfo carries the presentation metadata of a feature. None of it is
// consulted by authorization decisions.
type FeatureInfo struct {
	Slug         Feature `json:"slug"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Icon         string  `json:"icon"`
	Route        string  `json:"route"`
	DisplayOrder int     `json:"displayOrder"`
}

// ApprovalStatus is the account-level gate distinct from role grants.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)
