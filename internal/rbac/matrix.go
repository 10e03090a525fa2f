package rbac

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Matrix is the immutable role/feature permission table. It is constructed
// once at process start and passed by reference; absence of a grant row means
// denial for every action.
type Matrix struct {
	features   map[Feature]FeatureInfo
	roleNames  map[Role]string
	adminRoles map[Role]struct{}
	grants     map[Role]map[Feature]Grant
}

// MatrixConfig is the raw material for a Matrix.
type MatrixConfig struct {
	Features   []FeatureInfo
	RoleNames  map[Role]string
	AdminRoles []Role
	Grants     map[Role]map[Feature]Grant
}

// NewMatrix builds a Matrix from config. Call Validate before serving.
func NewMatrix(cfg MatrixConfig) *Matrix {
	m := &Matrix{
		features:   make(map[Feature]FeatureInfo, len(cfg.Features)),
		roleNames:  make(map[Role]string, len(cfg.RoleNames)),
		adminRoles: make(map[Role]struct{}, len(cfg.AdminRoles)),
		grants:     make(map[Role]map[Feature]Grant, len(cfg.Grants)),
	}
	for _, f := range cfg.Features {
		m.features[f.Slug] = f
	}
	for role, name := range cfg.RoleNames {
		m.roleNames[role] = name
	}
	for _, role := range cfg.AdminRoles {
		m.adminRoles[role] = struct{}{}
	}
	for role, byFeature := range cfg.Grants {
		row := make(map[Feature]Grant, len(byFeature))
		for feature, grant := range byFeature {
			row[feature] = grant
		}
		m.grants[role] = row
	}
	return m
}

// standardGrant is the capability set a matrix-listed pair receives by
// default: read and write but no delete and no approve.
var standardGrant = Grant{View: true, Create: true, Edit: true}

// NewDefaultMatrix returns the production permission table for the dealer
// portal.
func NewDefaultMatrix() *Matrix {
	return NewMatrix(MatrixConfig{
		Features: []FeatureInfo{
			{Slug: FeatureAPIRegistration, Name: "API Registration", Description: "Register for API awareness events", Icon: "FileText", Route: "/modules/api-registration", DisplayOrder: 1},
			{Slug: FeatureMTMeet, Name: "MT Meet Registration", Description: "Register for Master Technician meetings", Icon: "Users", Route: "/modules/mt-meet", DisplayOrder: 2},
			{Slug: FeatureWorkshopSurvey, Name: "Workshop Survey", Description: "Submit workshop performance surveys", Icon: "BarChart3", Route: "/modules/workshop-survey", DisplayOrder: 3},
			{Slug: FeatureWarrantySurvey, Name: "Warranty Survey", Description: "Submit warranty related information", Icon: "Shield", Route: "/modules/warranty-survey", DisplayOrder: 4},
			{Slug: FeatureTechnicalAwareness, Name: "Technical Awareness", Description: "Technical awareness and training", Icon: "BookOpen", Route: "/modules/technical-awareness", DisplayOrder: 5},
			{Slug: FeatureDatabase, Name: "Database", Description: "Access to dealer database and records", Icon: "Database", Route: "/modules/database", DisplayOrder: 6},
		},
		RoleNames: map[Role]string{
			RoleDealerGM:          "Dealer GM",
			RoleServiceHead:       "Service Head",
			RoleServiceManager:    "Service Manager",
			RoleMasterTechnician:  "Master Technician",
			RoleWarrantyManager:   "Warranty Manager",
			RoleManufacturerAdmin: "Manufacturer Admin",
			RoleSuperAdmin:        "Super Admin",
		},
		AdminRoles: []Role{RoleManufacturerAdmin, RoleSuperAdmin},
		Grants: map[Role]map[Feature]Grant{
			RoleDealerGM: {
				FeatureAPIRegistration: standardGrant,
			},
			RoleServiceHead: {
				FeatureAPIRegistration: standardGrant,
			},
			RoleServiceManager: {
				FeatureWorkshopSurvey: standardGrant,
				FeatureDatabase:       standardGrant,
			},
			RoleMasterTechnician: {
				FeatureMTMeet:             standardGrant,
				FeatureWorkshopSurvey:     standardGrant,
				FeatureTechnicalAwareness: standardGrant,
				FeatureDatabase:           standardGrant,
			},
			RoleWarrantyManager: {
				FeatureWorkshopSurvey: standardGrant,
				FeatureWarrantySurvey: standardGrant,
				FeatureDatabase:       standardGrant,
			},
		},
	})
}

// Validate checks referential integrity once at startup so lookups can stay
// defensive-check free: every granted role has a catalog name and every
// granted feature exists.
func (m *Matrix) Validate() error {
	for role, byFeature := range m.grants {
		if _, ok := m.roleNames[role]; !ok {
			return fmt.Errorf("rbac: grant references unknown role %q", role)
		}
		for feature := range byFeature {
			if _, ok := m.features[feature]; !ok {
				return fmt.Errorf("rbac: grant for role %q references unknown feature %q", role, feature)
			}
		}
	}
	for role := range m.adminRoles {
		if _, ok := m.roleNames[role]; !ok {
			return fmt.Errorf("rbac: admin list references unknown role %q", role)
		}
	}
	return nil
}

// HasAccess reports whether the role holds at least view access to the
// feature. Unknown roles and features yield false, never an error.
func (m *Matrix) HasAccess(role Role, feature Feature) bool {
	return m.grants[role][feature].View
}

// CanPerform reports whether the role may perform the action on the feature.
// Total: absence of data is denial.
func (m *Matrix) CanPerform(role Role, feature Feature, action Action) bool {
	return m.grants[role][feature].Allows(action)
}

// AccessibleFeatures returns the features the role can view, ordered by
// display order. Unknown roles get an empty slice.
func (m *Matrix) AccessibleFeatures(role Role) []FeatureInfo {
	var features []FeatureInfo
	for feature, grant := range m.grants[role] {
		if grant.View {
			features = append(features, m.features[feature])
		}
	}
	sort.Slice(features, func(i, j int) bool {
		return features[i].DisplayOrder < features[j].DisplayOrder
	})
	return features
}

// RolesGranting returns every role with at least view access to the feature,
// sorted for stable administrative reporting. Iterating the whole table is
// fine: the matrix is small and static.
func (m *Matrix) RolesGranting(feature Feature) []Role {
	var roles []Role
	for role, byFeature := range m.grants {
		if byFeature[feature].View {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// IsAdminRole reports whether the role belongs to the manufacturer-side
// administrative set.
func (m *Matrix) IsAdminRole(role Role) bool {
	_, ok := m.adminRoles[role]
	return ok
}

// IsDealerRole reports whether the role is in the catalog and assignable
// through the registration workflow (administrative roles are not).
func (m *Matrix) IsDealerRole(role Role) bool {
	if _, ok := m.roleNames[role]; !ok {
		return false
	}
	return !m.IsAdminRole(role)
}

// AdminRoles returns the administrative role set.
func (m *Matrix) AdminRoles() []Role {
	roles := make([]Role, 0, len(m.adminRoles))
	for role := range m.adminRoles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Features returns the full feature catalog ordered by display order.
func (m *Matrix) Features() []FeatureInfo {
	features := make([]FeatureInfo, 0, len(m.features))
	for _, f := range m.features {
		features = append(features, f)
	}
	sort.Slice(features, func(i, j int) bool {
		return features[i].DisplayOrder < features[j].DisplayOrder
	})
	return features
}

// RoleDisplayName returns the human-readable name of a role, title-casing
// the identifier when the catalog carries no explicit name.
func (m *Matrix) RoleDisplayName(role Role) string {
	if name, ok := m.roleNames[role]; ok {
		return name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(role), "_", " "))
}
