package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatrixValidates(t *testing.T) {
	require.NoError(t, NewDefaultMatrix().Validate())
}

func TestMatrixDefaultDeny(t *testing.T) {
	m := NewDefaultMatrix()

	// Absence of a grant row denies every action, for unknown and known
	// identifiers alike.
	require.False(t, m.HasAccess("ghost_role", FeatureDatabase))
	require.False(t, m.HasAccess(RoleDealerGM, "ghost_feature"))
	require.False(t, m.CanPerform(RoleDealerGM, FeatureDatabase, ActionView))
	require.False(t, m.CanPerform(RoleServiceManager, FeatureWorkshopSurvey, "ghost_action"))
	require.Empty(t, m.AccessibleFeatures("ghost_role"))

	// Admin roles hold no matrix rows; their access lives in the evaluator.
	require.False(t, m.HasAccess(RoleSuperAdmin, FeatureDatabase))
	require.False(t, m.HasAccess(RoleManufacturerAdmin, FeatureAPIRegistration))
}

func TestMatrixStandardGrantShape(t *testing.T) {
	m := NewDefaultMatrix()

	// A listed pair gets view, create and edit but never delete or approve.
	require.True(t, m.CanPerform(RoleServiceManager, FeatureWorkshopSurvey, ActionView))
	require.True(t, m.CanPerform(RoleServiceManager, FeatureWorkshopSurvey, ActionCreate))
	require.True(t, m.CanPerform(RoleServiceManager, FeatureWorkshopSurvey, ActionEdit))
	require.False(t, m.CanPerform(RoleServiceManager, FeatureWorkshopSurvey, ActionDelete))
	require.False(t, m.CanPerform(RoleServiceManager, FeatureWorkshopSurvey, ActionApprove))
}

func TestMatrixRoleAssignments(t *testing.T) {
	m := NewDefaultMatrix()

	expect := map[Role][]Feature{
		RoleDealerGM:         {FeatureAPIRegistration},
		RoleServiceHead:      {FeatureAPIRegistration},
		RoleServiceManager:   {FeatureWorkshopSurvey, FeatureDatabase},
		RoleMasterTechnician: {FeatureMTMeet, FeatureWorkshopSurvey, FeatureTechnicalAwareness, FeatureDatabase},
		RoleWarrantyManager:  {FeatureWorkshopSurvey, FeatureWarrantySurvey, FeatureDatabase},
	}
	for role, features := range expect {
		got := m.AccessibleFeatures(role)
		require.Len(t, got, len(features), "role %s", role)
		for _, want := range features {
			require.True(t, m.HasAccess(role, want), "role %s must see %s", role, want)
		}
	}

	// No dealer role reaches beyond its row.
	require.False(t, m.HasAccess(RoleDealerGM, FeatureDatabase))
	require.False(t, m.HasAccess(RoleServiceHead, FeatureWorkshopSurvey))
	require.False(t, m.HasAccess(RoleServiceManager, FeatureWarrantySurvey))
	require.False(t, m.HasAccess(RoleWarrantyManager, FeatureTechnicalAwareness))
}

func TestMatrixAccessibleFeaturesOrdered(t *testing.T) {
	m := NewDefaultMatrix()
	features := m.AccessibleFeatures(RoleMasterTechnician)
	for i := 1; i < len(features); i++ {
		require.Less(t, features[i-1].DisplayOrder, features[i].DisplayOrder)
	}
}

func TestMatrixRolesGranting(t *testing.T) {
	m := NewDefaultMatrix()

	require.Equal(t,
		[]Role{RoleMasterTechnician, RoleServiceManager, RoleWarrantyManager},
		m.RolesGranting(FeatureWorkshopSurvey))
	require.Equal(t,
		[]Role{RoleDealerGM, RoleServiceHead},
		m.RolesGranting(FeatureAPIRegistration))
	require.Empty(t, m.RolesGranting("ghost_feature"))
}

func TestMatrixRoleClassification(t *testing.T) {
	m := NewDefaultMatrix()

	for _, role := range []Role{RoleDealerGM, RoleServiceHead, RoleServiceManager, RoleMasterTechnician, RoleWarrantyManager} {
		require.True(t, m.IsDealerRole(role))
		require.False(t, m.IsAdminRole(role))
	}
	for _, role := range []Role{RoleManufacturerAdmin, RoleSuperAdmin} {
		require.True(t, m.IsAdminRole(role))
		require.False(t, m.IsDealerRole(role))
	}
	require.False(t, m.IsDealerRole("ghost_role"))
	require.False(t, m.IsAdminRole("ghost_role"))
}

func TestMatrixValidateCatchesDanglingReferences(t *testing.T) {
	bad := NewMatrix(MatrixConfig{
		RoleNames: map[Role]string{"clerk": "Clerk"},
		Grants: map[Role]map[Feature]Grant{
			"clerk": {"ghost_feature": {View: true}},
		},
	})
	require.Error(t, bad.Validate())

	orphanRole := NewMatrix(MatrixConfig{
		Grants: map[Role]map[Feature]Grant{
			"ghost_role": {},
		},
	})
	require.Error(t, orphanRole.Validate())

	orphanAdmin := NewMatrix(MatrixConfig{
		AdminRoles: []Role{"ghost_admin"},
	})
	require.Error(t, orphanAdmin.Validate())
}

func TestRoleDisplayName(t *testing.T) {
	m := NewDefaultMatrix()
	require.Equal(t, "Service Manager", m.RoleDisplayName(RoleServiceManager))
	require.Equal(t, "Night Shift Lead", m.RoleDisplayName("night_shift_lead"))
}
