package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func approvedPrincipal(roles ...Role) *Principal {
	return &Principal{
		UserID:         42,
		Email:          "tech@dealer.example",
		UserType:       "dealer",
		Roles:          roles,
		ApprovalStatus: ApprovalApproved,
	}
}

func requireDenied(t *testing.T, err error, kind DenialKind) *Denial {
	t.Helper()
	var denial *Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, kind, denial.Kind)
	return denial
}

func TestAuthorizeUnauthenticated(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())
	err := e.Authorize(nil, RequireFeature(FeatureDatabase))
	requireDenied(t, err, DenyUnauthenticated)
}

func TestAuthorizeApprovalGate(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	// The approval gate fires before role and feature checks, even for a
	// principal whose grants would otherwise allow the request.
	pending := approvedPrincipal(RoleServiceManager)
	pending.ApprovalStatus = ApprovalPending
	requireDenied(t, e.Authorize(pending, RequireFeature(FeatureWorkshopSurvey)), DenyApprovalPending)

	rejected := approvedPrincipal(RoleServiceManager)
	rejected.ApprovalStatus = ApprovalRejected
	rejected.RejectionReason = "dealer agreement lapsed"
	denial := requireDenied(t, e.Authorize(rejected, RequireFeature(FeatureWorkshopSurvey)), DenyApprovalRejected)
	require.Equal(t, "dealer agreement lapsed", denial.Reason)

	unknown := approvedPrincipal(RoleSuperAdmin)
	unknown.ApprovalStatus = "limbo"
	requireDenied(t, e.Authorize(unknown, RequireAdmin()), DenyApprovalPending)
}

func TestAuthorizeRoleRequirement(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	p := approvedPrincipal(RoleServiceManager)
	require.NoError(t, e.Authorize(p, RequireRoles(RoleServiceManager)))
	require.NoError(t, e.Authorize(p, RequireRoles(RoleDealerGM, RoleServiceManager)))
	requireDenied(t, e.Authorize(p, RequireRoles(RoleDealerGM)), DenyForbidden)
	requireDenied(t, e.Authorize(approvedPrincipal(), RequireRoles(RoleDealerGM)), DenyForbidden)
}

func TestAuthorizeAdminRequirement(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	require.NoError(t, e.Authorize(approvedPrincipal(RoleSuperAdmin), RequireAdmin()))
	require.NoError(t, e.Authorize(approvedPrincipal(RoleManufacturerAdmin), RequireAdmin()))
	requireDenied(t, e.Authorize(approvedPrincipal(RoleDealerGM), RequireAdmin()), DenyForbidden)
}

func TestAuthorizeFeatureUnion(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	// A multi-role principal holds the union of its roles' grants: either
	// role alone suffices and neither blocks the other.
	p := approvedPrincipal(RoleDealerGM, RoleWarrantyManager)
	require.NoError(t, e.Authorize(p, RequireFeature(FeatureAPIRegistration)))
	require.NoError(t, e.Authorize(p, RequireFeature(FeatureWarrantySurvey)))
	require.NoError(t, e.Authorize(p, RequireFeature(FeatureDatabase)))
	requireDenied(t, e.Authorize(p, RequireFeature(FeatureMTMeet)), DenyFeatureForbidden)

	requireDenied(t, e.Authorize(approvedPrincipal(), RequireFeature(FeatureDatabase)), DenyFeatureForbidden)
}

func TestAuthorizeActionGate(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	p := approvedPrincipal(RoleServiceManager)
	require.NoError(t, e.Authorize(p, RequireFeatureAction(FeatureWorkshopSurvey, ActionCreate)))
	requireDenied(t, e.Authorize(p, RequireFeatureAction(FeatureWorkshopSurvey, ActionDelete)), DenyActionForbidden)

	// Feature denial wins over action denial when both would fire.
	requireDenied(t, e.Authorize(p, RequireFeatureAction(FeatureMTMeet, ActionView)), DenyFeatureForbidden)
}

func TestAuthorizeAdminBypassesMatrix(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	for _, role := range []Role{RoleManufacturerAdmin, RoleSuperAdmin} {
		p := approvedPrincipal(role)
		for _, feature := range []Feature{FeatureAPIRegistration, FeatureMTMeet, FeatureWorkshopSurvey, FeatureWarrantySurvey, FeatureTechnicalAwareness, FeatureDatabase} {
			require.NoError(t, e.Authorize(p, RequireFeature(feature)))
			require.NoError(t, e.Authorize(p, RequireFeatureAction(feature, ActionDelete)))
			require.NoError(t, e.Authorize(p, RequireFeatureAction(feature, ActionApprove)))
		}
	}
}

func TestAccessibleFeaturesUnion(t *testing.T) {
	e := NewEvaluator(NewDefaultMatrix())

	p := approvedPrincipal(RoleServiceManager, RoleWarrantyManager)
	features := e.AccessibleFeatures(p)
	slugs := make([]Feature, len(features))
	for i, f := range features {
		slugs[i] = f.Slug
	}
	// Overlapping grants collapse, ordered by display order.
	require.Equal(t, []Feature{FeatureWorkshopSurvey, FeatureWarrantySurvey, FeatureDatabase}, slugs)

	admin := e.AccessibleFeatures(approvedPrincipal(RoleSuperAdmin))
	require.Len(t, admin, 6)

	require.Empty(t, e.AccessibleFeatures(approvedPrincipal()))
	require.Nil(t, e.AccessibleFeatures(nil))
}

func TestDenialError(t *testing.T) {
	plain := &Denial{Kind: DenyForbidden}
	require.Equal(t, "rbac: forbidden", plain.Error())

	reasoned := &Denial{Kind: DenyApprovalRejected, Reason: "lapsed"}
	require.Equal(t, "rbac: approval_rejected (lapsed)", reasoned.Error())

	var target *Denial
	require.True(t, errors.As(error(plain), &target))
}

func TestRequirementString(t *testing.T) {
	require.Equal(t, "admin", RequireAdmin().String())
	require.Equal(t, "roles:dealer_gm,service_head", RequireRoles(RoleDealerGM, RoleServiceHead).String())
	require.Equal(t, "feature:database", RequireFeature(FeatureDatabase).String())
	require.Equal(t, "feature:mt_meet action:edit", RequireFeatureAction(FeatureMTMeet, ActionEdit).String())
}
