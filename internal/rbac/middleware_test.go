package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	kinds []string
}

func (o *countingObserver) ObserveAuthzDenial(kind string) {
	o.kinds = append(o.kinds, kind)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func doRequest(t *testing.T, mw func(http.Handler) http.Handler, p *Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if p != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), p))
	}
	rr := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestMiddlewareGates(t *testing.T) {
	observer := &countingObserver{}
	mw := Middleware{Evaluator: NewEvaluator(NewDefaultMatrix()), Observer: observer}

	rr := doRequest(t, mw.RequireAdmin(), nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, mw.RequireAdmin(), approvedPrincipal(RoleDealerGM))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, mw.RequireAdmin(), approvedPrincipal(RoleSuperAdmin))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, mw.RequireFeature(FeatureDatabase), approvedPrincipal(RoleServiceManager))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, mw.RequireFeatureAction(FeatureDatabase, ActionDelete), approvedPrincipal(RoleServiceManager))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, mw.RequireRoles(RoleWarrantyManager), approvedPrincipal(RoleServiceManager))
	require.Equal(t, http.StatusForbidden, rr.Code)

	require.Equal(t, []string{
		string(DenyUnauthenticated),
		string(DenyForbidden),
		string(DenyActionForbidden),
		string(DenyForbidden),
	}, observer.kinds)
}

func TestMiddlewareApprovalDenialBodies(t *testing.T) {
	mw := Middleware{Evaluator: NewEvaluator(NewDefaultMatrix())}

	pending := approvedPrincipal(RoleServiceManager)
	pending.ApprovalStatus = ApprovalPending
	rr := doRequest(t, mw.RequireFeature(FeatureDatabase), pending)
	require.Equal(t, http.StatusForbidden, rr.Code)

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Equal(t, "Approval Pending", problem.Title)

	rejected := approvedPrincipal(RoleServiceManager)
	rejected.ApprovalStatus = ApprovalRejected
	rejected.RejectionReason = "dealer agreement lapsed"
	rr = doRequest(t, mw.RequireFeature(FeatureDatabase), rejected)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Equal(t, "Approval Rejected", problem.Title)
	require.Contains(t, problem.Detail, "dealer agreement lapsed")
}
