package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/coverbase/claims/internal/orgcontext"
	"github.com/coverbase/claims/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaimService struct {
	createFn     func(ctx context.Context, oc orgcontext.OrgContext, req claimdomain.CreateClaimRequest) (*claimdomain.Claim, error)
	getFn        func(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error)
	listFn       func(ctx context.Context, oc orgcontext.OrgContext, filter claimdomain.ListClaimsFilter, page pagination.Pagination) (*claimdomain.ListClaimsResult, error)
	listAllFn    func(ctx context.Context, oc orgcontext.OrgContext) ([]claimdomain.Claim, error)
	approveFn    func(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error)
	statsFn      func(ctx context.Context, oc orgcontext.OrgContext) (*claimdomain.Stats, error)
	assessRiskFn func(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.RiskAssessment, error)

	lastOrgContext *orgcontext.OrgContext
}

func (f *fakeClaimService) record(oc orgcontext.OrgContext) {
	f.lastOrgContext = &oc
}

func (f *fakeClaimService) Create(ctx context.Context, oc orgcontext.OrgContext, req claimdomain.CreateClaimRequest) (*claimdomain.Claim, error) {
	f.record(oc)
	if f.createFn != nil {
		return f.createFn(ctx, oc, req)
	}
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Update(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, req claimdomain.UpdateClaimRequest) (*claimdomain.Claim, error) {
	f.record(oc)
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Submit(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
	f.record(oc)
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Review(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
	f.record(oc)
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Approve(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
	f.record(oc)
	if f.approveFn != nil {
		return f.approveFn(ctx, oc, claimID)
	}
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Deny(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
	f.record(oc)
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Close(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
	f.record(oc)
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) Get(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
	f.record(oc)
	if f.getFn != nil {
		return f.getFn(ctx, oc, claimID)
	}
	return nil, claimdomain.ErrNotFound
}

func (f *fakeClaimService) List(ctx context.Context, oc orgcontext.OrgContext, filter claimdomain.ListClaimsFilter, page pagination.Pagination) (*claimdomain.ListClaimsResult, error) {
	f.record(oc)
	if f.listFn != nil {
		return f.listFn(ctx, oc, filter, page)
	}
	return &claimdomain.ListClaimsResult{}, nil
}

func (f *fakeClaimService) ListAll(ctx context.Context, oc orgcontext.OrgContext) ([]claimdomain.Claim, error) {
	f.record(oc)
	if f.listAllFn != nil {
		return f.listAllFn(ctx, oc)
	}
	return nil, nil
}

func (f *fakeClaimService) Events(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]claimdomain.ClaimEvent, error) {
	f.record(oc)
	return nil, nil
}

func (f *fakeClaimService) Stats(ctx context.Context, oc orgcontext.OrgContext) (*claimdomain.Stats, error) {
	f.record(oc)
	if f.statsFn != nil {
		return f.statsFn(ctx, oc)
	}
	return &claimdomain.Stats{}, nil
}

func (f *fakeClaimService) Priority(claim *claimdomain.Claim) claimdomain.Priority {
	return claimdomain.Priority{Label: "MEDIUM", Score: 35}
}

func (f *fakeClaimService) AssessRisk(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.RiskAssessment, error) {
	f.record(oc)
	if f.assessRiskFn != nil {
		return f.assessRiskFn(ctx, oc, claimID)
	}
	return &claimdomain.RiskAssessment{OverallRisk: "LOW"}, nil
}

func (f *fakeClaimService) ListNotes(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]claimdomain.ClaimNote, error) {
	f.record(oc)
	return nil, nil
}

func (f *fakeClaimService) AddNote(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, content string) (*claimdomain.ClaimNote, error) {
	f.record(oc)
	return &claimdomain.ClaimNote{Content: content}, nil
}

func (f *fakeClaimService) ListAttachments(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) ([]claimdomain.ClaimAttachment, error) {
	f.record(oc)
	return nil, nil
}

func (f *fakeClaimService) AddAttachment(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, req claimdomain.AddAttachmentRequest) (*claimdomain.ClaimAttachment, error) {
	f.record(oc)
	return &claimdomain.ClaimAttachment{Filename: req.Filename}, nil
}

func (f *fakeClaimService) DeleteAttachment(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID, attachmentID int64) error {
	f.record(oc)
	return nil
}

func newTestServer(t *testing.T, svc claimdomain.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s := &Server{
		engine:   r,
		claimSvc: svc,
	}
	s.registerAPIRoutes()
	return r
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func memberToken(t *testing.T, orgID string, roles ...string) string {
	rolesAny := make([]any, 0, len(roles))
	for _, r := range roles {
		rolesAny = append(rolesAny, r)
	}
	return signTestToken(t, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": "member@example.com",
		"name":  "Member",
		"organizations": map[string]any{
			orgID: map[string]any{"name": "acme", "roles": rolesAny},
		},
	})
}

func doRequest(r *gin.Engine, method, path, token, orgID string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if orgID != "" {
		req.Header.Set(headerOrganizationID, orgID)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthBypassesAuth(t *testing.T) {
	r := newTestServer(t, &fakeClaimService{})
	w := doRequest(r, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingAuthorization(t *testing.T) {
	r := newTestServer(t, &fakeClaimService{})
	w := doRequest(r, http.MethodGet, "/api/claims", "", uuid.NewString(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGarbageBearerToken(t *testing.T) {
	r := newTestServer(t, &fakeClaimService{})
	w := doRequest(r, http.MethodGet, "/api/claims", "garbage", uuid.NewString(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMissingOrgHeader(t *testing.T) {
	orgID := uuid.NewString()
	r := newTestServer(t, &fakeClaimService{})

	w := doRequest(r, http.MethodGet, "/api/claims", memberToken(t, orgID, "admin"), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "organization id required", resp.Error.Message)
}

func TestNonMemberOrg(t *testing.T) {
	r := newTestServer(t, &fakeClaimService{})

	w := doRequest(r, http.MethodGet, "/api/claims", memberToken(t, uuid.NewString(), "admin"), uuid.NewString(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not a member of requested organization", resp.Error.Message)
}

func TestMemberWithoutRolesGetsContext(t *testing.T) {
	orgID := uuid.NewString()
	fake := &fakeClaimService{}
	r := newTestServer(t, fake)

	w := doRequest(r, http.MethodGet, "/api/claims", memberToken(t, orgID), orgID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, fake.lastOrgContext)
	assert.Equal(t, orgID, fake.lastOrgContext.OrganizationID.String())
	assert.Empty(t, fake.lastOrgContext.Roles)
}

func TestCreateClaimHandler(t *testing.T) {
	orgID := uuid.NewString()
	amount := decimal.NewFromInt(4200)
	created := &claimdomain.Claim{
		ID:          uuid.New(),
		ClaimNumber: "CLM-2026-00001",
		Status:      claimdomain.StatusDraft,
		Type:        claimdomain.TypeAuto,
		Amount:      &amount,
		FiledDate:   time.Now().UTC(),
	}
	fake := &fakeClaimService{
		createFn: func(ctx context.Context, oc orgcontext.OrgContext, req claimdomain.CreateClaimRequest) (*claimdomain.Claim, error) {
			assert.Equal(t, claimdomain.TypeAuto, req.Type)
			assert.Equal(t, "fender bender", req.Description)
			return created, nil
		},
	}
	r := newTestServer(t, fake)

	body := []byte(`{"type":"AUTO","description":"fender bender","amount":4200}`)
	w := doRequest(r, http.MethodPost, "/api/claims", memberToken(t, orgID, "admin"), orgID, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ClaimNumber   string `json:"claim_number"`
			Priority      string `json:"priority"`
			PriorityScore int    `json:"priority_score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CLM-2026-00001", resp.Data.ClaimNumber)
	assert.Equal(t, "MEDIUM", resp.Data.Priority)
	assert.Equal(t, 35, resp.Data.PriorityScore)
}

func TestCreateClaimValidationCollectsViolations(t *testing.T) {
	orgID := uuid.NewString()
	r := newTestServer(t, &fakeClaimService{})

	body := []byte(`{"type":"BOAT","incident_date":"not-a-date","amount":-5}`)
	w := doRequest(r, http.MethodPost, "/api/claims", memberToken(t, orgID, "admin"), orgID, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	assert.Len(t, resp.Error.Errors, 3)
}

func TestUpdateClaimValidationCollectsViolations(t *testing.T) {
	orgID := uuid.NewString()
	r := newTestServer(t, &fakeClaimService{})

	body := []byte(`{"type":"BOAT","incident_date":"not-a-date","amount":-5}`)
	w := doRequest(r, http.MethodPut, "/api/claims/"+uuid.NewString(), memberToken(t, orgID, "admin"), orgID, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	assert.Len(t, resp.Error.Errors, 3)
}

func TestGetClaimBadID(t *testing.T) {
	orgID := uuid.NewString()
	r := newTestServer(t, &fakeClaimService{})

	w := doRequest(r, http.MethodGet, "/api/claims/not-a-uuid", memberToken(t, orgID, "admin"), orgID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListClaimsRejectsUnknownStatus(t *testing.T) {
	orgID := uuid.NewString()
	r := newTestServer(t, &fakeClaimService{})

	w := doRequest(r, http.MethodGet, "/api/claims?status=LOST", memberToken(t, orgID, "admin"), orgID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApproveRouteMapsPermissionError(t *testing.T) {
	orgID := uuid.NewString()
	fake := &fakeClaimService{
		approveFn: func(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
			return nil, &claimdomain.PermissionError{Operation: claimdomain.OpApprove, Required: "admin or billing role"}
		},
	}
	r := newTestServer(t, fake)

	w := doRequest(r, http.MethodPost, "/api/claims/"+uuid.NewString()+"/approve", memberToken(t, orgID, "viewer"), orgID, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "approve requires admin or billing role", resp.Error.Message)
}

func TestTransitionErrorMapsToBadRequest(t *testing.T) {
	orgID := uuid.NewString()
	fake := &fakeClaimService{
		approveFn: func(ctx context.Context, oc orgcontext.OrgContext, claimID uuid.UUID) (*claimdomain.Claim, error) {
			return nil, &claimdomain.TransitionError{Operation: claimdomain.OpApprove, Required: []claimdomain.ClaimStatus{claimdomain.StatusUnderReview}}
		},
	}
	r := newTestServer(t, fake)

	w := doRequest(r, http.MethodPost, "/api/claims/"+uuid.NewString()+"/approve", memberToken(t, orgID, "admin"), orgID, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "can only approve claims in UNDER_REVIEW status", resp.Error.Message)
}

func TestExportClaimsCSV(t *testing.T) {
	orgID := uuid.NewString()
	amount := decimal.RequireFromString("1250.50")
	incident := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	filed := time.Date(2026, time.January, 6, 9, 30, 0, 0, time.UTC)
	fake := &fakeClaimService{
		listAllFn: func(ctx context.Context, oc orgcontext.OrgContext) ([]claimdomain.Claim, error) {
			return []claimdomain.Claim{
				{
					ClaimNumber:  "CLM-2026-00001",
					Type:         claimdomain.TypeAuto,
					Status:       claimdomain.StatusSubmitted,
					Amount:       &amount,
					IncidentDate: &incident,
					FiledDate:    filed,
				},
				{
					ClaimNumber: "CLM-2026-00002",
					Type:        claimdomain.TypeProperty,
					Status:      claimdomain.StatusDraft,
				},
			}, nil
		},
	}
	r := newTestServer(t, fake)

	w := doRequest(r, http.MethodGet, "/api/claims/export", memberToken(t, orgID, "admin"), orgID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="claims-export.csv"`, w.Header().Get("Content-Disposition"))

	want := "Claim Number,Type,Status,Amount,Incident Date,Filed Date,Priority\n" +
		"CLM-2026-00001,AUTO,SUBMITTED,1250.5,2026-01-05,2026-01-06T09:30:00Z,MEDIUM\n" +
		"CLM-2026-00002,PROPERTY,DRAFT,,,,MEDIUM\n"
	assert.Equal(t, want, w.Body.String())
}

func TestStatsHandler(t *testing.T) {
	orgID := uuid.NewString()
	fake := &fakeClaimService{
		statsFn: func(ctx context.Context, oc orgcontext.OrgContext) (*claimdomain.Stats, error) {
			return &claimdomain.Stats{TotalClaims: 7, OpenClaims: 4, ApprovalRate: 66.7}, nil
		},
	}
	r := newTestServer(t, fake)

	w := doRequest(r, http.MethodGet, "/api/claims/stats", memberToken(t, orgID, "viewer"), orgID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data claimdomain.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Data.TotalClaims)
	assert.Equal(t, int64(4), resp.Data.OpenClaims)
}
