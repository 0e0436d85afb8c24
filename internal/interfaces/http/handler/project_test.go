package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	projectapp "github.com/erp/progress-billing/internal/application/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/interfaces/http/dto"
	"github.com/erp/progress-billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupProjectRouter(svc *MockProjectService) *gin.Engine {
	h := NewProjectHandler(svc)
	r := newTestRouter()
	r.POST("/projects", h.Create)
	r.GET("/projects/:id", h.Get)
	r.PUT("/projects/:id/customer", h.AssignCustomer)
	r.POST("/projects/:id/boq-lines", h.AddBoQLine)
	r.GET("/projects/:id/boq-lines", h.ListBoQLines)
	r.POST("/projects/:id/boq-lines/import", h.ImportBoQLines)
	return r
}

func TestProjectHandler_Create(t *testing.T) {
	id := newTestIdentity()

	t.Run("creates project", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)
		projectID := uuid.New()
		svc.On("CreateProject", mock.Anything, id.tenantID, id.userID, mock.MatchedBy(func(req projectapp.CreateProjectRequest) bool {
			return req.Code == "PRJ-1" && req.RetentionRate.Equal(decimal.RequireFromString("0.05"))
		})).Return(&projectapp.ProjectResponse{ID: projectID, Code: "PRJ-1"}, nil)

		w := serve(r, id.request(http.MethodPost, "/projects", map[string]any{
			"code":                  "PRJ-1",
			"name":                  "Station B",
			"currency":              "TRY",
			"contract_amount":       "1000000",
			"retention_rate":        "0.05",
			"withholding_tax_rate":  "0.03",
			"security_deposit_rate": "0",
		}))

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, projectID.String(), resp.Data.(map[string]any)["id"])
		svc.AssertExpectations(t)
	})

	t.Run("rate above one is rejected", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)

		w := serve(r, id.request(http.MethodPost, "/projects", map[string]any{
			"code":           "PRJ-1",
			"name":           "Station B",
			"retention_rate": "1.2",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		svc.AssertNotCalled(t, "CreateProject")
	})

	t.Run("requires a user", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)
		anon := testIdentity{tenantID: id.tenantID}

		w := serve(r, anon.request(http.MethodPost, "/projects", map[string]any{"code": "PRJ-1", "name": "x"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("duplicate code", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)
		svc.On("CreateProject", mock.Anything, id.tenantID, id.userID, mock.Anything).
			Return(nil, shared.NewDomainError("ALREADY_EXISTS", "project code already exists"))

		w := serve(r, id.request(http.MethodPost, "/projects", map[string]any{"code": "PRJ-1", "name": "x"}))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))
	})
}

func TestProjectHandler_Get(t *testing.T) {
	id := newTestIdentity()
	svc := new(MockProjectService)
	r := setupProjectRouter(svc)
	missing := uuid.New()
	svc.On("GetProject", mock.Anything, id.tenantID, missing).Return(nil, shared.NewNotFoundError("project"))

	w := serve(r, id.request(http.MethodGet, "/projects/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	w = serve(r, id.request(http.MethodGet, "/projects/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
}

func TestProjectHandler_AssignCustomer(t *testing.T) {
	id := newTestIdentity()
	svc := new(MockProjectService)
	r := setupProjectRouter(svc)
	projectID, customerID := uuid.New(), uuid.New()
	svc.On("AssignCustomer", mock.Anything, id.tenantID, projectID, projectapp.AssignCustomerRequest{
		CustomerID:   customerID,
		CustomerName: "Metro Authority",
	}).Return(&projectapp.ProjectResponse{ID: projectID, CustomerID: &customerID}, nil)

	w := serve(r, id.request(http.MethodPut, "/projects/"+projectID.String()+"/customer", map[string]any{
		"customer_id":   customerID,
		"customer_name": "Metro Authority",
	}))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	w = serve(r, id.request(http.MethodPut, "/projects/"+projectID.String()+"/customer", map[string]any{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_AddBoQLine(t *testing.T) {
	id := newTestIdentity()
	svc := new(MockProjectService)
	r := setupProjectRouter(svc)
	projectID := uuid.New()
	svc.On("AddBoQLine", mock.Anything, id.tenantID, projectID, mock.MatchedBy(func(req projectapp.AddBoQLineRequest) bool {
		return req.ItemCode == "15.150" && req.Quantity.Equal(decimal.NewFromInt(420))
	})).Return(&projectapp.BoQLineResponse{ID: uuid.New(), ItemCode: "15.150"}, nil)

	w := serve(r, id.request(http.MethodPost, "/projects/"+projectID.String()+"/boq-lines", map[string]any{
		"item_code":   "15.150",
		"description": "Concrete",
		"quantity":    "420",
		"unit":        "m3",
		"unit_price":  "2150",
	}))
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)

	w = serve(r, id.request(http.MethodPost, "/projects/"+projectID.String()+"/boq-lines", map[string]any{
		"item_code":   "15.151",
		"description": "Steel",
		"quantity":    "-1",
		"unit":        "t",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_ListBoQLines(t *testing.T) {
	id := newTestIdentity()
	svc := new(MockProjectService)
	r := setupProjectRouter(svc)
	projectID := uuid.New()
	tree := []projectapp.BoQLineResponse{{
		ItemCode: "01",
		Children: []projectapp.BoQLineResponse{{ItemCode: "01.01"}},
	}}
	svc.On("ListBoQLines", mock.Anything, id.tenantID, projectID).Return(tree, nil)

	w := serve(r, id.request(http.MethodGet, "/projects/"+projectID.String()+"/boq-lines", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.([]any)
	require.Len(t, data, 1)
	children := data[0].(map[string]any)["children"].([]any)
	assert.Equal(t, "01.01", children[0].(map[string]any)["item_code"])
}

func multipartRequest(t *testing.T, id testIdentity, path, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.TenantIDHeader, id.tenantID.String())
	req.Header.Set(middleware.UserIDHeader, id.userID.String())
	return req
}

func TestProjectHandler_ImportBoQLines(t *testing.T) {
	id := newTestIdentity()
	projectID := uuid.New()
	path := "/projects/" + projectID.String() + "/boq-lines/import"

	t.Run("imports csv rows", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)
		svc.On("ImportBoQLines", mock.Anything, id.tenantID, projectID, mock.MatchedBy(func(rows []projectapp.ImportBoQLine) bool {
			return len(rows) == 2 && rows[1].ParentItemCode == "01" && rows[1].Row == 3
		})).Return(&projectapp.ImportBoQLinesResponse{ImportedRows: 2}, nil)

		csv := "item_code,parent_item_code,description,quantity,unit,unit_price\n" +
			"01,,Earthworks,1,lot,0\n" +
			"01.01,01,Excavation,250,m3,85.5\n"
		w := serve(r, multipartRequest(t, id, path, "boq.csv", csv))

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("row errors reject the whole sheet", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)

		csv := "item_code,description,quantity,unit,unit_price\n" +
			"01,Earthworks,abc,lot,0\n" +
			",Excavation,250,m3,85.5\n"
		w := serve(r, multipartRequest(t, id, path, "boq.csv", csv))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeImportRows, resp.Error.Code)
		assert.Len(t, resp.Error.Details, 2)
		svc.AssertNotCalled(t, "ImportBoQLines")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)

		w := serve(r, multipartRequest(t, id, path, "boq.txt", "x"))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("missing columns", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)

		w := serve(r, multipartRequest(t, id, path, "boq.csv", "item_code,description\n01,Earthworks\n"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)

		req := id.request(http.MethodPost, path, nil)
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		w := serve(r, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unresolved parent from service", func(t *testing.T) {
		svc := new(MockProjectService)
		r := setupProjectRouter(svc)
		svc.On("ImportBoQLines", mock.Anything, id.tenantID, projectID, mock.Anything).
			Return(nil, shared.NewValidationError("row 2: parent item code 99 not found"))

		csv := "item_code,parent_item_code,description,quantity,unit,unit_price\n01.01,99,Excavation,250,m3,85.5\n"
		w := serve(r, multipartRequest(t, id, path, "boq.csv", csv))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	})
}

func TestBaseHandler_UnknownErrorIsInternal(t *testing.T) {
	id := newTestIdentity()
	svc := new(MockProjectService)
	r := setupProjectRouter(svc)
	projectID := uuid.New()
	svc.On("GetProject", mock.Anything, id.tenantID, projectID).Return(nil, assert.AnError)

	w := serve(r, id.request(http.MethodGet, "/projects/"+projectID.String(), nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestBaseHandler_MissingTenant(t *testing.T) {
	h := NewProjectHandler(new(MockProjectService))
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/projects/:id", h.Get)

	w := serve(r, testIdentity{}.request(http.MethodGet, "/projects/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
