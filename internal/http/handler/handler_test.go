package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/classifier"
	"docflow/internal/http/middleware"
	"docflow/internal/model"
	"docflow/internal/notify"
	repoMocks "docflow/internal/repository/mocks"
	"docflow/internal/service"
	serviceMocks "docflow/internal/service/mocks"
)

type testApp struct {
	app    *fiber.App
	db     *sql.DB
	dbMock sqlmock.Sqlmock
	svc    *serviceMocks.MockDocumentService
	depts  *repoMocks.MockDepartmentRepository
	users  *repoMocks.MockUserRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ta := &testApp{
		db:     db,
		dbMock: dbMock,
		svc:    new(serviceMocks.MockDocumentService),
		depts:  new(repoMocks.MockDepartmentRepository),
		users:  new(repoMocks.MockUserRepository),
	}
	ta.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	ta.app.Use(middleware.RequestID())
	RegisterRoutes(ta.app, db, ta.svc, ta.depts, ta.users, notify.NewHub())
	return ta
}

// authenticate registers the given user in the mock user repository so
// requests carrying its email pass the identity middleware.
func (ta *testApp) authenticate(user *model.User) {
	ta.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
}

func authedRequest(method, target string, body any, email string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(middleware.UserEmailHeader, email)
	}
	return req
}

func testUser() *model.User {
	return &model.User{ID: "u-1", Email: "owner@corp.vn", Department: "SALES", Role: model.RoleUser}
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ta := newTestApp(t)
		ta.dbMock.ExpectPing().WillReturnError(nil)

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		ta := newTestApp(t)
		ta.dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})

	t.Run("liveness", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestIdentityMiddleware(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents", nil, ""))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ta := newTestApp(t)
		ta.users.On("FindByEmail", mock.Anything, "ghost@corp.vn").Return(nil, sql.ErrNoRows)

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents", nil, "ghost@corp.vn"))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestBeginUploadRoute(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ta := newTestApp(t)
		ta.authenticate(testUser())
		ta.svc.On("BeginUpload", mock.Anything, "invoice.pdf", "application/pdf").
			Return(&service.UploadIntent{DocumentID: "doc-1", UploadURL: "https://store/upload"}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/uploads",
			map[string]string{"filename": "invoice.pdf", "filetype": "application/pdf"}, "owner@corp.vn"))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var body service.UploadIntent
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://store/upload", body.UploadURL)
	})

	t.Run("invalid request", func(t *testing.T) {
		ta := newTestApp(t)
		ta.authenticate(testUser())
		ta.svc.On("BeginUpload", mock.Anything, "", "").
			Return(nil, service.ErrInvalidRequest)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/uploads",
			map[string]string{}, "owner@corp.vn"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_REQUEST", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
	})
}

func TestCompleteUploadRoute(t *testing.T) {
	id := uuid.NewString()

	t.Run("dispatches", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("CompleteUpload", mock.Anything, id, user).
			Return(&service.DispatchConfirmation{
				Document:   &model.Document{ID: id, Status: model.StatusPending},
				Dispatched: true,
			}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/"+id+"/complete", nil, user.Email))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body service.DispatchConfirmation
		json.NewDecoder(resp.Body).Decode(&body)
		assert.True(t, body.Dispatched)
	})

	t.Run("invalid id", func(t *testing.T) {
		ta := newTestApp(t)
		ta.authenticate(testUser())

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/not-a-uuid/complete", nil, "owner@corp.vn"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestClassifierWebhookRoute(t *testing.T) {
	id := uuid.NewString()

	t.Run("routes without identity header", func(t *testing.T) {
		ta := newTestApp(t)
		ta.svc.On("HandleClassifierCallback", mock.Anything, mock.MatchedBy(func(cb classifier.CallbackPayload) bool {
			return cb.DocumentID == id && cb.Classification == "hoa_don" && cb.Success &&
				cb.PrivacyReport != nil && !cb.PrivacyReport.HasPII
		})).Return(&service.RoutingOutcome{NewKey: "departments/SALES/x.pdf", Scope: "SALES"}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/webhooks/classifier", map[string]any{
			"document_id":    id,
			"classification": "hoa_don",
			"gdpr_analysis":  map[string]bool{"has_pii": false},
		}, ""))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body service.RoutingOutcome
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SALES", body.Scope)
	})

	t.Run("explicit failure flag", func(t *testing.T) {
		ta := newTestApp(t)
		ta.svc.On("HandleClassifierCallback", mock.Anything, mock.MatchedBy(func(cb classifier.CallbackPayload) bool {
			return !cb.Success && cb.ErrorReason == "ocr timed out"
		})).Return(&service.RoutingOutcome{Document: &model.Document{ID: id, Status: model.StatusError}}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/webhooks/classifier", map[string]any{
			"document_id":  id,
			"success":      false,
			"error_reason": "ocr timed out",
		}, ""))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown document", func(t *testing.T) {
		ta := newTestApp(t)
		ta.svc.On("HandleClassifierCallback", mock.Anything, mock.Anything).
			Return(nil, service.ErrNotFound)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/webhooks/classifier", map[string]any{
			"document_id": id,
		}, ""))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListDocumentsRoute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("List", mock.Anything, user, 10, 0).
			Return(&service.DocumentListResult{
				Items: []model.Document{{ID: uuid.NewString(), Filename: "test.pdf"}},
				Total: 1,
			}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents", nil, user.Email))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, 1, body.Total)
	})

	t.Run("bad limit", func(t *testing.T) {
		ta := newTestApp(t)
		ta.authenticate(testUser())

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents?limit=abc", nil, "owner@corp.vn"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetDocumentRoutes(t *testing.T) {
	id := uuid.NewString()

	t.Run("forbidden", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("Get", mock.Anything, id, user).Return(nil, service.ErrForbidden)

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents/"+id, nil, user.Email))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FORBIDDEN", body.Error.Code)
	})

	t.Run("status subset", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		label := "hoa_don"
		ta.svc.On("Get", mock.Anything, id, user).
			Return(&model.Document{ID: id, Status: model.StatusProcessed, Classification: &label}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents/"+id+"/status", nil, user.Email))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body statusResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, model.StatusProcessed, body.Status)
		require.NotNil(t, body.Classification)
		assert.Equal(t, "hoa_don", *body.Classification)
	})

	t.Run("view url", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("View", mock.Anything, id, user).Return("https://store/view", nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/documents/"+id+"/view", nil, user.Email))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://store/view", body["view_url"])
	})
}

func TestShareReclassifyProcessRoutes(t *testing.T) {
	id := uuid.NewString()

	t.Run("share", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("Share", mock.Anything, id, user, "LEGAL").Return(nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/"+id+"/share",
			map[string]string{"department": "LEGAL"}, user.Email))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("reclassify", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("Reclassify", mock.Anything, id, user, "hop_dong").
			Return(&service.RoutingOutcome{Folder: "departments/LEGAL/", Scope: "LEGAL"}, nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/"+id+"/reclassify",
			map[string]string{"classification": "hop_dong"}, user.Email))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body service.RoutingOutcome
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "LEGAL", body.Scope)
	})

	t.Run("process accepted", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("RequestProcessing", mock.Anything, id, user).Return(nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodPost, "/documents/"+id+"/process", nil, user.Email))

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	})
}

func TestDeleteDocumentRoute(t *testing.T) {
	id := uuid.NewString()

	t.Run("no content", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("Delete", mock.Anything, id, user).Return(nil)

		resp, _ := ta.app.Test(authedRequest(http.MethodDelete, "/documents/"+id, nil, user.Email))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		ta := newTestApp(t)
		user := testUser()
		ta.authenticate(user)
		ta.svc.On("Delete", mock.Anything, id, user).Return(service.ErrNotFound)

		resp, _ := ta.app.Test(authedRequest(http.MethodDelete, "/documents/"+id, nil, user.Email))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDepartmentsRoute(t *testing.T) {
	ta := newTestApp(t)
	user := testUser()
	ta.authenticate(user)
	ta.depts.On("ListAll", mock.Anything).Return([]model.Department{
		{ID: 1, Name: "SALES", AllowedDocumentTypes: []string{"hoa_don"}},
	}, nil)

	resp, _ := ta.app.Test(authedRequest(http.MethodGet, "/departments", nil, user.Email))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data []model.Department `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "SALES", body.Data[0].Name)
}
