package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/classroom-service/internal/api/http/handlers"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/auth/authtest"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/observability"
	"github.com/spec-kit/classroom-service/internal/repository"
	"github.com/spec-kit/classroom-service/internal/service"
)

type testServer struct {
	app     *fiber.App
	mock    pgxmock.PgxConnIface
	keys    authtest.KeyPair
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLogger(t, zap.NewNop())
}

func newTestServerWithLogger(t *testing.T, logger *zap.Logger) *testServer {
	t.Helper()

	keys := authtest.NewKeyPair(t)
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)

	gateway := repository.NewGateway(mock, time.Second, zap.NewNop())
	verifier := auth.NewVerifier(config.AuthConfig{PublicKeyPEM: keys.PublicPEM, Issuer: authtest.Issuer})
	classrooms := service.NewClassroomService(service.ClassroomDependencies{
		ClassroomRepo:  gateway,
		MembershipRepo: gateway,
		UserRepo:       gateway,
		Dispatcher:     events.NewInMemoryDispatcher(),
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("classroom-service", "test", gateway, nil),
		Classrooms:     handlers.NewClassroomHandler(classrooms),
		AuthMiddleware: auth.NewAuthMiddleware(verifier, auth.NewResolver(gateway)),
	})

	return &testServer{app: app, mock: mock, keys: keys, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, subject, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if subject != "" {
		req.Header.Set(fiber.HeaderAuthorization, s.keys.Token(t, subject))
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func (s *testServer) expectUser(id int64, email, role string) {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "salt", "first_name", "last_name", "role"}).
			AddRow(id, email, "hash", "salt", "First", "Last", role))
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, raw string) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal([]byte(raw), &body), raw)
	return body
}

func TestUnauthorizedBeforeStoreAccess(t *testing.T) {
	s := newTestServer(t)

	routes := []struct{ method, path string }{
		{fiber.MethodPost, "/classroom/create"},
		{fiber.MethodPost, "/classroom/7/add"},
		{fiber.MethodGet, "/classroom/user/get"},
		{fiber.MethodGet, "/classroom/7/get"},
		{fiber.MethodGet, "/classroom/7/member/get/all"},
		{fiber.MethodDelete, "/classroom/7/member/9/remove"},
	}

	for _, route := range routes {
		status, raw := s.do(t, route.method, route.path, "", "")
		assert.Equal(t, fiber.StatusUnauthorized, status, route.path)
		body := decodeError(t, raw)
		assert.Equal(t, "NOT_AUTHORIZED", body.Error.Code)
		assert.Equal(t, "Missing token", body.Error.Message)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/classroom/user/get", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.jwt")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRequestLogIncludesVerifiedSubject(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newTestServerWithLogger(t, zap.New(core))
	s.expectUser(3, "student@school.test", "STUDENT")
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT c.id, c.name, c.owner_id")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id"}))

	status, _ := s.do(t, fiber.MethodGet, "/classroom/user/get", "3", "")
	require.Equal(t, fiber.StatusOK, status)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "3", entries[0].ContextMap()["subject"])
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestUnknownUserIsNotFound(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "salt", "first_name", "last_name", "role"}))

	status, raw := s.do(t, fiber.MethodGet, "/classroom/user/get", "404", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "User not found", decodeError(t, raw).Error.Message)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestCreateClassroom(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(1, "admin@school.test", "ADMIN")
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO classrooms (name, owner_id)")).
		WithArgs("Algebra", int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id"}).AddRow(int64(7), "Algebra", int64(1)))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classroom_users (classroom_id, user_id)")).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectCommit()

	status, raw := s.do(t, fiber.MethodPost, "/classroom/create", "1", `{"name":"Algebra"}`)
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.JSONEq(t, `{"id":7,"name":"Algebra","owner_id":1}`, raw)
	require.NoError(t, s.mock.ExpectationsWereMet())

	assert.Equal(t, int64(1), s.metrics.Snapshot().Requests["/classroom/create|POST|200"])
}

func TestCreateClassroom_StudentForbidden(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(3, "student@school.test", "student")

	status, raw := s.do(t, fiber.MethodPost, "/classroom/create", "3", `{"name":"Algebra"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	body := decodeError(t, raw)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
	assert.Equal(t, "You do not have permission to access this resource", body.Error.Message)
	require.NoError(t, s.mock.ExpectationsWereMet())

	assert.Equal(t, int64(1), s.metrics.Snapshot().Errors["/classroom/create|POST|FORBIDDEN"])
}

func TestCreateClassroom_NameTooLong(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(2, "teacher@school.test", "TEACHER")

	status, raw := s.do(t, fiber.MethodPost, "/classroom/create", "2", `{"name":"`+strings.Repeat("x", 121)+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	body := decodeError(t, raw)
	assert.Equal(t, "BAD_REQUEST", body.Error.Code)
	assert.Equal(t, "must be at most 120 characters", body.Error.Details["name"])
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestAddMember(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(2, "teacher@school.test", "TEACHER")
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id"}).AddRow(int64(7), "Geometry", int64(2)))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "salt", "first_name", "last_name", "role"}).
			AddRow(int64(9), "a@b.com", "hash", "salt", "Barbara", "Liskov", "STUDENT"))
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM classroom_users")).
		WithArgs(int64(7), int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "classroom_id", "user_id"}))
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO classroom_users (classroom_id, user_id)")).
		WithArgs(int64(7), int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "classroom_id", "user_id"}).AddRow(int64(31), int64(7), int64(9)))
	s.mock.ExpectCommit()

	status, raw := s.do(t, fiber.MethodPost, "/classroom/7/add", "2", `{"email":"a@b.com"}`)
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.Equal(t, "User added to classroom", raw)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestAddMember_Duplicate(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(2, "teacher@school.test", "TEACHER")
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id"}).AddRow(int64(7), "Geometry", int64(2)))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("a@b.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password", "salt", "first_name", "last_name", "role"}).
			AddRow(int64(9), "a@b.com", "hash", "salt", "Barbara", "Liskov", "STUDENT"))
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM classroom_users")).
		WithArgs(int64(7), int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "classroom_id", "user_id"}).AddRow(int64(31), int64(7), int64(9)))
	s.mock.ExpectRollback()

	status, raw := s.do(t, fiber.MethodPost, "/classroom/7/add", "2", `{"email":"a@b.com"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "User already in classroom", decodeError(t, raw).Error.Message)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestAddMember_NotOwnerForbiddenBeforeBody(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(1, "admin@school.test", "ADMIN")
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM classrooms WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id"}).AddRow(int64(7), "Geometry", int64(2)))

	status, _ := s.do(t, fiber.MethodPost, "/classroom/7/add", "1", `not json`)
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestAddMember_StudentForbiddenWithoutClassroomLookup(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(3, "student@school.test", "STUDENT")

	status, raw := s.do(t, fiber.MethodPost, "/classroom/7/add", "3", `{"email":"a@b.com"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", decodeError(t, raw).Error.Code)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestListOwnClassrooms(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(3, "student@school.test", "STUDENT")
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT c.id, c.name, c.owner_id")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id"}))

	status, raw := s.do(t, fiber.MethodGet, "/classroom/user/get", "3", "")
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.JSONEq(t, `[]`, raw)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestGetClassroom_NonMemberIsNotFound(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(5, "outsider@school.test", "STUDENT")
	s.mock.ExpectQuery(regexp.QuoteMeta("JOIN classroom_users cu ON cu.classroom_id = c.id")).
		WithArgs(int64(5), int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id", "membership_id"}))

	status, raw := s.do(t, fiber.MethodGet, "/classroom/7/get", "5", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	body := decodeError(t, raw)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "Classroom not found", body.Error.Message)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestGetClassroom_InvalidID(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(5, "outsider@school.test", "STUDENT")

	status, raw := s.do(t, fiber.MethodGet, "/classroom/abc/get", "5", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "classroom id must be a positive integer", decodeError(t, raw).Error.Message)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestListMembers(t *testing.T) {
	s := newTestServer(t)
	s.expectUser(2, "teacher@school.test", "TEACHER")
	s.mock.ExpectQuery(regexp.QuoteMeta("JOIN classroom_users cu ON cu.user_id = u.id")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "first_name", "last_name", "role"}).
			AddRow(int64(2), "teacher@school.test", "Grace", "Hopper", "TEACHER").
			AddRow(int64(9), "a@b.com", "Barbara", "Liskov", "STUDENT"))

	status, raw := s.do(t, fiber.MethodGet, "/classroom/7/member/get/all", "2", "")
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.JSONEq(t, `[
		{"id":2,"email":"teacher@school.test","first_name":"Grace","last_name":"Hopper","role":"TEACHER"},
		{"id":9,"email":"a@b.com","first_name":"Barbara","last_name":"Liskov","role":"STUDENT"}
	]`, raw)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRemoveMember(t *testing.T) {
	s := newTestServer(t)
	remove := regexp.QuoteMeta("DELETE FROM classroom_users WHERE classroom_id = $1 AND user_id = $2")

	s.expectUser(2, "teacher@school.test", "TEACHER")
	s.mock.ExpectExec(remove).WithArgs(int64(7), int64(9)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	s.expectUser(2, "teacher@school.test", "TEACHER")
	s.mock.ExpectExec(remove).WithArgs(int64(7), int64(9)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	status, raw := s.do(t, fiber.MethodDelete, "/classroom/7/member/9/remove", "2", "")
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.Equal(t, "User removed from classroom", raw)

	status, raw = s.do(t, fiber.MethodDelete, "/classroom/7/member/9/remove", "2", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Member not found", decodeError(t, raw).Error.Message)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, fiber.MethodGet, "/health/live", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, raw, `"alive"`)

	s.mock.ExpectPing()
	status, raw = s.do(t, fiber.MethodGet, "/health/ready", "", "")
	require.Equal(t, fiber.StatusOK, status, raw)
	assert.Contains(t, raw, `"ready"`)
	require.NoError(t, s.mock.ExpectationsWereMet())
}
