package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qrevent/qrevent/internal/auth"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/service"
	"github.com/qrevent/qrevent/internal/store"
	"github.com/qrevent/qrevent/internal/ticketing"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Store
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(db)
	t.Cleanup(func() { _ = st.Close() })

	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(st, ticketing.NewTokenGenerator(), ticketing.NewEncoder(256, "medium"))

	return &testServer{
		t:      t,
		router: NewRouter(App{Store: st, Service: svc, Issuer: issuer}),
		store:  st,
		issuer: issuer,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// signUp registers an account through the API and returns its token and id.
func (s *testServer) signUp(name, email, role string) (string, uuid.UUID) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"nom":        name,
		"email":      email,
		"password":   "secret123",
		"profession": "engineer",
		"role":       role,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("sign up %s: status %d body %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(s.t, w, &resp)
	return resp.Token, resp.User.ID
}

// admin creates an admin directly in the store, since the API never
// grants that role.
func (s *testServer) admin() string {
	s.t.Helper()
	ctx := context.Background()
	role, err := s.store.FindRoleByName(ctx, models.RoleAdmin)
	if err != nil {
		s.t.Fatal(err)
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	u := &models.User{Name: "Ada", Email: "ada@example.com", Password: string(hash), RoleID: role.ID}
	if err := s.store.CreateUser(ctx, u); err != nil {
		s.t.Fatal(err)
	}
	token, err := s.issuer.Issue(auth.Actor{ID: u.ID, Role: models.RoleAdmin})
	if err != nil {
		s.t.Fatal(err)
	}
	return token
}

func (s *testServer) createCategory(adminToken, name string) uuid.UUID {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/categories", adminToken, map[string]string{"name": name, "emoji": "🎤"})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create category: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Category models.Category `json:"category"`
	}
	decode(s.t, w, &resp)
	return resp.Category.ID
}

func (s *testServer) createEvent(token, name string, categoryID uuid.UUID, qr bool) uuid.UUID {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/events", token, map[string]any{
		"name":        name,
		"start_date":  "2026-11-01T18:00:00Z",
		"city":        "Dakar",
		"description": "An evening of talks",
		"qr_option":   qr,
		"category_id": categoryID.String(),
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create event: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Event models.Event `json:"event"`
	}
	decode(s.t, w, &resp)
	return resp.Event.ID
}

func (s *testServer) ticketToken(eventID, participantID uuid.UUID) string {
	s.t.Helper()
	ticket, err := s.store.FindTicket(context.Background(), eventID, participantID)
	if err != nil {
		s.t.Fatalf("find ticket: %v", err)
	}
	return ticket.QRCodeToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func TestCheckInFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	aliceToken, aliceID := s.signUp("Alice", "alice@example.com", "")
	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)

	w := s.do(http.MethodPost, "/api/events/"+eventID.String()+"/register", aliceToken, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	var reg struct {
		QRCode string `json:"qr_code"`
	}
	decode(t, w, &reg)
	if len(reg.QRCode) < 30 || reg.QRCode[:22] != "data:image/png;base64," {
		t.Fatalf("qr_code = %.40q", reg.QRCode)
	}

	w = s.do(http.MethodPost, "/api/events/"+eventID.String()+"/register", aliceToken, nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "already_registered" {
		t.Fatalf("second register: status %d body %s", w.Code, w.Body.String())
	}

	token := s.ticketToken(eventID, aliceID)

	w = s.do(http.MethodPost, "/api/events/validate-qr", orgToken, map[string]string{
		"qrCodeToken": token,
		"eventName":   "Other Event",
	})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "event_mismatch" {
		t.Fatalf("mismatch: status %d body %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/events/validate-qr", orgToken, map[string]string{
		"qrCodeToken": token,
		"eventName":   "Tech Talk",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("validate: status %d body %s", w.Code, w.Body.String())
	}
	var validated struct {
		Participant struct {
			ID   uuid.UUID `json:"id"`
			Name string    `json:"nom"`
		} `json:"participant"`
		Event struct {
			Name string `json:"name"`
		} `json:"event"`
	}
	decode(t, w, &validated)
	if validated.Participant.ID != aliceID || validated.Participant.Name != "Alice" || validated.Event.Name != "Tech Talk" {
		t.Fatalf("validate body = %+v", validated)
	}

	w = s.do(http.MethodPost, "/api/events/validate-qr", orgToken, map[string]string{
		"qrCodeToken": token,
		"eventName":   "Tech Talk",
	})
	if w.Code != http.StatusConflict || errorCode(t, w) != "already_used" {
		t.Fatalf("replay: status %d body %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/events/validate-qr", orgToken, map[string]string{
		"qrCodeToken": "not-a-token",
		"eventName":   "Tech Talk",
	})
	if w.Code != http.StatusNotFound || errorCode(t, w) != "invalid_token" {
		t.Fatalf("unknown token: status %d body %s", w.Code, w.Body.String())
	}
}

func TestValidateRequiresEventOwner(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	otherOrgToken, _ := s.signUp("Mallory", "mallory@example.com", models.RoleOrganizer)
	aliceToken, aliceID := s.signUp("Alice", "alice@example.com", "")
	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)

	if w := s.do(http.MethodPost, "/api/events/"+eventID.String()+"/register", aliceToken, nil); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}
	body := map[string]string{"qrCodeToken": s.ticketToken(eventID, aliceID), "eventName": "Tech Talk"}

	if w := s.do(http.MethodPost, "/api/events/validate-qr", aliceToken, body); w.Code != http.StatusForbidden {
		t.Fatalf("participant: status %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/events/validate-qr", otherOrgToken, body); w.Code != http.StatusForbidden {
		t.Fatalf("other organizer: status %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/events/validate-qr", adminToken, body); w.Code != http.StatusOK {
		t.Fatalf("admin: status %d body %s", w.Code, w.Body.String())
	}
}

func TestRegisterWithoutTicketing(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Meetups")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	aliceToken, _ := s.signUp("Alice", "alice@example.com", "")
	eventID := s.createEvent(orgToken, "Meetup", categoryID, false)

	w := s.do(http.MethodPost, "/api/events/"+eventID.String()+"/register", aliceToken, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	decode(t, w, &resp)
	if _, ok := resp["qr_code"]; ok {
		t.Fatalf("unexpected qr_code in %v", resp)
	}

	w = s.do(http.MethodPost, "/api/events/"+eventID.String()+"/ticket", aliceToken, nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "ticketing_disabled" {
		t.Fatalf("issue ticket: status %d body %s", w.Code, w.Body.String())
	}
}

func TestTicketImageAndReissue(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	aliceToken, _ := s.signUp("Alice", "alice@example.com", "")
	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)
	base := "/api/events/" + eventID.String()

	if w := s.do(http.MethodGet, base+"/ticket/qr", aliceToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("qr before registering: status %d", w.Code)
	}
	if w := s.do(http.MethodPost, base+"/ticket", aliceToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("ticket before registering: status %d", w.Code)
	}
	if w := s.do(http.MethodPost, base+"/register", aliceToken, nil); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}

	w := s.do(http.MethodGet, base+"/ticket/qr", aliceToken, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qr: status %d content-type %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("qr body is not a PNG")
	}

	first := s.do(http.MethodPost, base+"/ticket", aliceToken, nil)
	second := s.do(http.MethodPost, base+"/ticket", aliceToken, nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("reissue: status %d / %d", first.Code, second.Code)
	}
	var a, b struct {
		Ticket models.Ticket `json:"ticket"`
	}
	decode(t, first, &a)
	decode(t, second, &b)
	if a.Ticket.ID != b.Ticket.ID {
		t.Fatalf("reissue created a second ticket: %s != %s", a.Ticket.ID, b.Ticket.ID)
	}
}

func TestParticipantManagement(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	otherOrgToken, _ := s.signUp("Mallory", "mallory@example.com", models.RoleOrganizer)
	_, bobID := s.signUp("Bob", "bob@example.com", "")
	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)
	base := "/api/events/" + eventID.String()

	add := map[string]string{"participantId": bobID.String()}
	if w := s.do(http.MethodPost, base+"/participants", otherOrgToken, add); w.Code != http.StatusForbidden {
		t.Fatalf("other organizer add: status %d", w.Code)
	}

	w := s.do(http.MethodPost, base+"/participants", orgToken, add)
	if w.Code != http.StatusOK {
		t.Fatalf("add: status %d body %s", w.Code, w.Body.String())
	}
	var event models.Event
	decode(t, w, &event)
	if len(event.Participants) != 1 || event.Participants[0].ID != bobID {
		t.Fatalf("roster = %+v", event.Participants)
	}

	if w := s.do(http.MethodPost, base+"/participants", orgToken, add); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate add: status %d", w.Code)
	}

	w = s.do(http.MethodGet, base+"/tickets", orgToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tickets: status %d", w.Code)
	}
	var list struct {
		Total int `json:"total"`
	}
	decode(t, w, &list)
	if list.Total != 1 {
		t.Fatalf("tickets total = %d", list.Total)
	}

	if w := s.do(http.MethodDelete, base+"/participants/"+bobID.String(), orgToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("remove: status %d", w.Code)
	}
	if w := s.do(http.MethodDelete, base+"/participants/"+bobID.String(), orgToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("second remove: status %d", w.Code)
	}
	if _, err := s.store.FindTicket(context.Background(), eventID, bobID); err == nil {
		t.Fatal("ticket survived participant removal")
	}
}

func TestUnregisterAndMyEvents(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	aliceToken, _ := s.signUp("Alice", "alice@example.com", "")
	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)
	base := "/api/events/" + eventID.String()

	if w := s.do(http.MethodPost, base+"/register", aliceToken, nil); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}

	w := s.do(http.MethodGet, "/api/users/me/events", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my events: status %d", w.Code)
	}
	var mine struct {
		Participated []struct {
			ID          uuid.UUID `json:"id"`
			QRCodeImage string    `json:"qr_code_image"`
		} `json:"participated"`
	}
	decode(t, w, &mine)
	if len(mine.Participated) != 1 || mine.Participated[0].ID != eventID || mine.Participated[0].QRCodeImage == "" {
		t.Fatalf("participated = %+v", mine.Participated)
	}

	if w := s.do(http.MethodDelete, base+"/register", aliceToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("unregister: status %d", w.Code)
	}
	if w := s.do(http.MethodDelete, base+"/register", aliceToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("second unregister: status %d", w.Code)
	}

	w = s.do(http.MethodGet, "/api/users/me/events", aliceToken, nil)
	decode(t, w, &mine)
	if len(mine.Participated) != 0 {
		t.Fatalf("participated after unregister = %+v", mine.Participated)
	}
}

func TestEventLifecycle(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	otherOrgToken, _ := s.signUp("Mallory", "mallory@example.com", models.RoleOrganizer)
	aliceToken, _ := s.signUp("Alice", "alice@example.com", "")

	w := s.do(http.MethodPost, "/api/events", aliceToken, map[string]any{"name": "Nope"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("participant create: status %d", w.Code)
	}

	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)
	base := "/api/events/" + eventID.String()

	w = s.do(http.MethodGet, "/api/events?page=1&limit=10", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	if list.Total != 1 {
		t.Fatalf("total = %d", list.Total)
	}

	if w := s.do(http.MethodPut, base, otherOrgToken, map[string]string{"city": "Thiès"}); w.Code != http.StatusForbidden {
		t.Fatalf("other organizer update: status %d", w.Code)
	}
	w = s.do(http.MethodPut, base, orgToken, map[string]string{"city": "Thiès"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, base, aliceToken, nil)
	var event models.Event
	decode(t, w, &event)
	if event.City != "Thiès" || event.Name != "Tech Talk" {
		t.Fatalf("event after update = %+v", event)
	}

	if w := s.do(http.MethodPost, base+"/register", aliceToken, nil); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/api/categories/"+categoryID.String(), adminToken, nil); w.Code != http.StatusConflict {
		t.Fatalf("delete used category: status %d", w.Code)
	}
	if w := s.do(http.MethodDelete, base, orgToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	if w := s.do(http.MethodGet, base, aliceToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/events/not-a-uuid", aliceToken, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d", w.Code)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	s.signUp("Alice", "alice@example.com", "")

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"nom": "Alice", "email": "alice@example.com", "password": "secret123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"nom": "Eve", "email": "eve@example.com", "password": "secret123", "role": models.RoleAdmin,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self-assigned admin: status %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)

	w = s.do(http.MethodGet, "/api/users/me", resp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d", w.Code)
	}
	var me models.User
	decode(t, w, &me)
	if me.Email != "alice@example.com" || me.Role.Name != models.RoleParticipant {
		t.Fatalf("me = %+v", me)
	}

	if w := s.do(http.MethodGet, "/api/users/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: status %d", w.Code)
	}
}

func TestDashboards(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin()
	categoryID := s.createCategory(adminToken, "Conference")
	orgToken, _ := s.signUp("Olivia", "olivia@example.com", models.RoleOrganizer)
	aliceToken, aliceID := s.signUp("Alice", "alice@example.com", "")
	eventID := s.createEvent(orgToken, "Tech Talk", categoryID, true)

	if w := s.do(http.MethodPost, "/api/events/"+eventID.String()+"/register", aliceToken, nil); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}
	body := map[string]string{"qrCodeToken": s.ticketToken(eventID, aliceID), "eventName": "Tech Talk"}
	if w := s.do(http.MethodPost, "/api/events/validate-qr", orgToken, body); w.Code != http.StatusOK {
		t.Fatalf("validate: status %d", w.Code)
	}

	w := s.do(http.MethodGet, "/api/dashboard/organizer-stats", orgToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("organizer stats: status %d", w.Code)
	}
	var org store.OrganizerStats
	decode(t, w, &org)
	if org != (store.OrganizerStats{TotalEvents: 1, TotalRegistrations: 1, QRValidated: 1}) {
		t.Fatalf("organizer stats = %+v", org)
	}

	if w := s.do(http.MethodGet, "/api/dashboard/admin-stats", orgToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("organizer on admin stats: status %d", w.Code)
	}
	w = s.do(http.MethodGet, "/api/dashboard/admin-stats", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin stats: status %d", w.Code)
	}
	var admin store.AdminStats
	decode(t, w, &admin)
	if admin.TotalUsers != 3 || admin.AdminCount != 1 || admin.AvgPerEvent != 1 {
		t.Fatalf("admin stats = %+v", admin)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: status %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", w.Code)
	}
}
