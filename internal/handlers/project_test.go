package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/internal/authz"
)

func TestCreateProjectMakesOwnerMember(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	projectID := createProject(t, r, owner, "Apollo")

	w := doJSON(t, r, http.MethodGet, "/api/projects/1/members", owner.token, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("list members = %d: %s", w.Code, w.Body.String())
	}

	var members []struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}

	decodeJSON(t, w, &members)

	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}

	if members[0].UserID != owner.id || members[0].Role != "owner" || members[0].Status != "accepted" {
		t.Errorf("owner membership = %+v", members[0])
	}

	// The project shows up in the owner's list with their role
	w = doJSON(t, r, http.MethodGet, "/api/projects", owner.token, nil)

	var projects []struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}

	decodeJSON(t, w, &projects)

	if len(projects) != 1 || projects[0].ID != projectID || projects[0].Role != "owner" {
		t.Errorf("project list = %+v", projects)
	}
}

func TestNonMemberDeniedProjectAccess(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	stranger := registerUser(t, r, "stranger")
	createProject(t, r, owner, "Apollo")

	for _, path := range []string{
		"/api/projects/1",
		"/api/projects/1/members",
		"/api/projects/1/tasks",
		"/api/projects/1/kanban",
	} {
		if w := doJSON(t, r, http.MethodGet, path, stranger.token, nil); w.Code != http.StatusForbidden {
			t.Errorf("GET %s as stranger = %d, want 403", path, w.Code)
		}
	}
}

func TestInviteMemberRoles(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	manager := registerUser(t, r, "manager")
	participant := registerUser(t, r, "participant")
	invitee := registerUser(t, r, "invitee")
	projectID := createProject(t, r, owner, "Apollo")

	addMember(t, projectID, manager.id, authz.RoleManager)
	addMember(t, projectID, participant.id, authz.RoleParticipant)

	var inviteeEmail string
	{
		w := doJSON(t, r, http.MethodGet, "/api/auth/me", invitee.token, nil)

		var resp struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
		}

		decodeJSON(t, w, &resp)
		inviteeEmail = resp.User.Email
	}

	// Participants cannot invite
	w := doJSON(t, r, http.MethodPost, "/api/projects/1/invite", participant.token, gin.H{"email": inviteeEmail})

	if w.Code != http.StatusForbidden {
		t.Fatalf("participant invite = %d, want 403", w.Code)
	}

	// Nobody can grant the owner role
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/invite", owner.token, gin.H{"email": inviteeEmail, "role": "owner"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("invite as owner role = %d, want 400", w.Code)
	}

	// Managers can
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/invite", manager.token, gin.H{"email": inviteeEmail})

	if w.Code != http.StatusCreated {
		t.Fatalf("manager invite = %d: %s", w.Code, w.Body.String())
	}

	// Invited but not accepted: still no access
	if w := doJSON(t, r, http.MethodGet, "/api/projects/1", invitee.token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("invited member project access = %d, want 403", w.Code)
	}

	// And they do not appear among accepted members
	w = doJSON(t, r, http.MethodGet, "/api/projects/1/members", owner.token, nil)

	var members []struct {
		UserID uint `json:"user_id"`
	}

	decodeJSON(t, w, &members)

	for _, m := range members {
		if m.UserID == invitee.id {
			t.Error("invited user listed among accepted members")
		}
	}

	// Duplicate invite conflicts
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/invite", owner.token, gin.H{"email": inviteeEmail})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate invite = %d, want 400", w.Code)
	}

	// Unknown email
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/invite", owner.token, gin.H{"email": "ghost@example.com"})

	if w.Code != http.StatusNotFound {
		t.Fatalf("invite unknown email = %d, want 404", w.Code)
	}
}

func TestUpdateProjectOwnerOnly(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	manager := registerUser(t, r, "manager")
	projectID := createProject(t, r, owner, "Apollo")
	addMember(t, projectID, manager.id, authz.RoleManager)

	// Even a manager cannot mutate the project itself
	w := doJSON(t, r, http.MethodPatch, "/api/projects/1", manager.token, gin.H{"name": "Hijacked"})

	if w.Code != http.StatusForbidden {
		t.Fatalf("manager update project = %d, want 403", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/projects/1", owner.token, gin.H{"name": "Apollo 11"})

	if w.Code != http.StatusOK {
		t.Fatalf("owner update project = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/projects/1", owner.token, nil)

	var resp struct {
		Name        string `json:"name"`
		MemberCount int64  `json:"member_count"`
	}

	decodeJSON(t, w, &resp)

	if resp.Name != "Apollo 11" {
		t.Errorf("project name = %q, want Apollo 11", resp.Name)
	}

	if resp.MemberCount != 2 {
		t.Errorf("member count = %d, want 2", resp.MemberCount)
	}
}

func TestQRCodeJoinFlow(t *testing.T) {
	r := setupRouter(t)
	owner := registerUser(t, r, "owner")
	manager := registerUser(t, r, "manager")
	joiner := registerUser(t, r, "joiner")
	late := registerUser(t, r, "late")
	projectID := createProject(t, r, owner, "Apollo")
	addMember(t, projectID, manager.id, authz.RoleManager)

	// Generating the QR code is owner-only
	if w := doJSON(t, r, http.MethodPost, "/api/projects/1/generate-qr", manager.token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("manager generate-qr = %d, want 403", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/projects/1/generate-qr", owner.token, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("generate-qr = %d: %s", w.Code, w.Body.String())
	}

	var qr struct {
		QRCodeToken string `json:"qr_code_token"`
		QRCodeURL   string `json:"qr_code_url"`
		ExpiresAt   string `json:"expires_at"`
	}

	decodeJSON(t, w, &qr)

	if len(qr.QRCodeToken) != len("proj_qr_")+32 {
		t.Errorf("token %q has unexpected length", qr.QRCodeToken)
	}

	if qr.QRCodeURL == "" || qr.ExpiresAt == "" {
		t.Error("generate-qr response missing url or expiry")
	}

	// Join with the token
	w = doJSON(t, r, http.MethodPost, "/api/qr/join", joiner.token, gin.H{"qr_code_token": qr.QRCodeToken})

	if w.Code != http.StatusCreated {
		t.Fatalf("qr join = %d: %s", w.Code, w.Body.String())
	}

	var joined struct {
		ProjectID uint   `json:"project_id"`
		Role      string `json:"role"`
	}

	decodeJSON(t, w, &joined)

	if joined.ProjectID != projectID || joined.Role != "participant" {
		t.Errorf("join response = %+v", joined)
	}

	// Joiner now has member access
	if w := doJSON(t, r, http.MethodGet, "/api/projects/1", joiner.token, nil); w.Code != http.StatusOK {
		t.Fatalf("joiner project access = %d, want 200", w.Code)
	}

	// Joining again conflicts
	if w := doJSON(t, r, http.MethodPost, "/api/qr/join", joiner.token, gin.H{"qr_code_token": qr.QRCodeToken}); w.Code != http.StatusBadRequest {
		t.Fatalf("second qr join = %d, want 400", w.Code)
	}

	// Rotating the token invalidates the old one
	w = doJSON(t, r, http.MethodPost, "/api/projects/1/generate-qr", owner.token, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("regenerate-qr = %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/qr/join", late.token, gin.H{"qr_code_token": qr.QRCodeToken}); w.Code != http.StatusNotFound {
		t.Fatalf("join with rotated token = %d, want 404", w.Code)
	}
}

func TestJoinInvalidToken(t *testing.T) {
	r := setupRouter(t)
	u := registerUser(t, r, "joiner")

	w := doJSON(t, r, http.MethodPost, "/api/qr/join", u.token, gin.H{"qr_code_token": "proj_qr_deadbeef"})

	if w.Code != http.StatusNotFound {
		t.Fatalf("join invalid token = %d, want 404", w.Code)
	}
}
