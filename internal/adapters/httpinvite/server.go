package httpinvite

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jose-valero/xcg-invite-bot/internal/app/service"
)

// Server expone la emisión de invitaciones por HTTP (p.ej. desde el backoffice).
type Server struct {
	secret string
	issues *service.IssueService
	mux    *http.ServeMux
}

func New(secret string, issues *service.IssueService) *Server {
	s := &Server{secret: secret, issues: issues, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/invites", s.handleCreate)
}

type createReq struct {
	Email  string `json:"email"`
	RoleID string `json:"role_id"`
}

type createResp struct {
	Code      string    `json:"code"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("X-Invite-Secret") != s.secret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req createReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") || req.RoleID == "" {
		http.Error(w, "email y role_id son obligatorios", http.StatusBadRequest)
		return
	}

	rec, err := s.issues.Issue(r.Context(), req.Email, req.RoleID)
	if err == service.ErrPendingExists {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("httpinvite: issue %s: %v", req.Email, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(createResp{
		Code:      rec.Code,
		URL:       "https://discord.gg/" + rec.Code,
		ExpiresAt: rec.ExpiresAt,
	})
}

func (s *Server) Start(addr string) {
	log.Printf("httpinvite: escuchando en %s", addr)
	if err := http.ListenAndServe(addr, s.mux); err != nil {
		log.Printf("httpinvite: %v", err)
	}
}
