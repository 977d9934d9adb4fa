// Package rest is the HTTP surface of the Lostify server.
package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lostify/lostify/internal/logging"
)

type Handler struct {
	auth            AuthService
	items           ItemService
	claims          ClaimService
	reports         ReportService
	profiles        ProfileService
	db              Pinger
	logger          logging.Logger
	sessionValidity time.Duration
}

type Services struct {
	Auth     AuthService
	Items    ItemService
	Claims   ClaimService
	Reports  ReportService
	Profiles ProfileService
	DB       Pinger
}

func NewHandler(s Services, sessionValidity time.Duration, logger logging.Logger) *Handler {
	return &Handler{
		auth:            s.Auth,
		items:           s.Items,
		claims:          s.Claims,
		reports:         s.Reports,
		profiles:        s.Profiles,
		db:              s.DB,
		logger:          logger.With("module", "rest"),
		sessionValidity: sessionValidity,
	}
}

// Router wires every route behind the shared middleware chain.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Resource not found")
	})
	r.Use(requestID, h.accessLog, h.loadSession)

	r.Handle("/healthz", methods{http.MethodGet: h.health})

	r.Handle("/auth/signup/get_otp", methods{http.MethodPost: h.getOTP})
	r.Handle("/auth/signup/verify_otp", methods{http.MethodPost: h.verifyOTP})
	r.Handle("/auth/login", methods{http.MethodPost: h.login})
	r.Handle("/auth/logout", methods{http.MethodGet: h.logout})
	r.Handle("/auth/change_password", methods{http.MethodPost: requireSession(h.changePassword)})
	r.Handle("/auth/reset_password", methods{http.MethodPost: h.resetPassword})

	r.Handle("/items/post", methods{http.MethodPost: requireSession(h.createItem)})
	r.Handle("/items/all", methods{http.MethodGet: requireSession(h.listItems)})
	r.Handle("/items/{id:[0-9]+}", methods{
		http.MethodGet:    requireSession(h.getItem),
		http.MethodPut:    requireSession(h.updateItem),
		http.MethodDelete: requireSession(h.deleteItem),
	})
	r.Handle("/items/{id:[0-9]+}/claim", methods{http.MethodPost: requireSession(h.claimItem)})
	r.Handle("/items/{id:[0-9]+}/report", methods{
		http.MethodGet:    requireSession(h.reportCount),
		http.MethodPut:    requireSession(h.report),
		http.MethodDelete: requireSession(h.unreport),
	})

	r.Handle("/users/{id:[0-9]+}/profile", methods{
		http.MethodGet: requireSession(h.getProfile),
		http.MethodPut: requireSession(h.updateProfile),
	})
	r.Handle("/users/{id:[0-9]+}/online", methods{
		http.MethodGet: requireSession(h.getOnline),
		http.MethodPut: requireSession(h.setOnline),
	})

	return r
}

// pathID reads the numeric {id} route variable; the route regexp has
// already rejected non-digits, so only overflow can fail here.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Resource not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
