package rest

import (
	"fmt"
	"net/http"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
)

type otpSentBody struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type userView struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Role     models.Role     `json:"role"`
	Profile  *models.Profile `json:"profile"`
}

type signedUpBody struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

type loginBody struct {
	Message string      `json:"message"`
	ID      int64       `json:"id"`
	Role    models.Role `json:"role"`
}

func decodeSignupProfile(o object) (*models.SignupProfile, error) {
	p, err := o.requiredObject("profile")
	if err != nil {
		return nil, err
	}

	var sp models.SignupProfile
	for key, dst := range map[string]*string{
		"name":        &sp.Name,
		"email":       &sp.Email,
		"phone":       &sp.Phone,
		"address":     &sp.Address,
		"designation": &sp.Designation,
	} {
		v, err := decodeField[string](p, key)
		if err != nil || v == nil {
			return nil, badRequest(typeMismatch)
		}
		*dst = *v
	}

	roll, err := decodeField[int64](p, "roll")
	if err != nil || roll == nil {
		return nil, badRequest(typeMismatch)
	}
	sp.Roll = *roll

	image, err := p.optionalBlob("image")
	if err != nil {
		return nil, err
	}
	if image != nil {
		sp.Image = *image
	}
	return &sp, nil
}

func (h *Handler) getOTP(w http.ResponseWriter, r *http.Request) {
	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	for _, key := range []string{"username", "password", "profile"} {
		if !o.has(key) {
			h.fail(w, r, missing(key), "")
			return
		}
	}
	username, errU := o.requiredString("username")
	password, errP := o.requiredString("password")
	if err := firstError(errU, errP); err != nil {
		h.fail(w, r, err, "")
		return
	}
	profile, err := decodeSignupProfile(o)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	email, err := h.auth.RequestSignup(r.Context(), username, password, profile)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	w.Header().Set("Location", "/auth/signup/verify_otp")
	writeJSON(w, http.StatusCreated, otpSentBody{Message: "OTP sent", Email: email, Username: username})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	for _, key := range []string{"username", "otp"} {
		if !o.has(key) {
			h.fail(w, r, missing(key), "")
			return
		}
	}
	username, errU := o.requiredString("username")
	otp, errO := o.requiredInt("otp")
	if err := firstError(errU, errO); err != nil {
		h.fail(w, r, err, "")
		return
	}
	user, profile, err := h.auth.VerifySignup(r.Context(), username, int(otp))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/users/%d/profile", user.ID))
	writeJSON(w, http.StatusCreated, signedUpBody{
		Message: username + " signed up",
		User: userView{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
			Profile:  profile,
		},
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	username, errU := o.requiredString("username")
	password, errP := o.requiredString("password")
	if err := firstError(errU, errP); err != nil {
		h.fail(w, r, err, "")
		return
	}

	session, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	http.SetCookie(w, h.sessionCookie(session.Token, int(h.sessionValidity.Seconds())))
	writeJSON(w, http.StatusOK, loginBody{Message: "User authenticated", ID: session.UserID, Role: session.Role})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	w.WriteHeader(http.StatusResetContent)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	oldPassword, errO := o.requiredString("old_password")
	newPassword, errN := o.requiredString("new_password")
	if err := firstError(errO, errN); err != nil {
		h.fail(w, r, err, "")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), actor, oldPassword, newPassword); err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	username, err := o.requiredString("username")
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	if err := h.auth.ResetPassword(r.Context(), username); err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionCookie builds the session cookie; a negative maxAge expires it.
func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
