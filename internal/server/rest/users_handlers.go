package rest

import (
	"net/http"

	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
	"github.com/lostify/lostify/internal/server/services"
)

const userNotFound = "User not found"

type onlineBody struct {
	Online bool `json:"online"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func decodeProfilePatch(o object) (models.ProfilePatch, error) {
	var patch models.ProfilePatch
	var errs [7]error
	patch.Name, errs[0] = o.optionalString("name")
	patch.Phone, errs[1] = o.optionalString("phone")
	patch.Email, errs[2] = o.optionalString("email")
	patch.Address, errs[3] = o.optionalString("address")
	patch.Designation, errs[4] = o.optionalString("designation")
	patch.Roll, errs[5] = o.optionalInt("roll")
	patch.Image, errs[6] = o.optionalBlob("image")
	return patch, firstError(errs[:]...)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := services.RequireOwner(id, actor); err != nil {
		h.fail(w, r, err, "")
		return
	}

	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	patch, err := decodeProfilePatch(o)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	if err := h.profiles.Update(r.Context(), id, actor, patch); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getOnline(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	online, err := h.profiles.GetOnline(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, onlineBody{Online: online})
}

func (h *Handler) setOnline(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := services.RequireOwner(id, actor); err != nil {
		h.fail(w, r, err, "")
		return
	}

	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	status, err := o.requiredBool("status")
	if err != nil {
		h.fail(w, r, badRequest("Boolean field 'status' is required"), "")
		return
	}

	if err := h.profiles.SetOnline(r.Context(), id, actor, status); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
