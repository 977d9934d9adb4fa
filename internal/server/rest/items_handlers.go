package rest

import (
	"fmt"
	"net/http"

	"github.com/lostify/lostify/internal/server/auth"
	"github.com/lostify/lostify/internal/server/models"
)

const postNotFound = "Post not found"

// postView is the wire shape of a post. Dates are unix seconds.
type postView struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Location1   string          `json:"location1"`
	Location2   *string         `json:"location2"`
	Date        int64           `json:"date"`
	Image       models.Blob     `json:"image"`
	Type        models.PostType `json:"type"`
	Creator     int64           `json:"creator"`
	Description *string         `json:"description"`
	ClosedBy    *int64          `json:"closedBy"`
	ClosedDate  *int64          `json:"closedDate"`
}

func newPostView(p *models.Post) postView {
	v := postView{
		ID:          p.ID,
		Title:       p.Title,
		Location1:   p.Location1,
		Location2:   p.Location2,
		Date:        p.Date.Unix(),
		Image:       p.Image,
		Type:        p.Type,
		Creator:     p.Creator,
		Description: p.Description,
		ClosedBy:    p.ClosedBy,
	}
	if p.ClosedDate != nil {
		closed := p.ClosedDate.Unix()
		v.ClosedDate = &closed
	}
	return v
}

type createdBody struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type postsBody struct {
	Posts []postView `json:"posts"`
}

type reportCountBody struct {
	ReportCount int `json:"reportCount"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	o, err := readObject(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	for _, key := range []string{"type", "title", "location1"} {
		if !o.has(key) {
			h.fail(w, r, missing(key), "")
			return
		}
	}

	title, err1 := o.requiredString("title")
	location1, err2 := o.requiredString("location1")
	typ, err3 := o.requiredInt("type")
	description, err4 := o.optionalString("description")
	location2, err5 := o.optionalString("location2")
	image, err6 := o.optionalBlob("image")
	if err := firstError(err1, err2, err3, err4, err5, err6); err != nil {
		h.fail(w, r, err, "")
		return
	}

	post := &models.Post{
		Title:       title,
		Location1:   location1,
		Location2:   location2,
		Description: description,
		Type:        models.PostType(typ),
	}
	if typ != int64(post.Type) {
		post.Type = -1
	}
	if image != nil {
		post.Image = *image
	}

	id, err := h.items.Create(r.Context(), actor, post)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/items/%d", id))
	writeJSON(w, http.StatusCreated, createdBody{Message: "Post created successfully", ID: id})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	posts, err := h.items.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	body := postsBody{Posts: make([]postView, 0, len(posts))}
	for _, p := range posts {
		body.Posts = append(body.Posts, newPostView(p))
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newPostView(post))
}

func decodePostPatch(o object) (models.PostPatch, error) {
	var patch models.PostPatch
	var errs [5]error
	patch.Title, errs[0] = o.optionalString("title")
	patch.Description, errs[1] = o.optionalString("description")
	patch.Image, errs[2] = o.optionalBlob("image")
	patch.Location1, errs[3] = o.optionalString("location1")
	patch.Location2, errs[4] = o.optionalString("location2")
	return patch, firstError(errs[:]...)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	patch, err := func() (models.PostPatch, error) {
		o, err := readObject(r)
		if err != nil {
			return models.PostPatch{}, err
		}
		return decodePostPatch(o)
	}()
	if err != nil {
		// Ownership outranks a malformed body.
		if err := h.items.CheckEditable(r.Context(), id, actor); err != nil {
			h.fail(w, r, err, postNotFound)
			return
		}
		h.fail(w, r, err, "")
		return
	}

	if err := h.items.Update(r.Context(), id, actor, patch); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.items.Delete(r.Context(), id, actor); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) claimItem(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	// Only the creator names a counterparty. An unreadable body counts as
	// none, so missing and closed posts still answer 404 and 409; the engine
	// rejects a creator's nil.
	var otherID *int64
	if o, err := readObject(r); err == nil {
		otherID = o.intOrNil("otherid")
	}

	res, err := h.claims.Claim(r.Context(), id, actor, otherID)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) reportCount(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.reports.Count(r.Context(), id, actor)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reportCountBody{ReportCount: n})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.reports.Report(r.Context(), id, actor); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unreport(w http.ResponseWriter, r *http.Request, actor auth.Identity) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.reports.Unreport(r.Context(), id, actor); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
