package handler

import (
	"errors"
	"net/http"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/permission"
	"github.com/formicula/backend/internal/service"
)

const submissionListURL = "/submission/view"

// SubmissionHandler serves the archived submissions to administrators.
type SubmissionHandler struct {
	*Handler
	submissions service.SubmissionService
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(h *Handler, submissions service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{Handler: h, submissions: submissions}
}

// View handles GET /submission/view.
func (h *SubmissionHandler) View(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Admin) {
		return
	}
	h.checkEnvironment(w, r)

	list, err := h.submissions.List(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list submissions", err)
		return
	}
	h.render(w, r, http.StatusOK, "submission_view", map[string]any{"Submissions": list})
}

// Display handles GET /submission/display?sid=.
func (h *SubmissionHandler) Display(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Admin) {
		return
	}
	h.checkEnvironment(w, r)

	s, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "submission_display", map[string]any{"Submission": s})
}

// Delete handles GET and POST /submission/delete?sid=. The record is only
// removed by a POST carrying a confirmation and a valid anti-forgery token;
// anything else shows the confirmation page again.
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Delete) {
		return
	}
	h.checkEnvironment(w, r)

	s, ok := h.load(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost && r.PostFormValue("confirmation") != "" {
		if !h.validCSRF(r) {
			h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
			h.render(w, r, http.StatusOK, "submission_delete", map[string]any{"Submission": s})
			return
		}
		if err := h.submissions.Delete(r.Context(), s.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			h.serverError(w, r, "failed to delete submission", err)
			return
		}
		h.flash(w, r, model.StatusAdvisory(h.t("Form submission has been deleted.")))
		h.redirect(w, r, submissionListURL)
		return
	}

	h.render(w, r, http.StatusOK, "submission_delete", map[string]any{"Submission": s})
}

// load fetches the submission named by sid. A missing submission flashes an
// error and redirects to the list.
func (h *SubmissionHandler) load(w http.ResponseWriter, r *http.Request) (*model.Submission, bool) {
	notFound := func() {
		h.flash(w, r, model.ErrorAdvisory(h.t("Form submission could not be found.")))
		h.redirect(w, r, submissionListURL)
	}

	id, ok := queryID(r, "sid")
	if !ok {
		notFound()
		return nil, false
	}
	s, err := h.submissions.Get(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		notFound()
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, "failed to load submission", err)
		return nil, false
	}
	return s, true
}
