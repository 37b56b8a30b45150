package handler

import (
	"errors"
	"net/http"

	"github.com/spf13/cast"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/permission"
	"github.com/formicula/backend/internal/service"
)

const contactListURL = "/contact/view"

// ContactHandler lets administrators manage the form recipients.
type ContactHandler struct {
	*Handler
	contacts service.ContactService
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(h *Handler, contacts service.ContactService) *ContactHandler {
	return &ContactHandler{Handler: h, contacts: contacts}
}

type contactPage struct {
	Contact *model.Contact
	Errors  map[string]string
}

// View handles GET /contact/view.
func (h *ContactHandler) View(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Admin) {
		return
	}
	list, err := h.contacts.List(r.Context(), false)
	if err != nil {
		h.serverError(w, r, "failed to list contacts", err)
		return
	}
	h.render(w, r, http.StatusOK, "contact_view", map[string]any{"Contacts": list})
}

// Edit handles GET and POST /contact/edit[?cid=]. Without cid a new contact
// is created.
func (h *ContactHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Admin) {
		return
	}

	c := &model.Contact{Public: true}
	if r.URL.Query().Has("cid") {
		var ok bool
		if c, ok = h.load(w, r); !ok {
			return
		}
	}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "contact_edit", contactPage{Contact: c})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, h.t("Invalid request."), http.StatusBadRequest)
		return
	}
	f := r.PostForm
	c.Name = f.Get("name")
	c.Email = f.Get("email")
	c.Public = cast.ToBool(f.Get("public"))
	c.SenderName = f.Get("sender_name")
	c.SenderEmail = f.Get("sender_email")
	c.SendingSubject = f.Get("sending_subject")

	if !h.validCSRF(r) {
		h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
		h.render(w, r, http.StatusForbidden, "contact_edit", contactPage{Contact: c})
		return
	}

	if err := h.contacts.Save(r.Context(), c); err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			errs := fieldErrors(verr)
			for field, msg := range errs {
				errs[field] = h.t(msg)
			}
			h.render(w, r, http.StatusUnprocessableEntity, "contact_edit", contactPage{Contact: c, Errors: errs})
		case errors.Is(err, model.ErrNotFound):
			h.flash(w, r, model.ErrorAdvisory(h.t("Contact could not be found.")))
			h.redirect(w, r, contactListURL)
		default:
			h.serverError(w, r, "failed to save contact", err)
		}
		return
	}

	h.flash(w, r, model.StatusAdvisory(h.t("Contact has been saved.")))
	h.redirect(w, r, contactListURL)
}

// Delete handles GET and POST /contact/delete?cid=.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Delete) {
		return
	}
	c, ok := h.load(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost && r.PostFormValue("confirmation") != "" {
		if !h.validCSRF(r) {
			h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
			h.render(w, r, http.StatusOK, "contact_delete", contactPage{Contact: c})
			return
		}
		if err := h.contacts.Delete(r.Context(), c.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			h.serverError(w, r, "failed to delete contact", err)
			return
		}
		h.flash(w, r, model.StatusAdvisory(h.t("Contact has been deleted.")))
		h.redirect(w, r, contactListURL)
		return
	}

	h.render(w, r, http.StatusOK, "contact_delete", contactPage{Contact: c})
}

func (h *ContactHandler) load(w http.ResponseWriter, r *http.Request) (*model.Contact, bool) {
	notFound := func() {
		h.flash(w, r, model.ErrorAdvisory(h.t("Contact could not be found.")))
		h.redirect(w, r, contactListURL)
	}

	id, ok := queryID(r, "cid")
	if !ok {
		notFound()
		return nil, false
	}
	c, err := h.contacts.Get(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		notFound()
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, "failed to load contact", err)
		return nil, false
	}
	return c, true
}
