package recipient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/http/auth"
	"github.com/MrJamesThe3rd/payadvice/internal/http/respond"
	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
)

type Handler struct {
	svc *recipient.Service
}

func NewHandler(svc *recipient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/search", h.search)
	r.Post("/bulk-upload", h.bulkUpload)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req recipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.Create(r.Context(), auth.Tenant(r.Context()), req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "Recipient registered successfully", toResponse(rec))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rs, err := h.svc.List(r.Context(), auth.Tenant(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", toResponseList(rs))
}

// search backs the recipient autocomplete on invoice entry.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	rs, err := h.svc.Search(r.Context(), auth.Tenant(r.Context()), r.URL.Query().Get("name"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", toResponseList(rs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}

	rec, err := h.svc.Get(r.Context(), auth.Tenant(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", toResponse(rec))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req recipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.Update(r.Context(), auth.Tenant(r.Context()), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Recipient updated successfully", toResponse(rec))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.Delete(r.Context(), auth.Tenant(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Recipient deleted successfully", nil)
}

func (h *Handler) bulkUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, recipient.MaxUploadSize+1<<20)

	if err := r.ParseMultipartForm(recipient.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Fail(w, http.StatusRequestEntityTooLarge, "File exceeds the 10 MB upload limit")
			return
		}

		respond.Fail(w, http.StatusBadRequest, "failed to parse form: "+err.Error())

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	rs, err := h.svc.BulkUpload(r.Context(), auth.Tenant(r.Context()), header.Filename, file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, fmt.Sprintf("%d recipients uploaded successfully", len(rs)), bulkUploadResponse{
		Imported:   len(rs),
		Recipients: toResponseList(rs),
	})
}
