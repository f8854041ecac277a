package invoice

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/approval"
	"github.com/MrJamesThe3rd/payadvice/internal/export"
	"github.com/MrJamesThe3rd/payadvice/internal/http/auth"
	"github.com/MrJamesThe3rd/payadvice/internal/http/respond"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
)

type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

type Handler struct {
	payments  *payment.Service
	approvals *approval.Service
	renderer  *advice.Renderer
	converter Converter
	exports   *export.Service
}

func NewHandler(
	payments *payment.Service,
	approvals *approval.Service,
	renderer *advice.Renderer,
	converter Converter,
	exports *export.Service,
) *Handler {
	return &Handler{
		payments:  payments,
		approvals: approvals,
		renderer:  renderer,
		converter: converter,
		exports:   exports,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/createInvoice", h.createBatch)

	r.Route("/batch/{batchId}", func(r chi.Router) {
		r.Get("/", h.getBatch)
		r.Delete("/", h.deleteBatch)
		r.Get("/advices.zip", h.exportBatch)
	})

	r.Patch("/{invoiceLineId}/status", h.updateStatus)
	r.Get("/{invoiceLineId}/advice", h.showAdvice)
	r.Get("/{invoiceLineId}/advice.pdf", h.downloadAdvice)
	r.Post("/{invoiceLineId}/resend", h.resend)
	r.Put("/{invoiceLineId}", h.edit)
	r.Delete("/{invoiceLineId}", h.deleteLine)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decode(r, &req, false); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.approvals.ChangeStatus(r.Context(), approval.Request{
		LineID:      lineID,
		Tenant:      auth.Tenant(r.Context()),
		Status:      payment.Status(req.Status),
		InvoiceHTML: req.InvoiceHTML,
		SendSMS:     req.SendSMS,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, res.Message, toLineResponse(res.Line))
}

func (h *Handler) resend(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}

	var req resendRequest
	if err := decode(r, &req, true); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.approvals.Resend(r.Context(), approval.ResendRequest{
		LineID:  lineID,
		Tenant:  auth.Tenant(r.Context()),
		SendSMS: req.SendSMS,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, res.Message, toLineResponse(res.Line))
}

// showAdvice returns the rendered advice so the dashboard can preview it and
// send it back as invoiceHtml on approval.
func (h *Handler) showAdvice(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}

	html, err := h.render(r, lineID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if _, err := w.Write(html); err != nil {
		slog.Error("failed to write advice", "error", err)
	}
}

func (h *Handler) downloadAdvice(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}

	html, err := h.render(r, lineID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.converter.Convert(r.Context(), string(html))
	if err != nil {
		respond.Error(w, r, fmt.Errorf("convert pdf: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", approval.AttachmentName))

	if _, err := w.Write(doc); err != nil {
		slog.Error("failed to write advice pdf", "error", err)
	}
}

func (h *Handler) render(r *http.Request, lineID uuid.UUID) ([]byte, error) {
	b, line, err := h.payments.LocateLine(r.Context(), auth.Tenant(r.Context()), lineID)
	if err != nil {
		return nil, err
	}

	return h.renderer.Render(r.Context(), b, line)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}

	var req editLineRequest
	if err := decode(r, &req, false); err != nil {
		respond.Error(w, r, err)
		return
	}

	line, err := h.payments.EditLine(r.Context(), auth.Tenant(r.Context()), lineID, payment.EditLineParams{
		LineParams: req.params(),
		Version:    req.Version,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Invoice updated successfully", toLineResponse(line))
}

func (h *Handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := lineIDParam(w, r)
	if !ok {
		return
	}

	if err := h.payments.DeleteLine(r.Context(), auth.Tenant(r.Context()), lineID); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Invoice deleted successfully", nil)
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := decode(r, &req, false); err != nil {
		respond.Error(w, r, err)
		return
	}

	params := payment.CreateBatchParams{
		Tenant:              auth.Tenant(r.Context()),
		Method:              req.PaymentType,
		UTR:                 req.UTRNo,
		BankName:            req.BankName,
		SenderAccountNumber: req.SenderAccountNumber,
		Amount:              req.Amount,
		TransactionDate:     req.TransactionDate.Time,
		Lines:               make([]payment.LineParams, len(req.Invoices)),
	}

	for i, l := range req.Invoices {
		params.Lines[i] = l.params()
	}

	b, err := h.payments.CreateBatch(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "Invoice created successfully", toBatchResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	batches, err := h.payments.ListBatches(r.Context(), auth.Tenant(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", toListItems(batches))
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "batchId")
	if !ok {
		return
	}

	b, err := h.payments.GetBatch(r.Context(), auth.Tenant(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "", toBatchResponse(b))
}

func (h *Handler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "batchId")
	if !ok {
		return
	}

	if err := h.payments.DeleteBatch(r.Context(), auth.Tenant(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Payment batch deleted successfully", nil)
}

func (h *Handler) exportBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "batchId")
	if !ok {
		return
	}

	var buf bytes.Buffer

	if _, err := h.exports.Export(r.Context(), auth.Tenant(r.Context()), id, &buf); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"advices_%s.zip\"", id))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write advice archive", "error", err)
	}
}

func lineIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return uuidParam(w, r, "invoiceLineId")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}
