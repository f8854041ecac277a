// Package approval moves invoice lines through their review states and, on
// approval, delivers the payment advice to the recipient.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/notify/email"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

// AttachmentName is the file name the advice PDF is attached under.
const AttachmentName = "Payment_Advice.pdf"

//go:generate mockgen -source=service.go -destination=sender_mock.go -package=approval
type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

type EmailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

type SMSSender interface {
	Send(ctx context.Context, phone, text string) error
}

// Outcome is the result of one delivery channel.
type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeNotAttempted Outcome = "not attempted"
)

func failed(err error) Outcome {
	return Outcome("failed: " + err.Error())
}

func (o Outcome) Failed() bool {
	return strings.HasPrefix(string(o), "failed")
}

type Timeouts struct {
	Email time.Duration
	SMS   time.Duration
}

type Deps struct {
	Payments  *payment.Service
	Renderer  *advice.Renderer
	Profiles  *tenant.Profiles
	Converter Converter
	Email     EmailSender
	// SMS may be nil, in which case SMS is never attempted.
	SMS SMSSender
}

type Service struct {
	payments  *payment.Service
	renderer  *advice.Renderer
	profiles  *tenant.Profiles
	converter Converter
	email     EmailSender
	sms       SMSSender
	timeouts  Timeouts
}

func NewService(d Deps, timeouts Timeouts) *Service {
	if timeouts.Email <= 0 {
		timeouts.Email = time.Minute
	}

	if timeouts.SMS <= 0 {
		timeouts.SMS = 15 * time.Second
	}

	return &Service{
		payments:  d.Payments,
		renderer:  d.Renderer,
		profiles:  d.Profiles,
		converter: d.Converter,
		email:     d.Email,
		sms:       d.SMS,
		timeouts:  timeouts,
	}
}

type Request struct {
	LineID      uuid.UUID
	Tenant      tenant.Tenant
	Status      payment.Status
	InvoiceHTML string
	SendSMS     bool
}

type Result struct {
	Batch   *payment.Batch
	Line    *payment.Line
	Email   Outcome
	SMS     Outcome
	Message string
}

// ChangeStatus persists the new status of a line and, when the line ends up
// Approved, attempts email and SMS delivery. Only a failure to locate or
// persist is returned as an error; channel failures are reported in the
// result.
func (s *Service) ChangeStatus(ctx context.Context, req Request) (*Result, error) {
	status, err := payment.ParseStatus(string(req.Status))
	if err != nil {
		return nil, err
	}

	b, line, err := s.payments.LocateLine(ctx, req.Tenant, req.LineID)
	if err != nil {
		return nil, err
	}

	if err := s.payments.SetStatus(ctx, req.Tenant, line, status); err != nil {
		return nil, err
	}

	res := &Result{
		Batch:   b,
		Line:    line,
		Email:   OutcomeNotAttempted,
		SMS:     OutcomeNotAttempted,
		Message: fmt.Sprintf("Invoice status updated to %s", status),
	}

	if status != payment.StatusApproved {
		return res, nil
	}

	res.Email, res.SMS = s.dispatch(ctx, b, line, req.InvoiceHTML, req.SendSMS)
	res.Message = fmt.Sprintf("%s. Email: %s. SMS: %s", res.Message, res.Email, res.SMS)

	return res, nil
}

type ResendRequest struct {
	LineID  uuid.UUID
	Tenant  tenant.Tenant
	SendSMS bool
}

// Resend renders the advice of an approved line again and delivers it
// without changing its status.
func (s *Service) Resend(ctx context.Context, req ResendRequest) (*Result, error) {
	b, line, err := s.payments.LocateLine(ctx, req.Tenant, req.LineID)
	if err != nil {
		return nil, err
	}

	if line.Status != payment.StatusApproved {
		return nil, fmt.Errorf("%w: only approved invoices can be resent, invoice is %s",
			payment.ErrInvalidTransition, line.Status)
	}

	res := &Result{Batch: b, Line: line, Email: OutcomeNotAttempted, SMS: OutcomeNotAttempted}

	html, err := s.renderer.Render(ctx, b, line)
	if err != nil {
		slog.Error("failed to render payment advice", "line_id", line.ID, "error", err)

		res.Email = failed(fmt.Errorf("render: %w", err))
		_, res.SMS = s.dispatch(ctx, b, line, "", req.SendSMS)
	} else {
		res.Email, res.SMS = s.dispatch(ctx, b, line, string(html), req.SendSMS)
	}

	res.Message = fmt.Sprintf("Payment advice resent. Email: %s. SMS: %s", res.Email, res.SMS)

	return res, nil
}

// dispatch runs each channel to completion even if the caller goes away;
// each channel is bounded by its own timeout instead.
func (s *Service) dispatch(ctx context.Context, b *payment.Batch, line *payment.Line, html string, sendSMS bool) (Outcome, Outcome) {
	ctx = context.WithoutCancel(ctx)

	emailOut, smsOut := OutcomeNotAttempted, OutcomeNotAttempted

	if html != "" && line.RecipientEmail != "" {
		emailOut = s.attempt(ctx, line, "email", s.timeouts.Email, func(ctx context.Context) error {
			return s.sendEmail(ctx, b, line, html)
		})
	}

	if sendSMS && line.Phone != "" && s.sms != nil {
		smsOut = s.attempt(ctx, line, "sms", s.timeouts.SMS, func(ctx context.Context) error {
			return s.sendSMS(ctx, b, line)
		})
	}

	return emailOut, smsOut
}

func (s *Service) attempt(
	ctx context.Context, line *payment.Line, channel string, timeout time.Duration, fn func(context.Context) error,
) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			slog.Error("payment advice delivery panicked", "line_id", line.ID, "channel", channel, "error", err)

			out = failed(err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.New("timeout")
		}

		slog.Warn("failed to deliver payment advice", "line_id", line.ID, "channel", channel, "error", err)

		return failed(err)
	}

	slog.Info("payment advice delivered", "line_id", line.ID, "channel", channel)

	return OutcomeSent
}

func (s *Service) sendEmail(ctx context.Context, b *payment.Batch, line *payment.Line, html string) error {
	body, err := s.renderer.RenderEmail(ctx, b, line)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	doc, err := s.converter.Convert(ctx, html)
	if err != nil {
		return fmt.Errorf("convert pdf: %w", err)
	}

	return s.email.Send(ctx, email.Message{
		To:      line.RecipientEmail,
		Subject: body.Subject,
		HTML:    body.HTML,
		Attachments: []email.Attachment{{
			Name:        AttachmentName,
			ContentType: "application/pdf",
			Data:        doc,
		}},
	})
}

func (s *Service) sendSMS(ctx context.Context, b *payment.Batch, line *payment.Line) error {
	profile, err := s.profiles.Lookup(b.Tenant)
	if err != nil {
		return err
	}

	text := advice.SMSText(line.RecipientName, line.InvoiceNo, line.NetPayable(), profile.Name)

	return s.sms.Send(ctx, line.Phone, text)
}
