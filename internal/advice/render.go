package advice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

const (
	rowsTemplate  = "rows.html.tmpl"
	emailTemplate = "email.html.tmpl"
)

// RenderError reports that an advice could not be produced from otherwise
// valid data: an unknown tenant, a missing asset or a broken template.
type RenderError struct {
	Tenant tenant.Tenant
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render advice for %s: %v", e.Tenant, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Identity is the tenant block printed on advices and emails.
type Identity struct {
	Name         string
	Address      []string
	Registration string
	Email        string
	Phone        string
}

// Document is the data an advice template is executed with.
type Document struct {
	Date             string
	RefNo            string
	RecipientName    string
	RecipientAddress string
	AccountNumber    string
	IFSCCode         string
	UTR              string
	Rows             []Row
	Totals           Totals
	Tenant           Identity
	Images           map[string]template.URL
}

// EmailDocument is the data the email body template is executed with.
type EmailDocument struct {
	RecipientName string
	InvoiceNo     string
	Amount        string
	DueDate       string
	AccountNumber string
	IFSCCode      string
	UTR           string
	Tenant        Identity
}

// Email is a rendered email ready to hand to a sender.
type Email struct {
	Subject string
	HTML    string
}

type Renderer struct {
	profiles *tenant.Profiles
	assets   Assets
}

func NewRenderer(profiles *tenant.Profiles, assets Assets) *Renderer {
	return &Renderer{profiles: profiles, assets: assets}
}

var funcs = template.FuncMap{
	"money": FormatMoney,
	"date":  FormatDate,
	"dash":  func(s string) string { return orDefault(s, "-") },
	"na":    func(s string) string { return orDefault(s, "N/A") },
}

// Render produces the payment advice HTML of a line. The output depends only
// on the batch, the line and the assets.
func (r *Renderer) Render(ctx context.Context, b *payment.Batch, l *payment.Line) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := r.profiles.Lookup(b.Tenant)
	if err != nil {
		return nil, &RenderError{Tenant: b.Tenant, Err: err}
	}

	images, err := r.images(profile)
	if err != nil {
		return nil, &RenderError{Tenant: b.Tenant, Err: err}
	}

	doc := Document{
		Date:             FormatDate(adviceDate(b, l)),
		RefNo:            orDefault(l.RefNo, "-"),
		RecipientName:    l.RecipientName,
		RecipientAddress: l.RecipientAddress,
		AccountNumber:    orDefault(l.AccountNumber, "-"),
		IFSCCode:         orDefault(l.IFSCCode, "N/A"),
		UTR:              orDefault(b.UTR, "N/A"),
		Rows:             Rows(b, l),
		Totals:           Aggregate(l),
		Tenant:           identity(profile),
		Images:           images,
	}

	tmpl, err := r.parse(profile.Template, rowsTemplate)
	if err != nil {
		return nil, &RenderError{Tenant: b.Tenant, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, profile.Template, doc); err != nil {
		return nil, &RenderError{Tenant: b.Tenant, Err: fmt.Errorf("executing %s: %w", profile.Template, err)}
	}

	return buf.Bytes(), nil
}

// RenderEmail produces the subject and HTML body of the advice email.
func (r *Renderer) RenderEmail(ctx context.Context, b *payment.Batch, l *payment.Line) (Email, error) {
	if err := ctx.Err(); err != nil {
		return Email{}, err
	}

	profile, err := r.profiles.Lookup(b.Tenant)
	if err != nil {
		return Email{}, &RenderError{Tenant: b.Tenant, Err: err}
	}

	doc := EmailDocument{
		RecipientName: orDefault(l.RecipientName, "Customer"),
		InvoiceNo:     orDefault(l.InvoiceNo, "-"),
		Amount:        FormatMoney(Aggregate(l).Net),
		DueDate:       FormatDate(b.TransactionDate),
		AccountNumber: orDefault(l.AccountNumber, "-"),
		IFSCCode:      orDefault(l.IFSCCode, "N/A"),
		UTR:           orDefault(b.UTR, "N/A"),
		Tenant:        identity(profile),
	}

	tmpl, err := r.parse(emailTemplate)
	if err != nil {
		return Email{}, &RenderError{Tenant: b.Tenant, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, emailTemplate, doc); err != nil {
		return Email{}, &RenderError{Tenant: b.Tenant, Err: fmt.Errorf("executing %s: %w", emailTemplate, err)}
	}

	subject := profile.EmailSubject
	if subject == "" {
		subject = "Payment Advice"
	}

	return Email{Subject: subject, HTML: buf.String()}, nil
}

// parse loads the named templates into one set, the first name being the root.
func (r *Renderer) parse(names ...string) (*template.Template, error) {
	var root *template.Template

	for _, name := range names {
		text, err := r.assets.Template(name)
		if err != nil {
			return nil, err
		}

		if root == nil {
			root = template.New(name).Funcs(funcs)
		}

		t := root
		if name != root.Name() {
			t = root.New(name)
		}

		if _, err := t.Parse(text); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
	}

	return root, nil
}

func (r *Renderer) images(p tenant.Profile) (map[string]template.URL, error) {
	images := make(map[string]template.URL, len(p.Images))

	for _, name := range p.ImageNames() {
		file := p.Images[name]

		data, err := r.assets.Image(file)
		if err != nil {
			return nil, err
		}

		images[name] = dataURI(file, data)
	}

	return images, nil
}

func dataURI(file string, data []byte) template.URL {
	mime := "image/png"

	switch strings.ToLower(path.Ext(file)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".svg":
		mime = "image/svg+xml"
	case ".gif":
		mime = "image/gif"
	}

	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func identity(p tenant.Profile) Identity {
	return Identity{
		Name:         p.Name,
		Address:      p.Address,
		Registration: p.Registration,
		Email:        p.Email,
		Phone:        p.Phone,
	}
}

// adviceDate is the invoice date of the line, else the batch transaction date.
func adviceDate(b *payment.Batch, l *payment.Line) time.Time {
	if l.InvoiceDate != nil && !l.InvoiceDate.IsZero() {
		return *l.InvoiceDate
	}

	return b.TransactionDate
}
