package advice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func scenario(tn tenant.Tenant) (*payment.Batch, *payment.Line) {
	line := payment.NewLine(payment.LineParams{
		RefNo:          "R1",
		RecipientName:  "Acme Co",
		RecipientEmail: "a@x.com",
		AccountNumber:  "111",
		IFSCCode:       "IFSC1",
		InvoiceNo:      "INV-1",
		Particulars:    "Consulting",
		Amounts: payment.Amounts{
			GrossAmount:     dec("1000"),
			TDS:             dec("100"),
			OtherDeductions: dec("50"),
			NetAmount:       dec("850"),
		},
		Additional: []payment.AdditionalInvoice{{
			Amounts: payment.Amounts{GrossAmount: dec("500"), NetAmount: dec("500")},
		}},
	})

	b := &payment.Batch{
		Tenant:          tn,
		Method:          payment.MethodNEFT,
		UTR:             "UTR123",
		TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Lines:           []*payment.Line{line},
	}

	return b, line
}

func newRenderer(t *testing.T) *advice.Renderer {
	t.Helper()

	profiles, err := tenant.Default()
	require.NoError(t, err)

	return advice.NewRenderer(profiles, advice.DefaultAssets())
}

func TestAggregate_Scenario(t *testing.T) {
	_, line := scenario(tenant.ASA)

	got := advice.Aggregate(line)

	assert.True(t, dec("1500").Equal(got.Gross), got.Gross.String())
	assert.True(t, dec("100").Equal(got.TDS), got.TDS.String())
	assert.True(t, dec("50").Equal(got.OtherDeductions), got.OtherDeductions.String())
	assert.True(t, dec("1350").Equal(got.Net), got.Net.String())
}

func TestAggregate_TrustsStoredNet(t *testing.T) {
	line := &payment.Line{Amounts: payment.Amounts{GrossAmount: dec("100"), TDS: dec("10"), NetAmount: dec("95")}}
	line.AddAdditional(payment.AdditionalInvoice{Amounts: payment.Amounts{GrossAmount: dec("20"), NetAmount: dec("1")}})

	got := advice.Aggregate(line)

	assert.Equal(t, "96.00", got.Net.StringFixed(2))
	assert.Equal(t, "120.00", got.Gross.StringFixed(2))
}

func TestRows_FallbackDateAndOrder(t *testing.T) {
	b, line := scenario(tenant.ASA)
	invDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	line.InvoiceDate = &invDate

	rows := advice.Rows(b, line)

	require.Len(t, rows, 2)
	assert.Equal(t, "INV-1", rows[0].InvoiceNo)
	assert.Equal(t, invDate, rows[0].InvoiceDate)
	assert.Equal(t, b.TransactionDate, rows[1].InvoiceDate)
}

func TestRenderer_Render(t *testing.T) {
	r := newRenderer(t)

	for _, tn := range tenant.All {
		t.Run(string(tn), func(t *testing.T) {
			b, line := scenario(tn)

			html, err := r.Render(context.Background(), b, line)
			require.NoError(t, err)

			out := string(html)
			assert.Contains(t, out, "₹1000.00")
			assert.Contains(t, out, "₹1350.00")
			assert.Contains(t, out, "Acme Co")
			assert.Contains(t, out, "UTR123")
			assert.Contains(t, out, "14-03-2025")
			assert.Contains(t, out, "data:image/")
			assert.Equal(t, 2, strings.Count(out, "14-03-2025</td>"), "both rows fall back to the transaction date")
		})
	}
}

func TestRenderer_TotalRowShowsOnlyNet(t *testing.T) {
	r := newRenderer(t)

	for _, tn := range tenant.All {
		t.Run(string(tn), func(t *testing.T) {
			b, line := scenario(tn)

			html, err := r.Render(context.Background(), b, line)
			require.NoError(t, err)

			out := string(html)
			start := strings.Index(out, `<tr class="total">`)
			require.NotEqual(t, -1, start)

			end := strings.Index(out[start:], "</tr>")
			require.NotEqual(t, -1, end)

			total := out[start : start+end]
			assert.Contains(t, total, "TOTAL")
			assert.Contains(t, total, "₹1350.00")
			assert.NotContains(t, total, "₹1500.00")
			assert.NotContains(t, total, "₹100.00")
			assert.NotContains(t, total, "₹50.00")
			assert.Equal(t, 1, strings.Count(total, "₹"))
		})
	}
}

func TestRenderer_RenderIsDeterministic(t *testing.T) {
	r := newRenderer(t)
	b, line := scenario(tenant.PAPL)

	first, err := r.Render(context.Background(), b, line)
	require.NoError(t, err)

	second, err := r.Render(context.Background(), b, line)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderer_Placeholders(t *testing.T) {
	r := newRenderer(t)
	b, line := scenario(tenant.ASA)
	b.UTR = ""
	line.RefNo = ""
	line.IFSCCode = ""

	html, err := r.Render(context.Background(), b, line)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Ref No.: -")
	assert.Contains(t, out, "IFSC Code N/A")
	assert.Contains(t, out, "UTR No. N/A")
}

func TestRenderer_Errors(t *testing.T) {
	profiles, err := tenant.Default()
	require.NoError(t, err)

	t.Run("UnknownTenant", func(t *testing.T) {
		r := advice.NewRenderer(profiles, advice.DefaultAssets())
		b, line := scenario(tenant.Tenant("acme"))

		_, err := r.Render(context.Background(), b, line)

		var renderErr *advice.RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.ErrorIs(t, err, tenant.ErrUnknownTenant)
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		assets := advice.NewFSAssets(fstest.MapFS{
			"img/asa-logo.png": {Data: []byte("png")},
		})
		r := advice.NewRenderer(profiles, assets)
		b, line := scenario(tenant.ASA)

		_, err := r.Render(context.Background(), b, line)

		var renderErr *advice.RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.ErrorIs(t, err, advice.ErrTemplateNotFound)
	})

	t.Run("BrokenTemplate", func(t *testing.T) {
		assets := advice.NewFSAssets(fstest.MapFS{
			"img/asa-logo.png":     {Data: []byte("png")},
			"advice_asa.html.tmpl": {Data: []byte("{{.Nope")},
			"rows.html.tmpl":       {Data: []byte("")},
		})
		r := advice.NewRenderer(profiles, assets)
		b, line := scenario(tenant.ASA)

		_, err := r.Render(context.Background(), b, line)

		var renderErr *advice.RenderError
		assert.True(t, errors.As(err, &renderErr))
	})
}

func TestRenderer_RenderEmail(t *testing.T) {
	r := newRenderer(t)
	b, line := scenario(tenant.PAPL)

	email, err := r.RenderEmail(context.Background(), b, line)
	require.NoError(t, err)

	assert.Equal(t, "Payment Advice from PAPL Private Limited", email.Subject)
	assert.Contains(t, email.HTML, "Dear Acme Co")
	assert.Contains(t, email.HTML, "₹1350.00")
	assert.Contains(t, email.HTML, "INV-1")
	assert.Contains(t, email.HTML, "14-03-2025")
	assert.Contains(t, email.HTML, "PAPL Private Limited")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₹850.00", advice.FormatMoney(dec("850")))
	assert.Equal(t, "₹0.10", advice.FormatMoney(dec("0.1")))
	assert.Equal(t, "-", advice.FormatDate(time.Time{}))
	assert.Equal(t, "05-01-2025", advice.FormatDate(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestSMSText(t *testing.T) {
	got := advice.SMSText("Acme Co", "INV-1", dec("1350"), "ASA Foundation")

	assert.Equal(t, "Dear Acme Co, payment of ₹1350.00 against invoice INV-1 has been released to your bank account. - ASA Foundation", got)
}
