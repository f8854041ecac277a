package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/payment/memstore"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func amounts(gross, tds, other, net int64) payment.Amounts {
	return payment.Amounts{
		GrossAmount:     decimal.NewFromInt(gross),
		TDS:             decimal.NewFromInt(tds),
		OtherDeductions: decimal.NewFromInt(other),
		NetAmount:       decimal.NewFromInt(net),
	}
}

func validLine(ref, inv string) payment.LineParams {
	return payment.LineParams{
		RefNo:          ref,
		RecipientName:  "Acme Co",
		RecipientEmail: "a@x.com",
		AccountNumber:  "111",
		IFSCCode:       "IFSC1",
		InvoiceNo:      inv,
		Amounts:        amounts(1000, 100, 50, 850),
	}
}

func validBatch(lines ...payment.LineParams) payment.CreateBatchParams {
	return payment.CreateBatchParams{
		Tenant:          tenant.ASA,
		Method:          payment.MethodNEFT,
		UTR:             "UTR123",
		TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Lines:           lines,
	}
}

func TestService_CreateBatch(t *testing.T) {
	type testCase struct {
		name      string
		params    payment.CreateBatchParams
		setupMock func(m *payment.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: validBatch(validLine("R1", "INV1")),
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().
					FindDuplicateRefs(gomock.Any(), tenant.ASA, []string{"R1"}, []string{"INV1"}, uuid.Nil).
					Return(nil, nil)
				m.EXPECT().
					CreateBatch(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *payment.Batch) error {
						b.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "MissingUTR",
			params:  func() payment.CreateBatchParams { p := validBatch(validLine("R1", "INV1")); p.UTR = "  "; return p }(),
			wantErr: payment.ErrValidation,
		},
		{
			name: "MissingEmail",
			params: func() payment.CreateBatchParams {
				l := validLine("R1", "INV1")
				l.RecipientEmail = ""
				return validBatch(l)
			}(),
			wantErr: payment.ErrValidation,
		},
		{
			name: "NetMismatch",
			params: func() payment.CreateBatchParams {
				l := validLine("R1", "INV1")
				l.NetAmount = decimal.NewFromInt(900)
				return validBatch(l)
			}(),
			wantErr: payment.ErrValidation,
		},
		{
			name: "AdditionalNetMismatch",
			params: func() payment.CreateBatchParams {
				l := validLine("R1", "INV1")
				l.Additional = []payment.AdditionalInvoice{{Amounts: amounts(500, 0, 0, 400)}}
				return validBatch(l)
			}(),
			wantErr: payment.ErrValidation,
		},
		{
			name:    "DuplicateWithinBatch",
			params:  validBatch(validLine("R1", "INV1"), validLine("R1", "INV2")),
			wantErr: payment.ErrDuplicate,
		},
		{
			name:   "DuplicateInStore",
			params: validBatch(validLine("R1", "INV1")),
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().
					FindDuplicateRefs(gomock.Any(), tenant.ASA, gomock.Any(), gomock.Any(), uuid.Nil).
					Return([]string{"INV1"}, nil)
			},
			wantErr: payment.ErrDuplicate,
		},
		{
			name:   "RepoError",
			params: validBatch(validLine("R1", "INV1")),
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().FindDuplicateRefs(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				m.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payment.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := payment.NewService(repo)
			got, err := svc.CreateBatch(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if errors.Is(tt.wantErr, payment.ErrValidation) || errors.Is(tt.wantErr, payment.ErrDuplicate) {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			require.Len(t, got.Lines, 1)
			assert.Equal(t, payment.StatusPending, got.Lines[0].Status)
		})
	}
}

func TestNewLine_DefaultsToPending(t *testing.T) {
	line := payment.NewLine(validLine("R1", "INV1"))
	assert.Equal(t, payment.StatusPending, line.Status)
	assert.NotEqual(t, uuid.Nil, line.ID)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to payment.Status
		want     bool
	}{
		{payment.StatusPending, payment.StatusApproved, true},
		{payment.StatusPending, payment.StatusRejected, true},
		{payment.StatusPending, payment.StatusPending, true},
		{payment.StatusRejected, payment.StatusApproved, true},
		{payment.StatusRejected, payment.StatusRejected, true},
		{payment.StatusRejected, payment.StatusPending, false},
		{payment.StatusApproved, payment.StatusApproved, true},
		{payment.StatusApproved, payment.StatusRejected, false},
		{payment.StatusApproved, payment.StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestService_LocateLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo)

	line := payment.NewLine(validLine("R1", "INV1"))
	batch := &payment.Batch{ID: uuid.New(), Tenant: tenant.ASA, Lines: []*payment.Line{line}}

	t.Run("NilID", func(t *testing.T) {
		_, _, err := svc.LocateLine(context.Background(), tenant.ASA, uuid.Nil)
		assert.ErrorIs(t, err, payment.ErrValidation)
	})

	t.Run("Found", func(t *testing.T) {
		repo.EXPECT().FindLine(gomock.Any(), tenant.ASA, line.ID).Return(batch, nil)

		gotBatch, gotLine, err := svc.LocateLine(context.Background(), tenant.ASA, line.ID)
		require.NoError(t, err)
		assert.Same(t, batch, gotBatch)
		assert.Same(t, line, gotLine)
	})

	t.Run("OtherTenant", func(t *testing.T) {
		repo.EXPECT().FindLine(gomock.Any(), tenant.PAPL, line.ID).Return(nil, payment.ErrNotFound)

		_, _, err := svc.LocateLine(context.Background(), tenant.PAPL, line.ID)
		assert.ErrorIs(t, err, payment.ErrNotFound)
	})
}

func TestService_SetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo)

	t.Run("Persists", func(t *testing.T) {
		line := payment.NewLine(validLine("R1", "INV1"))
		repo.EXPECT().UpdateLineStatus(gomock.Any(), tenant.ASA, line).Return(nil)

		require.NoError(t, svc.SetStatus(context.Background(), tenant.ASA, line, payment.StatusApproved))
		assert.Equal(t, payment.StatusApproved, line.Status)
	})

	t.Run("WriteFailureKeepsOldStatus", func(t *testing.T) {
		line := payment.NewLine(validLine("R1", "INV1"))
		repo.EXPECT().UpdateLineStatus(gomock.Any(), tenant.ASA, line).Return(errors.New("db down"))

		err := svc.SetStatus(context.Background(), tenant.ASA, line, payment.StatusRejected)
		require.Error(t, err)
		assert.Equal(t, payment.StatusPending, line.Status)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		line := payment.NewLine(validLine("R1", "INV1"))
		line.Status = payment.StatusApproved

		err := svc.SetStatus(context.Background(), tenant.ASA, line, payment.StatusPending)
		assert.ErrorIs(t, err, payment.ErrInvalidTransition)
	})
}

func TestService_SetStatusRejectsStaleLine(t *testing.T) {
	ctx := context.Background()
	svc := payment.NewService(memstore.New())

	b, err := svc.CreateBatch(ctx, payment.CreateBatchParams{
		Tenant:          tenant.ASA,
		Method:          payment.MethodUPI,
		UTR:             "UTR1",
		TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Lines:           []payment.LineParams{validLine("R1", "INV1")},
	})
	require.NoError(t, err)

	_, first, err := svc.LocateLine(ctx, tenant.ASA, b.Lines[0].ID)
	require.NoError(t, err)

	_, second, err := svc.LocateLine(ctx, tenant.ASA, b.Lines[0].ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, tenant.ASA, first, payment.StatusApproved))

	err = svc.SetStatus(ctx, tenant.ASA, second, payment.StatusRejected)
	require.ErrorIs(t, err, payment.ErrConflict)
	assert.Equal(t, payment.StatusPending, second.Status)

	_, stored, err := svc.LocateLine(ctx, tenant.ASA, b.Lines[0].ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusApproved, stored.Status)
	assert.Equal(t, first.Version, stored.Version)
}

func TestService_EditLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	svc := payment.NewService(repo)

	line := payment.NewLine(validLine("R1", "INV1"))
	line.Version = 3
	batch := &payment.Batch{ID: uuid.New(), Tenant: tenant.ASA, Lines: []*payment.Line{line}}

	t.Run("StaleVersion", func(t *testing.T) {
		repo.EXPECT().FindLine(gomock.Any(), tenant.ASA, line.ID).Return(batch, nil)

		_, err := svc.EditLine(context.Background(), tenant.ASA, line.ID, payment.EditLineParams{
			LineParams: validLine("R1", "INV1"),
			Version:    2,
		})
		assert.ErrorIs(t, err, payment.ErrConflict)
	})

	t.Run("Success", func(t *testing.T) {
		params := validLine("R1", "INV9")
		params.Particulars = "Consulting"
		params.Additional = []payment.AdditionalInvoice{{InvoiceNo: "INV9-A", Amounts: amounts(500, 0, 0, 500)}}

		repo.EXPECT().FindLine(gomock.Any(), tenant.ASA, line.ID).Return(batch, nil)
		repo.EXPECT().FindDuplicateRefs(gomock.Any(), tenant.ASA, []string{"R1"}, []string{"INV9"}, line.ID).Return(nil, nil)
		repo.EXPECT().UpdateLine(gomock.Any(), tenant.ASA, gomock.Any()).Return(nil)

		got, err := svc.EditLine(context.Background(), tenant.ASA, line.ID, payment.EditLineParams{LineParams: params, Version: 3})
		require.NoError(t, err)
		assert.Equal(t, "INV9", got.InvoiceNo)
		assert.Equal(t, "Consulting", got.Particulars)
		assert.Len(t, got.Additional(), 1)
		assert.Equal(t, payment.StatusPending, got.Status)
		assert.Equal(t, "INV1", line.InvoiceNo, "stored line untouched until the write succeeds")
	})
}

func TestLine_AdditionalCollection(t *testing.T) {
	line := payment.NewLine(validLine("R1", "INV1"))

	a := line.AddAdditional(payment.AdditionalInvoice{InvoiceNo: "A1", Amounts: amounts(500, 0, 0, 500)})
	b := line.AddAdditional(payment.AdditionalInvoice{InvoiceNo: "A2", Amounts: amounts(200, 20, 0, 180)})

	assert.Equal(t, "1530", line.NetPayable().String())

	require.NoError(t, line.UpdateAdditional(a.ID, func(ai *payment.AdditionalInvoice) {
		ai.Particulars = "Travel"
	}))
	assert.Equal(t, "Travel", line.Additional()[0].Particulars)

	require.NoError(t, line.RemoveAdditional(a.ID))
	require.Len(t, line.Additional(), 1)
	assert.Equal(t, b.ID, line.Additional()[0].ID)

	assert.ErrorIs(t, line.RemoveAdditional(uuid.New()), payment.ErrNotFound)

	copied := line.Additional()
	copied[0].InvoiceNo = "changed"
	assert.Equal(t, "A2", line.Additional()[0].InvoiceNo)
}
