package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/recipient/memstore"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func rec(t tenant.Tenant, name, email, phone string) *recipient.Recipient {
	return &recipient.Recipient{Tenant: t, Name: name, Email: email, Phone: phone}
}

func TestStore_Unique(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.Create(ctx, rec(tenant.ASA, "Acme", "a@x.com", "1")))

	type testCase struct {
		name      string
		r         *recipient.Recipient
		wantField string
	}

	tests := []testCase{
		{name: "EmailIgnoresCase", r: rec(tenant.ASA, "B", "A@X.com", "2"), wantField: recipient.FieldEmail},
		{name: "Phone", r: rec(tenant.ASA, "B", "b@x.com", "1"), wantField: recipient.FieldPhone},
		{name: "OtherTenantAllowed", r: rec(tenant.PAPL, "Acme", "a@x.com", "1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(ctx, tt.r)

			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var dup *recipient.DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.wantField, dup.Field)
		})
	}
}

func TestStore_CreateManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.CreateMany(ctx, []*recipient.Recipient{
		rec(tenant.ASA, "Acme", "a@x.com", "1"),
		rec(tenant.ASA, "Beta", "b@x.com", "2"),
		rec(tenant.ASA, "Gamma", "a@x.com", "3"),
	})
	require.ErrorIs(t, err, recipient.ErrDuplicate)

	all, err := s.List(ctx, tenant.ASA)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_SearchByName(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.CreateMany(ctx, []*recipient.Recipient{
		rec(tenant.ASA, "acme traders", "a@x.com", "1"),
		rec(tenant.ASA, "Acme Co", "b@x.com", "2"),
		rec(tenant.ASA, "Beta", "c@x.com", "3"),
		rec(tenant.PAPL, "Acme Papl", "d@x.com", "4"),
	}))

	got, err := s.SearchByName(ctx, tenant.ASA, "AC", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme Co", got[0].Name)
	assert.Equal(t, "acme traders", got[1].Name)

	got, err = s.SearchByName(ctx, tenant.ASA, "ac", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_TenantScoping(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	r := rec(tenant.ASA, "Acme", "a@x.com", "1")
	require.NoError(t, s.Create(ctx, r))

	_, err := s.Get(ctx, tenant.PAPL, r.ID)
	assert.ErrorIs(t, err, recipient.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, tenant.PAPL, r.ID), recipient.ErrNotFound)

	r.Name = "Acme Renamed"
	require.NoError(t, s.Update(ctx, r))

	got, err := s.Get(ctx, tenant.ASA, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", got.Name)
	assert.NotNil(t, got.UpdatedAt)

	require.NoError(t, s.Delete(ctx, tenant.ASA, r.ID))
	_, err = s.Get(ctx, tenant.ASA, r.ID)
	assert.ErrorIs(t, err, recipient.ErrNotFound)
}
