package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payadvice/internal/http/auth"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	var out bytes.Buffer

	cmd := tokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"papl", "--user", "reconciler"})

	require.NoError(t, cmd.Execute())

	claims, err := auth.New("s3cret").Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, tenant.PAPL, claims.Tenant)
	assert.Equal(t, "reconciler", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestTokenCmd_Errors(t *testing.T) {
	t.Run("UnknownTenant", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")

		cmd := tokenCmd()
		cmd.SetArgs([]string{"acme"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		assert.ErrorIs(t, cmd.Execute(), tenant.ErrUnknownTenant)
	})

	t.Run("NoSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		cmd := tokenCmd()
		cmd.SetArgs([]string{"asa"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		assert.ErrorContains(t, cmd.Execute(), "JWT_SECRET is required")
	})
}

func TestRecipientsImportCmd_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email,phone\nAcme Co,a@x.com,9876543210\n"), 0o600))

	var out bytes.Buffer

	cmd := recipientsImportCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"asa", path, "--dry-run"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "1 recipients would be imported\n", out.String())
}
