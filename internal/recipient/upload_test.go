package recipient_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
)

func TestParseUpload_CSV(t *testing.T) {
	type testCase struct {
		name    string
		content []byte
		want    []recipient.Params
		wantErr string
	}

	tests := []testCase{
		{
			name:    "Comma",
			content: []byte("Name,Email,Phone,Bank Name,Account No,IFSC\nAcme Co,a@x.com,9876543210,SBI,111,SBIN0001234\n"),
			want: []recipient.Params{{
				Name: "Acme Co", Email: "a@x.com", Phone: "9876543210",
				BankName: "SBI", AccountNumber: "111", IFSCCode: "SBIN0001234",
			}},
		},
		{
			name:    "SemicolonWithPreamble",
			content: []byte("Recipients export;;\n\nFull Name;E-mail Address;Mobile No\nAcme Co;a@x.com;9876543210\n;;\n"),
			want:    []recipient.Params{{Name: "Acme Co", Email: "a@x.com", Phone: "9876543210"}},
		},
		{
			name:    "Windows1252",
			content: []byte("name,email,phone\nCaf\xe9 Udupi,c@x.com,9876543210\n"),
			want:    []recipient.Params{{Name: "Café Udupi", Email: "c@x.com", Phone: "9876543210"}},
		},
		{
			name:    "NoHeader",
			content: []byte("foo,bar\n1,2\n"),
			wantErr: "header row with name, email and phone columns not found",
		},
		{
			name:    "HeaderOnly",
			content: []byte("name,email,phone\n"),
			wantErr: "Uploaded file is empty or has no valid data",
		},
		{
			name:    "Empty",
			content: []byte("   "),
			wantErr: "Uploaded file is empty or has no valid data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := recipient.ParseUpload("upload.csv", bytes.NewReader(tt.content))

			if tt.wantErr != "" {
				require.ErrorIs(t, err, recipient.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUpload_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Name", "Email", "Phone", "State", "Type"},
		{"Acme Co", "a@x.com", "9876543210", "Gujarat", "company"},
		{"", "", "", "", ""},
		{"Ravi Kumar", "r@x.com", "9876543211", "Bihar", "employee"},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := recipient.ParseUpload("recipients.xlsx", &buf)
	require.NoError(t, err)

	assert.Equal(t, []recipient.Params{
		{Name: "Acme Co", Email: "a@x.com", Phone: "9876543210", State: "Gujarat", Type: recipient.TypeCompany},
		{Name: "Ravi Kumar", Email: "r@x.com", Phone: "9876543211", State: "Bihar", Type: recipient.TypeEmployee},
	}, got)
}

func TestParseUpload_TooLarge(t *testing.T) {
	big := strings.Repeat("a", recipient.MaxUploadSize+1)

	_, err := recipient.ParseUpload("big.csv", strings.NewReader(big))
	assert.ErrorIs(t, err, recipient.ErrValidation)
}

func TestParseUpload_UnsupportedType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := recipient.ParseUpload("logo.png", bytes.NewReader(png))
	require.ErrorIs(t, err, recipient.ErrValidation)
	assert.Contains(t, err.Error(), "unsupported file type")
}
