package recipient

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/payadvice/internal/encoding"
)

// MaxUploadSize is the largest bulk upload accepted, in bytes.
const MaxUploadSize = 10 << 20

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// setters fill one field of Params from a cell.
var setters = map[string]func(p *Params, v string){
	"name":          func(p *Params, v string) { p.Name = v },
	"email":         func(p *Params, v string) { p.Email = v },
	"phone":         func(p *Params, v string) { p.Phone = v },
	"bankname":      func(p *Params, v string) { p.BankName = v },
	"accountnumber": func(p *Params, v string) { p.AccountNumber = v },
	"ifsccode":      func(p *Params, v string) { p.IFSCCode = v },
	"bankaddress":   func(p *Params, v string) { p.BankAddress = v },
	"state":         func(p *Params, v string) { p.State = v },
	"district":      func(p *Params, v string) { p.District = v },
	"type":          func(p *Params, v string) { p.Type = Type(v) },
}

// aliases maps normalised header spellings to a setter key.
var aliases = map[string]string{
	"recipientname": "name",
	"fullname":      "name",
	"emailaddress":  "email",
	"emailid":       "email",
	"phonenumber":   "phone",
	"mobile":        "phone",
	"mobileno":      "phone",
	"accountno":     "accountnumber",
	"ifsc":          "ifsccode",
}

// landmarks must all be present for a row to be taken as the header.
var landmarks = []string{"name", "email", "phone"}

// ParseUpload reads recipients from an uploaded CSV or XLSX file. The format
// is sniffed from the content, the file name only breaks ties.
func ParseUpload(filename string, r io.Reader) ([]Params, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d MB", ErrValidation, MaxUploadSize>>20)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: Uploaded file is empty or has no valid data", ErrValidation)
	}

	var rows [][]string

	switch kind := uploadKind(filename, data); kind {
	case "xlsx":
		rows, err = readXLSX(data)
	case "csv":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %s", ErrValidation, kind)
	}

	if err != nil {
		return nil, err
	}

	return mapRows(rows)
}

func uploadKind(filename string, data []byte) string {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case mt.Is(xlsxMIME):
		return "xlsx"
	case ext == ".xlsx" && !strings.HasPrefix(mt.String(), "text/"):
		return "xlsx"
	case strings.HasPrefix(mt.String(), "text/"):
		return "csv"
	case ext == ".csv":
		return "csv"
	default:
		return mt.String()
	}
}

func readCSV(data []byte) ([][]string, error) {
	utf8r, err := encoding.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	text, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", utf8r.Charset, err)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrValidation, err)
	}

	return rows, nil
}

// delimiter picks the most frequent separator on the first line. Excel in
// some locales saves CSV with semicolons.
func delimiter(text []byte) rune {
	first, _, _ := bytes.Cut(text, []byte("\n"))

	best, bestCount := ',', 0

	for _, c := range []rune{',', ';', '\t'} {
		if n := bytes.Count(first, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}

	return best
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open spreadsheet: %v", ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no sheets", ErrValidation)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return rows, nil
}

// colIndex maps a setter key to the column it is read from.
type colIndex map[string]int

// findHeader returns the first row that carries every landmark column. When
// a field appears under several spellings the leftmost column wins.
func findHeader(rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			key := fieldKey(cell)
			if key == "" {
				continue
			}

			if _, seen := cols[key]; !seen {
				cols[key] = i
			}
		}

		if hasLandmarks(cols) {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func hasLandmarks(cols colIndex) bool {
	for _, want := range landmarks {
		if _, ok := cols[want]; !ok {
			return false
		}
	}

	return true
}

// fieldKey resolves a header cell to a setter key, or "" if unknown.
func fieldKey(cell string) string {
	key := headerKey(cell)
	if alias, ok := aliases[key]; ok {
		key = alias
	}

	if _, ok := setters[key]; !ok {
		return ""
	}

	return key
}

func mapRows(rows [][]string) ([]Params, error) {
	cols, headerIdx, ok := findHeader(rows)
	if !ok {
		return nil, fmt.Errorf("%w: header row with name, email and phone columns not found", ErrValidation)
	}

	var out []Params

	for _, row := range rows[headerIdx+1:] {
		if blank(row) {
			continue
		}

		var p Params
		for key, idx := range cols {
			setters[key](&p, cellValue(row, idx))
		}

		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: Uploaded file is empty or has no valid data", ErrValidation)
	}

	return out, nil
}

func headerKey(s string) string {
	var sb strings.Builder

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
