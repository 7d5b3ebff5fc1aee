package core

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet of a new workbook.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

// ----------------------------------------------------------------------------
// CSV Tests
// ----------------------------------------------------------------------------

func TestDecode_CSV(t *testing.T) {
	data := []byte("firstName,lastName,dateOfBirth,gender,className\n" +
		"Jean,Dupont,15/03/2010,M,6ème A\n" +
		",Martin,01/01/2011,F,6ème A\n")

	sheet, err := Decode("eleves.csv", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	wantHeaders := []string{"firstName", "lastName", "dateOfBirth", "gender", "className"}
	if len(sheet.Headers) != len(wantHeaders) {
		t.Fatalf("Headers = %v, want %v", sheet.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if sheet.Headers[i] != h {
			t.Errorf("Headers[%d] = %q, want %q", i, sheet.Headers[i], h)
		}
	}

	if len(sheet.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Text("firstName"); got != "Jean" {
		t.Errorf("row 0 firstName = %q, want Jean", got)
	}
	if got := sheet.Rows[0].Get("dateOfBirth"); got.Kind != CellText || got.Text != "15/03/2010" {
		t.Errorf("row 0 dateOfBirth = %+v, want text 15/03/2010", got)
	}
	if got := sheet.Rows[1].Get("firstName"); got.Kind != CellUndefined {
		t.Errorf("row 1 firstName = %+v, want undefined", got)
	}
	if got := sheet.Rows[1].Text("lastName"); got != "Martin" {
		t.Errorf("row 1 lastName = %q, want Martin", got)
	}
}

func TestDecodeCSV_SemicolonAndBOM(t *testing.T) {
	data := []byte("\xEF\xBB\xBFfirstName;lastName\r\nJean;Dupont\r\n")

	sheet, err := DecodeCSV(data)
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if sheet.Headers[0] != "firstName" {
		t.Errorf("Headers[0] = %q, want BOM stripped", sheet.Headers[0])
	}
	if got := sheet.Rows[0].Text("lastName"); got != "Dupont" {
		t.Errorf("lastName = %q, want Dupont", got)
	}
}

func TestDecodeCSV_Windows1252(t *testing.T) {
	// "Prénom" with é encoded as 0xE9
	data := []byte("firstName;className\nJ\xe9r\xf4me;6\xe8me A\n")

	sheet, err := DecodeCSV(data)
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if got := sheet.Rows[0].Text("firstName"); got != "Jérôme" {
		t.Errorf("firstName = %q, want Jérôme", got)
	}
	if got := sheet.Rows[0].Text("className"); got != "6ème A" {
		t.Errorf("className = %q, want 6ème A", got)
	}
}

func TestDecodeCSV_HeaderShape(t *testing.T) {
	tests := []struct {
		name string
		data string
		want map[string]string
	}{
		{
			name: "headers are trimmed",
			data: " firstName , lastName \nJean,Dupont\n",
			want: map[string]string{"firstName": "Jean", "lastName": "Dupont"},
		},
		{
			name: "missing trailing cells are undefined",
			data: "firstName,lastName,gender\nJean\n",
			want: map[string]string{"firstName": "Jean", "lastName": "", "gender": ""},
		},
		{
			name: "extra cells are dropped",
			data: "firstName\nJean,Dupont,M\n",
			want: map[string]string{"firstName": "Jean"},
		},
		{
			name: "unnamed column ignored",
			data: "firstName,,lastName\nJean,x,Dupont\n",
			want: map[string]string{"firstName": "Jean", "lastName": "Dupont"},
		},
		{
			name: "first duplicate header wins",
			data: "subject,subject\nMaths,Français\n",
			want: map[string]string{"subject": "Maths"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := DecodeCSV([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeCSV: %v", err)
			}
			if len(sheet.Rows) != 1 {
				t.Fatalf("len(Rows) = %d, want 1", len(sheet.Rows))
			}
			row := sheet.Rows[0]
			if len(row) != len(tt.want) {
				t.Errorf("row has %d keys, want %d: %v", len(row), len(tt.want), row)
			}
			for k, v := range tt.want {
				if got := row.Text(k); got != v {
					t.Errorf("row[%q] = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestDecodeCSV_EmptyRowKept(t *testing.T) {
	sheet, err := DecodeCSV([]byte("firstName,lastName\n,\nJean,Dupont\n"))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(sheet.Rows))
	}
	if !sheet.Rows[0].IsEmpty() {
		t.Error("first row should be empty")
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		text string
		want rune
	}{
		{"a,b,c\n1;2", ','},
		{"a;b;c\n1,2", ';'},
		{"a\tb\n", '\t'},
		{"single", ','},
		{"a;b,c;d", ';'},
	}

	for _, tt := range tests {
		if got := sniffDelimiter(tt.text); got != tt.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// XLSX Tests
// ----------------------------------------------------------------------------

func TestDecode_XLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"firstName", "lastName", "dateOfBirth", "className"},
		{"Jean", "Dupont", 45000, "6ème A"},
		{"Marie", "Curie"},
	})

	sheet, err := Decode("eleves.xlsx", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if sheet.Name == "" {
		t.Error("Name should be the first worksheet name")
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(sheet.Rows))
	}

	dob := sheet.Rows[0].Get("dateOfBirth")
	if dob.Kind != CellNumber || dob.Number != 45000 {
		t.Errorf("dateOfBirth = %+v, want number 45000", dob)
	}
	if got := NormalizeDate(dob); got != "2023-03-15" {
		t.Errorf("NormalizeDate(dateOfBirth) = %q, want 2023-03-15", got)
	}

	if got := sheet.Rows[0].Get("className"); got.Kind != CellText || got.Text != "6ème A" {
		t.Errorf("className = %+v, want text 6ème A", got)
	}
	if got := sheet.Rows[1].Get("className"); got.Kind != CellUndefined {
		t.Errorf("row 1 className = %+v, want undefined", got)
	}
}

func TestDecode_XLSXDetectedWithoutExtension(t *testing.T) {
	data := buildWorkbook(t, [][]any{{"firstName"}, {"Jean"}})

	format, err := DetectFormat("upload", data)
	if err != nil {
		t.Fatalf("DetectFormat: %v", err)
	}
	if format != FormatXLSX {
		t.Errorf("format = %q, want xlsx", format)
	}
}

// ----------------------------------------------------------------------------
// Failure Tests
// ----------------------------------------------------------------------------

func TestDecode_Failures(t *testing.T) {
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 1024)...)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	tests := []struct {
		name     string
		fileName string
		data     []byte
		wantErr  error
	}{
		{"empty", "empty.csv", nil, ErrEmptyFile},
		{"only BOM and spaces", "empty.csv", []byte("\xEF\xBB\xBF \n"), ErrEmptyFile},
		{"legacy xls", "old.xls", ole, ErrUnsupportedFormat},
		{"image", "photo.png", png, ErrUnsupportedFormat},
		{"corrupt workbook", "broken.xlsx", []byte("PK\x03\x04not really a zip"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := Decode(tt.fileName, tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if sheet != nil {
				t.Error("no sheet expected on failure")
			}

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("error %T is not a *DecodeError", err)
			}
			if decodeErr.FileName != tt.fileName {
				t.Errorf("FileName = %q, want %q", decodeErr.FileName, tt.fileName)
			}
			if !IsBatchFatal(err) {
				t.Error("decode failures must be batch-fatal")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
