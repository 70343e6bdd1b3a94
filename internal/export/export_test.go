package export

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/christopherklint97/asistr/internal/api"
	"github.com/christopherklint97/asistr/internal/notify"
	"github.com/christopherklint97/asistr/internal/register"
)

type fakeBlobs struct {
	data  []byte
	err   error
	path  string
	query url.Values
}

func (f *fakeBlobs) GetBlob(_ context.Context, path string, query url.Values) ([]byte, error) {
	f.path, f.query = path, query
	return f.data, f.err
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Registro"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Registro", "A1", "Aprendiz"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var q = register.Query{FichaID: 2558104, Year: 2026, Month: 2}

func TestFilename(t *testing.T) {
	if got := Filename(q); got != "Registro_Asistencias_Ficha2558104_2026-02.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}

func TestDownload(t *testing.T) {
	blobs := &fakeBlobs{data: workbookBytes(t)}
	e := New(blobs, notify.New(false, nil), nil)
	dir := filepath.Join(t.TempDir(), "out")

	wb, err := e.Download(context.Background(), q, dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if blobs.path != exportPath || blobs.query.Get("ficha_id") != "2558104" {
		t.Errorf("request = %s %v", blobs.path, blobs.query)
	}
	if wb.Path != filepath.Join(dir, Filename(q)) {
		t.Errorf("Path = %q", wb.Path)
	}
	if len(wb.Sheets) != 1 || wb.Sheets[0] != "Registro" {
		t.Errorf("Sheets = %v", wb.Sheets)
	}
	info, err := os.Stat(wb.Path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if int(info.Size()) != wb.Size {
		t.Errorf("size on disk = %d, want %d", info.Size(), wb.Size)
	}
}

func TestDownload_NotAWorkbook(t *testing.T) {
	e := New(&fakeBlobs{data: []byte(`{"success": true}`)}, nil, nil)
	dir := t.TempDir()

	if _, err := e.Download(context.Background(), q, dir); err == nil {
		t.Fatal("expected error for non-workbook body")
	}
	if _, err := os.Stat(filepath.Join(dir, Filename(q))); !os.IsNotExist(err) {
		t.Error("invalid body should not be written")
	}
}

func TestDownload_ServerError(t *testing.T) {
	e := New(&fakeBlobs{err: &api.ResponseError{Status: 404, Message: "Ficha no encontrada"}}, nil, nil)
	_, err := e.Download(context.Background(), q, t.TempDir())
	var re *api.ResponseError
	if !errors.As(err, &re) || re.Message != "Ficha no encontrada" {
		t.Fatalf("err = %v", err)
	}
}
