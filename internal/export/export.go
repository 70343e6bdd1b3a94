// Package export downloads the server-generated attendance spreadsheet.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/christopherklint97/asistr/internal/notify"
	"github.com/christopherklint97/asistr/internal/register"
)

const exportPath = "attendances/file/export"

// BlobGetter is the part of the API client used for downloads.
type BlobGetter interface {
	GetBlob(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Filename is the name the front-end offered for the download.
func Filename(q register.Query) string {
	return fmt.Sprintf("Registro_Asistencias_Ficha%d_%04d-%02d.xlsx", q.FichaID, q.Year, q.Month)
}

// Workbook describes a downloaded file.
type Workbook struct {
	Path   string
	Size   int
	Sheets []string
}

type Exporter struct {
	api      BlobGetter
	notifier *notify.Notifier
	logger   *slog.Logger
}

func New(api BlobGetter, notifier *notify.Notifier, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{api: api, notifier: notifier, logger: logger}
}

// Download fetches the spreadsheet for q and writes it into dir. The body
// must open as a workbook before anything is written.
func (e *Exporter) Download(ctx context.Context, q register.Query, dir string) (*Workbook, error) {
	data, err := e.api.GetBlob(ctx, exportPath, q.Values())
	if err != nil {
		return nil, fmt.Errorf("downloading export: %w", err)
	}

	sheets, err := sheetNames(data)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, Filename(q))
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}

	e.logger.Debug("export saved", "path", path, "bytes", len(data), "sheets", len(sheets))
	e.notifier.Send("asistr", "Registro exportado: "+filepath.Base(path))

	return &Workbook{Path: path, Size: len(data), Sheets: sheets}, nil
}

func sheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("export is not a valid workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming export: %w", err)
	}
	return nil
}
