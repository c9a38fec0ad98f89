package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF joins each page's text with newlines. A page that yields no
// text, or whose content stream cannot be interpreted, contributes "".
func extractPDF(ctx context.Context, path string, logger *slog.Logger) (text string, err error) {
	// The pdf reader reports malformed cross-reference data by panicking.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("page text unavailable", "path", path, "page", i, "err", err)
			pageText = ""
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}
