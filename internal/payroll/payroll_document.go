package payroll

import (
	"fmt"

	payrollerrors "go-payroll-admin/internal/payroll/errors"
)

const DocumentContentType = "application/pdf"

// Document is a downloadable payslip.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

func DocumentFilename(id int64) string {
	return fmt.Sprintf("fiche_paie_%d.pdf", id)
}

// NewDocument types the raw store response as a PDF download. The bytes are not
// inspected beyond being non-empty.
func NewDocument(id int64, content []byte) (Document, error) {
	if len(content) == 0 {
		return Document{}, payrollerrors.ErrEmptyDocument
	}
	return Document{
		Filename:    DocumentFilename(id),
		ContentType: DocumentContentType,
		Content:     content,
	}, nil
}
