package documents

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var ErrEmptyFileName = errors.New("documents: empty file name")

// Service resolves where compliance documents live in document storage.
// Uploads happen elsewhere; batchflow only stores the resulting links.
type Service struct {
	baseURL string
}

func NewService(baseURL string) *Service {
	return &Service{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL builds the public link of an already uploaded file, grouped by owner
// and document type: <base>/compliance/<owner>/<type>/<file>.
func (s *Service) URL(_ context.Context, docType, ownerID, fileName string) (string, error) {
	fileName = path.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return "", ErrEmptyFileName
	}
	return fmt.Sprintf("%s/compliance/%s/%s/%s",
		s.baseURL,
		url.PathEscape(ownerID),
		url.PathEscape(strings.ToLower(docType)),
		url.PathEscape(fileName),
	), nil
}
