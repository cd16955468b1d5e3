package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores objects in a bucket that is exposed through a public
// base URL.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ResultsKey is the object key of the results archive of a tournament.
func ResultsKey(tournamentID string) string {
	return "tournaments/" + tournamentID + "/results.json"
}
