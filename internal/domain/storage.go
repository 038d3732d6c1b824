package domain

import "context"

// FileUpload is an in-memory file received from a multipart request.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// ObjectStorage is the blob store collaborator (infrastructure port).
// Upload stores an object under path and returns its public URL. Remove
// deletes objects by path; missing objects are not an error.
type ObjectStorage interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (publicURL string, err error)
	Remove(ctx context.Context, paths ...string) error
}
