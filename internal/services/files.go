package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"socio/internal/domain"
)

// UploadedFile records one object written to storage during a mutation, kept
// so the write can be compensated if the database operation fails afterwards.
type UploadedFile struct {
	Path string
	URL  string
}

// FileLifecycle manages the upload/replace/remove lifecycle of the binary
// assets attached to an event or fest. There is no cross-store atomicity
// between object storage and the database, so ordering carries the burden:
// uploads happen before the row write, and Rollback deletes them if the row
// write fails. Deletes are always best-effort; a blob that outlives its row
// only wastes space, while a failed mutation must never be reported as
// success because cleanup failed.
type FileLifecycle struct {
	store  domain.ObjectStorage
	bucket string
	logger *slog.Logger
}

// NewFileLifecycle returns a FileLifecycle writing to the given bucket.
func NewFileLifecycle(store domain.ObjectStorage, bucket string, logger *slog.Logger) *FileLifecycle {
	return &FileLifecycle{store: store, bucket: bucket, logger: logger}
}

// Upload stores one file under prefix with a collision-proof generated name
// and returns its storage path and public URL.
func (f *FileLifecycle) Upload(ctx context.Context, prefix, slot string, file *domain.FileUpload) (*UploadedFile, error) {
	name, err := uniqueFileName(slot, file.Name)
	if err != nil {
		return nil, err
	}
	key := prefix + "/" + name
	publicURL, err := f.store.Upload(ctx, key, file.ContentType, file.Data)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", slot, err)
	}
	return &UploadedFile{Path: key, URL: publicURL}, nil
}

// UploadSet uploads every provided file under prefix. If any upload fails,
// files already uploaded in this call are removed before the error is
// returned, leaving storage at its pre-call state.
func (f *FileLifecycle) UploadSet(ctx context.Context, prefix string, files map[string]*domain.FileUpload) (map[string]UploadedFile, error) {
	slots := make([]string, 0, len(files))
	for slot, file := range files {
		if file != nil {
			slots = append(slots, slot)
		}
	}
	sort.Strings(slots)

	out := make(map[string]UploadedFile, len(slots))
	var uploaded []UploadedFile
	for _, slot := range slots {
		up, err := f.Upload(ctx, prefix, slot, files[slot])
		if err != nil {
			f.Rollback(ctx, uploaded)
			return nil, err
		}
		out[slot] = *up
		uploaded = append(uploaded, *up)
	}
	return out, nil
}

// Rollback removes objects uploaded earlier in the same mutation. Failures
// are logged and swallowed: the mutation's outcome was already decided by
// the database write.
func (f *FileLifecycle) Rollback(ctx context.Context, uploaded []UploadedFile) {
	if len(uploaded) == 0 {
		return
	}
	paths := make([]string, 0, len(uploaded))
	for _, up := range uploaded {
		paths = append(paths, up.Path)
	}
	if err := f.store.Remove(ctx, paths...); err != nil {
		f.logger.Warn("failed to roll back uploaded files", "paths", paths, "err", err)
	}
}

// DeleteByURL resolves a stored public URL back to its object path and issues
// a best-effort delete. Unresolvable or empty URLs are ignored.
func (f *FileLifecycle) DeleteByURL(ctx context.Context, rawURL string) {
	p := ResolvePathFromURL(rawURL, f.bucket)
	if p == "" {
		return
	}
	if err := f.store.Remove(ctx, p); err != nil {
		f.logger.Warn("failed to delete stored file", "path", p, "err", err)
	}
}

// DeleteByURLs issues best-effort deletes for each non-nil URL. Used when a
// record is deleted and its associated files become orphans.
func (f *FileLifecycle) DeleteByURLs(ctx context.Context, urls ...*string) {
	var paths []string
	for _, u := range urls {
		if u == nil || *u == "" {
			continue
		}
		if p := ResolvePathFromURL(*u, f.bucket); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}
	if err := f.store.Remove(ctx, paths...); err != nil {
		f.logger.Warn("failed to delete stored files", "paths", paths, "err", err)
	}
}

// ResolvePathFromURL extracts the object path from a public URL: everything
// after the bucket-name path segment, joined by "/". It returns "" when the
// URL does not parse or the bucket segment is absent; callers treat "" as
// nothing to delete.
func ResolvePathFromURL(rawURL, bucket string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == bucket && i+1 < len(segments) {
			return strings.Join(segments[i+1:], "/")
		}
	}
	return ""
}

// uniqueFileName builds "<slot>-<12 hex chars><ext>" with a random middle so
// repeated uploads to the same slot never collide.
func uniqueFileName(slot, original string) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	return slot + "-" + hex.EncodeToString(b) + strings.ToLower(path.Ext(original)), nil
}
