package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"churchsite/constants"
	"churchsite/registration"
	"churchsite/services"
	"churchsite/storage"
)

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(constants.MAX_MULTIPART_MEMORY)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// coverImage returns the image URL to store for a news article or event. An
// uploaded file wins over a pasted URL. uploaded is non-nil when a file was
// stored and must be discarded if the database write fails.
func (s *Server) coverImage(r *http.Request) (url string, uploaded *storage.Uploaded, err error) {
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 && files[0].Size > 0 {
			fh := files[0]
			if err := storage.CheckSize(fh.Size, constants.MAX_IMAGE_SIZE); err != nil {
				return "", nil, fmt.Errorf("%s: %w", fh.Filename, err)
			}
			up, err := s.Uploader.Upload(r.Context(), storage.FromMultipart(fh))
			if err != nil {
				return "", nil, err
			}
			return up.URL, up, nil
		}
	}
	return strings.TrimSpace(r.FormValue("image_url")), nil, nil
}

// discardStored deletes the objects behind urls once the rows pointing at
// them are gone. URLs outside the upload prefix are left alone.
func (s *Server) discardStored(ctx context.Context, urls []string) {
	var stored []storage.Uploaded
	for _, u := range urls {
		if key := storage.KeyFromURL(u); key != "" {
			stored = append(stored, storage.Uploaded{Key: key, URL: u})
		}
	}
	s.Uploader.Discard(context.WithoutCancel(ctx), stored)
}

// albumFiles returns the photos of an album form, skipping empty inputs.
func albumFiles(r *http.Request) []storage.File {
	if r.MultipartForm == nil {
		return nil
	}
	var files []storage.File
	for _, fh := range r.MultipartForm.File["images"] {
		if fh.Size == 0 {
			continue
		}
		files = append(files, storage.FromMultipart(fh))
	}
	return files
}

// isInputError reports whether err was caused by what the user submitted.
func isInputError(err error) bool {
	var verr *registration.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, services.ErrInvalid) ||
		errors.Is(err, services.ErrInvalidStatus) ||
		errors.Is(err, storage.ErrTooLarge)
}
