// Package storage issues presigned upload URLs for the object store and
// uploads files through them.
package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"churchsite/constants"

	"github.com/gosimple/slug"
)

// ObjectKey builds uploads/{epoch-ms}-{sanitized filename}.
func ObjectKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s%d-%s", constants.UPLOAD_KEY_PREFIX, now.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename slugs the name and lowercases the extension so the result
// is safe in a URL path.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, path.Ext(base)))

	ext = "." + slug.Make(strings.TrimPrefix(ext, "."))
	if ext == "." {
		ext = ""
	}
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}

// PublicURL strips the signature query from a presigned URL.
func PublicURL(presigned string) string {
	u, err := url.Parse(presigned)
	if err != nil {
		before, _, _ := strings.Cut(presigned, "?")
		return before
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// KeyFromURL returns the object key of a public URL produced by PublicURL,
// or "" if the URL does not point into the upload prefix.
func KeyFromURL(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	idx := strings.Index(p, constants.UPLOAD_KEY_PREFIX)
	if idx < 0 {
		return ""
	}
	return p[idx:]
}
