package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrTooLarge = errors.New("file is too large")

// File is one upload. Open is called once, when the upload starts.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a parsed multipart file.
func FromMultipart(fh *multipart.FileHeader) File {
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return File{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type Uploaded struct {
	Key string
	URL string
}

type UploaderOptions struct {
	MaxSize     int64
	Concurrency int
	HTTPClient  *http.Client
}

// Uploader stores files by presigning a PUT and sending the bytes to the
// returned URL.
type Uploader struct {
	presigner   Presigner
	client      *http.Client
	maxSize     int64
	concurrency int
	now         func() time.Time
}

func NewUploader(presigner Presigner, opts UploaderOptions) *Uploader {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Uploader{
		presigner:   presigner,
		client:      client,
		maxSize:     opts.MaxSize,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// CheckSize reports ErrTooLarge when size exceeds limit. A limit of zero
// disables the check.
func CheckSize(size, limit int64) error {
	if limit > 0 && size > limit {
		return fmt.Errorf("%w: %d bytes, limit is %d bytes", ErrTooLarge, size, limit)
	}
	return nil
}

func (u *Uploader) Upload(ctx context.Context, f File) (*Uploaded, error) {
	return u.upload(ctx, ObjectKey(f.Filename, u.now()), f)
}

// UploadAll uploads files in parallel and returns their results in input
// order. If any upload fails the objects that were already stored are
// deleted before the error is returned.
func (u *Uploader) UploadAll(ctx context.Context, files []File) ([]Uploaded, error) {
	for _, f := range files {
		if err := CheckSize(f.Size, u.maxSize); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Filename, err)
		}
	}

	keys := uniqueKeys(files, u.now())
	results := make([]*Uploaded, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			res, err := u.upload(gctx, keys[i], files[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		u.discard(context.WithoutCancel(ctx), results)
		return nil, err
	}

	out := make([]Uploaded, 0, len(results))
	for _, r := range results {
		out = append(out, *r)
	}
	return out, nil
}

// Discard deletes stored uploads, logging failures. It is used to undo
// uploads whose database write failed.
func (u *Uploader) Discard(ctx context.Context, uploads []Uploaded) {
	ptrs := make([]*Uploaded, 0, len(uploads))
	for i := range uploads {
		ptrs = append(ptrs, &uploads[i])
	}
	u.discard(ctx, ptrs)
}

func (u *Uploader) discard(ctx context.Context, uploads []*Uploaded) {
	for _, up := range uploads {
		if up == nil {
			continue
		}
		if err := u.presigner.DeleteObject(ctx, up.Key); err != nil {
			log.Printf("Failed to remove orphaned upload %s: %v", up.Key, err)
		}
	}
}

func (u *Uploader) upload(ctx context.Context, key string, f File) (*Uploaded, error) {
	if err := CheckSize(f.Size, u.maxSize); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Filename, err)
	}

	signed, err := u.presigner.PresignPut(ctx, key, f.ContentType)
	if err != nil {
		return nil, err
	}

	body, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", f.Filename, err)
	}
	defer body.Close()

	method := signed.Method
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, signed.URL, body)
	if err != nil {
		return nil, fmt.Errorf("error building upload request for %s: %w", f.Filename, err)
	}
	req.ContentLength = f.Size
	for name, values := range signed.Header {
		if strings.EqualFold(name, "Host") || strings.EqualFold(name, "Content-Length") {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", f.ContentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error uploading %s: %w", f.Filename, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("error uploading %s: object store answered %s", f.Filename, resp.Status)
	}

	return &Uploaded{Key: key, URL: PublicURL(signed.URL)}, nil
}

// uniqueKeys derives one object key per file, numbering repeated file names
// so that files uploaded in the same millisecond do not overwrite each other.
// A numbered name is never one that another file of the batch already uses.
func uniqueKeys(files []File, now time.Time) []string {
	keys := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, f := range files {
		name := SanitizeFilename(f.Filename)
		if used[name] {
			ext := path.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for n := 2; used[name]; n++ {
				name = fmt.Sprintf("%s-%d%s", stem, n, ext)
			}
		}
		used[name] = true
		keys[i] = ObjectKey(name, now)
	}
	return keys
}
