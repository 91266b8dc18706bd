package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1717171717171)

	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "uploads/1717171717171-photo.jpg"},
		{"My Photo (1).JPG", "uploads/1717171717171-my-photo-1.jpg"},
		{"../../etc/passwd", "uploads/1717171717171-passwd"},
		{`C:\Users\maria\Pictures\Fiesta Mass.png`, "uploads/1717171717171-fiesta-mass.png"},
		{"???.png", "uploads/1717171717171-file.png"},
		{"", "uploads/1717171717171-file"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.filename, now))
		})
	}
}

func TestPublicURL(t *testing.T) {
	presigned := "https://parish.s3.eu-west-1.amazonaws.com/uploads/1-a.jpg?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Signature=abc"
	assert.Equal(t, "https://parish.s3.eu-west-1.amazonaws.com/uploads/1-a.jpg", PublicURL(presigned))
	assert.Equal(t, "uploads/1-a.jpg", KeyFromURL(PublicURL(presigned)))
	assert.Equal(t, "uploads/1-a.jpg", KeyFromURL("http://minio:9000/parish/uploads/1-a.jpg"))
	assert.Empty(t, KeyFromURL("https://cdn.example/static/logo.png"))
}

// fakeStore is an object store served over HTTP plus a Presigner that signs
// for it.
type fakeStore struct {
	server *httptest.Server

	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func newFakeStore(t *testing.T) *fakeStore {
	fs := &fakeStore{objects: map[string]string{}}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("X-Amz-Signature") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.objects[strings.TrimPrefix(r.URL.Path, "/parish/")] = r.Header.Get("Content-Type") + ":" + string(body)
		fs.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeStore) PresignPut(_ context.Context, key, contentType string) (*PresignedPut, error) {
	return &PresignedPut{
		URL:       fs.server.URL + "/parish/" + key + "?X-Amz-Signature=sig",
		Method:    http.MethodPut,
		Header:    http.Header{"Host": {"ignored"}},
		Key:       key,
		ExpiresIn: 900 * time.Second,
	}, nil
}

func (fs *fakeStore) DeleteObject(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.objects, key)
	fs.deleted = append(fs.deleted, key)
	return nil
}

func (fs *fakeStore) Bucket() string { return "parish" }
func (fs *fakeStore) Region() string { return "eu-west-1" }

func memFile(name, content string) File {
	return File{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func newTestUploader(fs *fakeStore, maxSize int64) *Uploader {
	u := NewUploader(fs, UploaderOptions{MaxSize: maxSize, Concurrency: 2, HTTPClient: fs.server.Client()})
	u.now = func() time.Time { return time.UnixMilli(1000) }
	return u
}

func TestUploader_Upload(t *testing.T) {
	fs := newFakeStore(t)
	u := newTestUploader(fs, 1<<20)

	up, err := u.Upload(context.Background(), memFile("Altar Servers.jpg", "jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "uploads/1000-altar-servers.jpg", up.Key)
	assert.Equal(t, fs.server.URL+"/parish/uploads/1000-altar-servers.jpg", up.URL)
	assert.Equal(t, "image/jpeg:jpeg-bytes", fs.objects[up.Key])
}

func TestUploader_TooLarge(t *testing.T) {
	fs := newFakeStore(t)
	u := newTestUploader(fs, 4)

	_, err := u.Upload(context.Background(), memFile("big.jpg", "12345"))
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Empty(t, fs.objects)
}

func TestUploader_UploadAllKeepsOrderAndDedupesNames(t *testing.T) {
	fs := newFakeStore(t)
	u := newTestUploader(fs, 1<<20)

	files := []File{memFile("a.jpg", "1"), memFile("b.jpg", "2"), memFile("a.jpg", "3")}
	ups, err := u.UploadAll(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, ups, 3)

	assert.Equal(t, "uploads/1000-a.jpg", ups[0].Key)
	assert.Equal(t, "uploads/1000-b.jpg", ups[1].Key)
	assert.Equal(t, "uploads/1000-a-2.jpg", ups[2].Key)
	assert.Len(t, fs.objects, 3)
}

func TestUniqueKeys_NumberedNameAlreadyInBatch(t *testing.T) {
	now := time.UnixMilli(1)

	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "numbered name uploaded later",
			files: []string{"a.jpg", "a.jpg", "a-2.jpg"},
			want:  []string{"uploads/1-a.jpg", "uploads/1-a-2.jpg", "uploads/1-a-2-2.jpg"},
		},
		{
			name:  "numbered name uploaded first",
			files: []string{"a-2.jpg", "a.jpg", "a.jpg"},
			want:  []string{"uploads/1-a-2.jpg", "uploads/1-a.jpg", "uploads/1-a-3.jpg"},
		},
		{
			name:  "names that sanitize alike",
			files: []string{"Easter Vigil.JPG", "easter-vigil.jpg", "easter vigil.jpg"},
			want:  []string{"uploads/1-easter-vigil.jpg", "uploads/1-easter-vigil-2.jpg", "uploads/1-easter-vigil-3.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make([]File, 0, len(tt.files))
			for _, name := range tt.files {
				files = append(files, memFile(name, "x"))
			}
			assert.Equal(t, tt.want, uniqueKeys(files, now))
		})
	}
}

func TestUploader_UploadAllNeverSharesAKey(t *testing.T) {
	fs := newFakeStore(t)
	u := newTestUploader(fs, 1<<20)

	files := []File{memFile("a.jpg", "1"), memFile("a.jpg", "2"), memFile("a-2.jpg", "3")}
	ups, err := u.UploadAll(context.Background(), files)
	require.NoError(t, err)

	keys := map[string]bool{}
	for _, up := range ups {
		assert.False(t, keys[up.Key], "duplicate object key %s", up.Key)
		keys[up.Key] = true
	}
	assert.Len(t, fs.objects, 3, "every photo is stored")
}

func TestUploader_UploadAllRemovesPartialUploadsOnFailure(t *testing.T) {
	fs := newFakeStore(t)
	u := newTestUploader(fs, 1<<20)
	u.concurrency = 1

	files := []File{memFile("a.jpg", "1"), memFile("b.jpg", "2"), memFile("broken.jpg", "3")}
	_, err := u.UploadAll(context.Background(), files)
	require.Error(t, err)

	assert.Empty(t, fs.objects, "uploads that succeeded are deleted again")
	assert.ElementsMatch(t, []string{"uploads/1000-a.jpg", "uploads/1000-b.jpg"}, fs.deleted)
}

func TestUploader_UploadAllChecksSizesBeforeUploading(t *testing.T) {
	fs := newFakeStore(t)
	u := newTestUploader(fs, 2)

	_, err := u.UploadAll(context.Background(), []File{memFile("a.jpg", "1"), memFile("b.jpg", "too big")})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, fs.objects)
	assert.Empty(t, fs.deleted)
}
