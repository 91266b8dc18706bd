package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"churchsite/auth"
	"churchsite/database"
	"churchsite/database/dbtest"
	"churchsite/registration"
	"churchsite/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-test-secret-test-secret"

// fakeBucket signs URLs pointing at an in-memory object store.
type fakeBucket struct {
	server  *httptest.Server
	failing bool

	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBucket(t *testing.T) *fakeBucket {
	b := &fakeBucket{objects: map[string][]byte{}}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.objects[strings.TrimPrefix(r.URL.Path, "/")] = body
		b.mu.Unlock()
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBucket) PresignPut(_ context.Context, key, _ string) (*storage.PresignedPut, error) {
	if b.failing {
		return nil, errors.New("credentials expired")
	}
	return &storage.PresignedPut{
		URL:       b.server.URL + "/" + key + "?X-Amz-Signature=abc",
		Method:    http.MethodPut,
		Key:       key,
		ExpiresIn: 900 * time.Second,
	}, nil
}

func (b *fakeBucket) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *fakeBucket) Bucket() string { return "parish-media" }
func (b *fakeBucket) Region() string { return "eu-west-1" }

type testSite struct {
	*Server
	db     *gorm.DB
	bucket *fakeBucket
	router http.Handler
}

func newTestSite(t *testing.T) *testSite {
	db := dbtest.Open(t)
	sessions, err := auth.NewCookieStore(testSecret, time.Hour, false)
	require.NoError(t, err)
	bucket := newFakeBucket(t)

	s := New(db, sessions, bucket)
	return &testSite{Server: s, db: db, bucket: bucket, router: s.Router()}
}

func (ts *testSite) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testSite) session(t *testing.T) *http.Cookie {
	rec := httptest.NewRecorder()
	require.NoError(t, ts.Sessions.Save(rec, &auth.Session{ID: 1, Username: "office", Email: "office@parish.org"}))
	return rec.Result().Cookies()[0]
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPresign(t *testing.T) {
	ts := newTestSite(t)
	cookie := ts.session(t)

	t.Run("requires a session", func(t *testing.T) {
		rec := ts.do(jsonRequest(http.MethodPost, "/api/s3/presign", `{"filename":"a.jpg","contentType":"image/jpeg"}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("only POST", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/s3/presign", nil), cookie)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
	})

	badRequests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"filename":`},
		{"missing filename", `{"contentType":"image/jpeg"}`},
		{"missing content type", `{"filename":"a.jpg"}`},
		{"too large", `{"filename":"a.jpg","contentType":"image/jpeg","size":52428800}`},
		{"negative size", `{"filename":"a.jpg","contentType":"image/jpeg","size":-1}`},
		{"blank filename", `{"filename":"   ","contentType":"image/jpeg"}`},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(jsonRequest(http.MethodPost, "/api/s3/presign", tt.body), cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	t.Run("names every missing field", func(t *testing.T) {
		rec := ts.do(jsonRequest(http.MethodPost, "/api/s3/presign", `{"size":-5}`), cookie)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var res validationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		fields := []string{}
		for _, p := range res.Problems {
			fields = append(fields, p.Field)
		}
		assert.Equal(t, []string{"filename", "contentType", "size"}, fields)
	})

	t.Run("signs an upload", func(t *testing.T) {
		rec := ts.do(jsonRequest(http.MethodPost, "/api/s3/presign", `{"filename":"Easter Vigil.JPG","contentType":"image/jpeg","size":1024}`), cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		var res presignResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Regexp(t, `^uploads/\d+-easter-vigil\.jpg$`, res.ObjectKey)
		assert.Contains(t, res.PresignedURL, res.ObjectKey)
		assert.Equal(t, 900, res.ExpiresIn)
		assert.Equal(t, "parish-media", res.Bucket)
		assert.Equal(t, "eu-west-1", res.Region)
	})

	t.Run("signing failure", func(t *testing.T) {
		ts.bucket.failing = true
		defer func() { ts.bucket.failing = false }()

		rec := ts.do(jsonRequest(http.MethodPost, "/api/s3/presign", `{"filename":"a.jpg","contentType":"image/jpeg"}`), cookie)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to generate upload URL"}`, rec.Body.String())
	})
}

func TestMembershipAPI(t *testing.T) {
	ts := newTestSite(t)

	rec := ts.do(jsonRequest(http.MethodPost, "/api/membership", `{
		"first_name": "Rosa",
		"last_name": "Santos",
		"email": "rosa@example.com",
		"registration_status": "approved",
		"additional_members": [{"name": "Miguel", "dateOfBirth": "2015-04-02"}]
	}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created database.MembershipRegistration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, database.MembershipPending, created.RegistrationStatus, "public submissions always start pending")
	assert.Equal(t, "Miguel", created.AdditionalMembers.Data()[0].Name)

	rec = ts.do(jsonRequest(http.MethodPost, "/api/membership", `{"last_name":"Santos"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "first_name")

	rec = ts.do(jsonRequest(http.MethodPost, "/api/membership", `not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/membership", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/membership", nil), ts.session(t))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []database.MembershipRegistration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/membership?status=archived", nil), ts.session(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicPagesRender(t *testing.T) {
	ts := newTestSite(t)

	for _, path := range []string{"/", "/about", "/mass", "/events", "/news", "/gallery", "/community", "/signin"} {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), "<!doctype html>")
		})
	}

	for _, path := range []string{"/events/99", "/news/99", "/gallery/99", "/news/abc"} {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestAdminRequiresSession(t *testing.T) {
	ts := newTestSite(t)

	for _, path := range []string{"/admin", "/admin/news", "/admin/events", "/admin/albums", "/admin/membership", "/admin/mass"} {
		rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/signin", rec.Header().Get("Location"), path)

		rec = ts.do(httptest.NewRequest(http.MethodGet, path, nil), ts.session(t))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSignInFlow(t *testing.T) {
	ts := newTestSite(t)
	_, err := ts.Auth.CreateUser(context.Background(), "office", "office@parish.org", "ave-maria-1")
	require.NoError(t, err)

	rec := ts.do(formRequest("/signin", url.Values{"email": {"office@parish.org"}, "password": {"wrong"}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "a failed sign in sets no session")

	rec = ts.do(formRequest("/signin", url.Values{"email": {"office@parish.org"}, "password": {"ave-maria-1"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/admin", nil), cookies[0])
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in as office")

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/signin", nil), cookies[0])
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/logout", nil), cookies[0])
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestEventRegistrationAndExport(t *testing.T) {
	ts := newTestSite(t)
	ctx := context.Background()

	mode, err := registration.FormMode(nil)
	require.NoError(t, err)
	ev, err := ts.Events.Create(ctx, &database.Event{
		Title:  "Parish Retreat",
		Date:   time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
		Status: database.EventStatusUpcoming,
	}, mode)
	require.NoError(t, err)
	path := fmt.Sprintf("/events/%d", ev.ID)

	rec := ts.do(formRequest(path, url.Values{"name": {"Lucia"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Phone Number is required")
	count, err := ts.Registrations.CountByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	rec = ts.do(formRequest(path, url.Values{"name": {"Lucia"}, "phone": {"+63 912 345 6789"}, "age": {"34"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, path+"?registered=1", rec.Header().Get("Location"))

	rec = ts.do(httptest.NewRequest(http.MethodGet, path+"/registrations.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "exports live under /admin")

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/admin"+path+"/registrations.csv", nil), ts.session(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Registration Date,Full Name,Phone Number,Email,Age", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",Lucia,+63 912 345 6789,,34"), lines[1])
}

func TestAdminNewsLifecycle(t *testing.T) {
	ts := newTestSite(t)
	cookie := ts.session(t)

	rec := ts.do(formRequest("/admin/news/new", url.Values{
		"title":     {"Lenten Schedule"},
		"content":   {"**Stations** every Friday"},
		"status":    {database.NewsStatusDraft},
		"image_url": {"https://cdn.example/lent.jpg"},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	all, err := ts.News.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	n := all[0]
	assert.Equal(t, "https://cdn.example/lent.jpg", n.ImageURL)
	assert.Nil(t, n.PublishedAt)

	rec = ts.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/news/%d", n.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "drafts are not public")

	rec = ts.do(formRequest(fmt.Sprintf("/admin/news/%d", n.ID), url.Values{
		"title":     {"Lenten Schedule"},
		"content":   {"**Stations** every Friday"},
		"status":    {database.NewsStatusPublished},
		"image_url": {"https://cdn.example/lent.jpg"},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/news/%d", n.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>Stations</strong>")

	rec = ts.do(formRequest("/admin/news/new", url.Values{"title": {""}}), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/news/%d/delete", n.ID), nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	gone, err := ts.News.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][]string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = fw.Write([]byte("bytes of " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAdminAlbumUpload(t *testing.T) {
	ts := newTestSite(t)
	cookie := ts.session(t)
	ctx := context.Background()

	rec := ts.do(multipartRequest(t, "/admin/albums/new",
		map[string]string{"title": "Confirmation 2024", "date": "2024-05-19"},
		map[string][]string{"images": {"one.jpg", "two.jpg", "three.jpg"}},
	), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	albums, err := ts.Albums.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	album := albums[0]
	assert.Equal(t, 3, album.ImageCount)
	assert.Len(t, ts.bucket.objects, 3)

	images, err := ts.Albums.Images(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, images[0].ImageURL, album.ImageURL)
	assert.Contains(t, images[0].ImageURL, "-one.jpg")

	rec = ts.do(multipartRequest(t, fmt.Sprintf("/admin/albums/%d", album.ID),
		map[string]string{"title": "Confirmation 2024", "remove_image": fmt.Sprint(images[0].ID)},
		map[string][]string{"images": {"four.jpg"}},
	), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	images, err = ts.Albums.Images(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Contains(t, images[0].ImageURL, "-two.jpg")
	assert.Contains(t, images[2].ImageURL, "-four.jpg")

	updated, err := ts.Albums.GetByID(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.ImageCount)
	assert.Equal(t, images[0].ImageURL, updated.ImageURL)

	assert.Len(t, ts.bucket.objects, 3, "the removed photo is deleted from the bucket")
	for key := range ts.bucket.objects {
		assert.NotContains(t, key, "-one.jpg")
	}

	rec = ts.do(httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/albums/%d/delete", album.ID), nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ts.bucket.objects, "deleting the album deletes its photos")
}

func TestCommunityForm(t *testing.T) {
	ts := newTestSite(t)

	rec := ts.do(formRequest("/community", url.Values{
		"first_name":           {"Jose"},
		"last_name":            {"Rizal"},
		"phone":                {"0917 000 0000"},
		"member_name":          {"Paciano", ""},
		"member_date_of_birth": {"1851-03-09", ""},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/community?submitted=1", rec.Header().Get("Location"))

	list, err := ts.Membership.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	members := list[0].AdditionalMembers.Data()
	require.Len(t, members, 1, "blank household rows are skipped")
	assert.Equal(t, "Paciano", members[0].Name)

	rec = ts.do(formRequest("/community", url.Values{"first_name": {"Jose"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Last name is required")
}

func TestMembershipStatusRecordsProcessor(t *testing.T) {
	ts := newTestSite(t)
	ctx := context.Background()

	m, err := ts.Membership.Create(ctx, &database.MembershipRegistration{FirstName: "Ana", LastName: "Cruz", Phone: "0917 111 2222"})
	require.NoError(t, err)

	rec := ts.do(formRequest(fmt.Sprintf("/admin/membership/%d/status", m.ID), url.Values{
		"status": {database.MembershipApproved},
		"notes":  {"Welcome!"},
	}), ts.session(t))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := ts.Membership.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, database.MembershipApproved, got.RegistrationStatus)
	assert.Equal(t, "office", got.ProcessedBy)
	assert.NotNil(t, got.ProcessedAt)

	rec = ts.do(formRequest(fmt.Sprintf("/admin/membership/%d/status", m.ID), url.Values{"status": {"maybe"}}), ts.session(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not update registration")
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`href="/admin/membership/%d"`, m.ID))
}

func TestRegistrationOnExternalLinkEvent(t *testing.T) {
	ts := newTestSite(t)

	mode, err := registration.ExternalLinkMode("https://forms.example/pilgrimage")
	require.NoError(t, err)
	ev, err := ts.Events.Create(context.Background(), &database.Event{
		Title:  "Pilgrimage",
		Date:   time.Date(2030, 9, 1, 0, 0, 0, 0, time.UTC),
		Status: database.EventStatusUpcoming,
	}, mode)
	require.NoError(t, err)

	rec := ts.do(formRequest(fmt.Sprintf("/events/%d", ev.ID), url.Values{"name": {"Lucia"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration unavailable")

	count, err := ts.Registrations.CountByEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
