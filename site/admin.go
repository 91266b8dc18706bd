package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"churchsite/auth"
	"churchsite/database"
	"churchsite/registration"
	"churchsite/services"
	"churchsite/storage"
	"churchsite/templates"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var counts templates.DashboardCounts

	news, err := s.News.GetAll(ctx)
	if err != nil {
		http.Error(w, "Error loading dashboard", http.StatusInternalServerError)
		return
	}
	events, err := s.Events.GetAll(ctx)
	if err != nil {
		http.Error(w, "Error loading dashboard", http.StatusInternalServerError)
		return
	}
	albums, err := s.Albums.GetAll(ctx)
	if err != nil {
		http.Error(w, "Error loading dashboard", http.StatusInternalServerError)
		return
	}
	pending, err := s.Membership.GetByStatus(ctx, database.MembershipPending)
	if err != nil {
		http.Error(w, "Error loading dashboard", http.StatusInternalServerError)
		return
	}
	counts.News, counts.Events, counts.Albums, counts.PendingMembers = len(news), len(events), len(albums), len(pending)

	render(w, templates.AdminDashboard(adminProps(r, "Dashboard"), counts))
}

// discardUpload removes a cover image whose record could not be saved.
func (s *Server) discardUpload(ctx context.Context, up *storage.Uploaded) {
	if up != nil {
		s.Uploader.Discard(context.WithoutCancel(ctx), []storage.Uploaded{*up})
	}
}

// News

func (s *Server) adminNewsList(w http.ResponseWriter, r *http.Request) {
	news, err := s.News.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Error fetching news", http.StatusInternalServerError)
		return
	}
	render(w, templates.AdminNewsList(adminProps(r, "News"), news))
}

func newsFromForm(r *http.Request) *database.News {
	return &database.News{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Content:     r.FormValue("content"),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Author:      strings.TrimSpace(r.FormValue("author")),
		Status:      r.FormValue("status"),
	}
}

func (s *Server) createNews(w http.ResponseWriter, r *http.Request) {
	props := adminProps(r, "New article")

	switch r.Method {
	case "GET":
		render(w, templates.NewsForm(props, nil, ""))
	case "POST":
		if err := parseForm(r); err != nil {
			http.Error(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		n := newsFromForm(r)

		imageURL, uploaded, err := s.coverImage(r)
		if err != nil {
			s.saveFailed(w, err, "Error uploading image", func(msg string) {
				renderPage(w, http.StatusBadRequest, templates.NewsForm(props, n, msg))
			})
			return
		}
		n.ImageURL = imageURL

		if _, err := s.News.Create(r.Context(), n); err != nil {
			s.discardUpload(r.Context(), uploaded)
			s.saveFailed(w, err, "Error creating article", func(msg string) {
				renderPage(w, http.StatusBadRequest, templates.NewsForm(props, n, msg))
			})
			return
		}
		http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) editNews(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	existing, err := s.News.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading article", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	props := adminProps(r, "Edit article")

	switch r.Method {
	case "GET":
		render(w, templates.NewsForm(props, existing, ""))
	case "POST":
		if err := parseForm(r); err != nil {
			http.Error(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		n := newsFromForm(r)
		n.ID = id

		imageURL, uploaded, err := s.coverImage(r)
		if err != nil {
			s.saveFailed(w, err, "Error uploading image", func(msg string) {
				renderPage(w, http.StatusBadRequest, templates.NewsForm(props, n, msg))
			})
			return
		}
		n.ImageURL = imageURL

		if _, err := s.News.Update(r.Context(), n); err != nil {
			s.discardUpload(r.Context(), uploaded)
			s.saveFailed(w, err, "Error updating article", func(msg string) {
				renderPage(w, http.StatusBadRequest, templates.NewsForm(props, n, msg))
			})
			return
		}
		http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) deleteNews(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	if err := s.News.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting news %d: %v", id, err)
		http.Error(w, "Error deleting article", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
}

// Events

func (s *Server) adminEventsList(w http.ResponseWriter, r *http.Request) {
	events, err := s.Events.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Error fetching events", http.StatusInternalServerError)
		return
	}

	counts := make(map[uint]int64, len(events))
	for _, e := range events {
		n, err := s.Registrations.CountByEvent(r.Context(), e.ID)
		if err != nil {
			http.Error(w, "Error counting registrations", http.StatusInternalServerError)
			return
		}
		counts[e.ID] = n
	}

	render(w, templates.AdminEventsList(adminProps(r, "Events"), events, counts))
}

func eventFromForm(r *http.Request) (*database.Event, error) {
	e := &database.Event{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Time:        strings.TrimSpace(r.FormValue("time")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Attendees:   strings.TrimSpace(r.FormValue("attendees")),
		Status:      r.FormValue("status"),
	}
	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		date, err := tryParseDate(raw)
		if err != nil {
			return e, fmt.Errorf("%w: %v", services.ErrInvalid, err)
		}
		e.Date = date
	}
	return e, nil
}

// modeFromForm reads the registration mode selector and its inputs. Only the
// inputs of the selected mode are looked at.
func modeFromForm(r *http.Request) (registration.Mode, error) {
	switch registration.Kind(r.FormValue("registration_mode")) {
	case registration.KindForm:
		var fields []registration.FormField
		if raw := strings.TrimSpace(r.FormValue("registration_fields")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &fields); err != nil {
				return registration.NoRegistration(), fmt.Errorf("%w: registration fields are not valid JSON: %v", services.ErrInvalid, err)
			}
		}
		mode, err := registration.FormMode(fields)
		if err != nil {
			return registration.NoRegistration(), fmt.Errorf("%w: %v", services.ErrInvalid, err)
		}
		return mode, nil
	case registration.KindExternalLink:
		mode, err := registration.ExternalLinkMode(r.FormValue("external_link"))
		if err != nil {
			return registration.NoRegistration(), fmt.Errorf("%w: %v", services.ErrInvalid, err)
		}
		return mode, nil
	case registration.KindNone, "":
		return registration.NoRegistration(), nil
	default:
		return registration.NoRegistration(), fmt.Errorf("%w: unknown registration mode %q", services.ErrInvalid, r.FormValue("registration_mode"))
	}
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	props := adminProps(r, "New event")

	switch r.Method {
	case "GET":
		render(w, templates.EventForm(props, nil, registration.NoRegistration(), ""))
	case "POST":
		if err := parseForm(r); err != nil {
			http.Error(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.saveEvent(w, r, props, 0)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) editEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	existing, err := s.Events.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading event", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	props := adminProps(r, "Edit event")

	switch r.Method {
	case "GET":
		render(w, templates.EventForm(props, existing, s.Events.Mode(existing), ""))
	case "POST":
		if err := parseForm(r); err != nil {
			http.Error(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.saveEvent(w, r, props, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// saveEvent creates the event when id is zero and updates it otherwise.
func (s *Server) saveEvent(w http.ResponseWriter, r *http.Request, props templates.LayoutProps, id uint) {
	e, formErr := eventFromForm(r)
	e.ID = id
	mode, modeErr := modeFromForm(r)

	fail := func(err error, msg string) {
		s.saveFailed(w, err, msg, func(m string) {
			renderPage(w, http.StatusBadRequest, templates.EventForm(props, e, mode, m))
		})
	}
	if err := errors.Join(formErr, modeErr); err != nil {
		fail(err, "Error saving event")
		return
	}

	imageURL, uploaded, err := s.coverImage(r)
	if err != nil {
		fail(err, "Error uploading image")
		return
	}
	e.ImageURL = imageURL

	if id == 0 {
		_, err = s.Events.Create(r.Context(), e, mode)
	} else {
		_, err = s.Events.Update(r.Context(), e, mode)
	}
	if err != nil {
		s.discardUpload(r.Context(), uploaded)
		fail(err, "Error saving event")
		return
	}
	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	if err := s.Events.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting event %d: %v", id, err)
		http.Error(w, "Error deleting event", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/events", http.StatusSeeOther)
}

func (s *Server) loadEvent(w http.ResponseWriter, r *http.Request) *database.Event {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return nil
	}
	e, err := s.Events.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading event", http.StatusInternalServerError)
		return nil
	}
	if e == nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return nil
	}
	return e
}

func (s *Server) eventRegistrations(w http.ResponseWriter, r *http.Request) {
	e := s.loadEvent(w, r)
	if e == nil {
		return
	}
	regs, err := s.Registrations.ListByEvent(r.Context(), e.ID)
	if err != nil {
		http.Error(w, "Error fetching registrations", http.StatusInternalServerError)
		return
	}
	fields := s.Events.Mode(e).Fields()
	render(w, templates.RegistrationsPage(adminProps(r, "Registrations"), e, fields, regs))
}

func (s *Server) eventRegistrationsCSV(w http.ResponseWriter, r *http.Request) {
	e := s.loadEvent(w, r)
	if e == nil {
		return
	}

	filename := fmt.Sprintf("registrations-%d-%s.csv", e.ID, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := s.Registrations.ExportCSV(r.Context(), w, e); err != nil {
		log.Printf("Error exporting registrations for event %d: %v", e.ID, err)
		http.Error(w, "Error exporting registrations", http.StatusInternalServerError)
	}
}

// Albums

func (s *Server) adminAlbumsList(w http.ResponseWriter, r *http.Request) {
	albums, err := s.Albums.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Error fetching albums", http.StatusInternalServerError)
		return
	}
	render(w, templates.AdminAlbumsList(adminProps(r, "Albums"), albums))
}

func albumFromForm(r *http.Request) (*database.Album, error) {
	a := &database.Album{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    strings.TrimSpace(r.FormValue("category")),
	}
	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		date, err := tryParseDate(raw)
		if err != nil {
			return a, fmt.Errorf("%w: %v", services.ErrInvalid, err)
		}
		a.Date = date
	}
	return a, nil
}

func (s *Server) createAlbum(w http.ResponseWriter, r *http.Request) {
	props := adminProps(r, "New album")

	switch r.Method {
	case "GET":
		render(w, templates.AlbumForm(props, nil, nil, ""))
	case "POST":
		if err := parseForm(r); err != nil {
			http.Error(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		a, err := albumFromForm(r)
		fail := func(err error, msg string) {
			s.saveFailed(w, err, msg, func(m string) {
				renderPage(w, http.StatusBadRequest, templates.AlbumForm(props, a, nil, m))
			})
		}
		if err != nil {
			fail(err, "Error creating album")
			return
		}

		uploads, err := s.Uploader.UploadAll(r.Context(), albumFiles(r))
		if err != nil {
			fail(err, "Error uploading photos")
			return
		}

		if _, err := s.Albums.Create(r.Context(), a, uploadURLs(uploads)); err != nil {
			s.Uploader.Discard(context.WithoutCancel(r.Context()), uploads)
			fail(err, "Error creating album")
			return
		}
		http.Redirect(w, r, "/admin/albums", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) editAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	existing, err := s.Albums.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading album", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	images, err := s.Albums.Images(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading album", http.StatusInternalServerError)
		return
	}
	props := adminProps(r, "Edit album")

	switch r.Method {
	case "GET":
		render(w, templates.AlbumForm(props, existing, images, ""))
	case "POST":
		if err := parseForm(r); err != nil {
			http.Error(w, "Failed to parse form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		a, err := albumFromForm(r)
		a.ID = id
		fail := func(err error, msg string) {
			s.saveFailed(w, err, msg, func(m string) {
				renderPage(w, http.StatusBadRequest, templates.AlbumForm(props, a, images, m))
			})
		}
		if err != nil {
			fail(err, "Error updating album")
			return
		}

		var removed []uint
		for _, raw := range r.Form["remove_image"] {
			imageID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				http.Error(w, "Invalid image id", http.StatusBadRequest)
				return
			}
			removed = append(removed, uint(imageID))
		}

		uploads, err := s.Uploader.UploadAll(r.Context(), albumFiles(r))
		if err != nil {
			fail(err, "Error uploading photos")
			return
		}

		if _, err := s.Albums.Update(r.Context(), a, removed, uploadURLs(uploads)); err != nil {
			s.Uploader.Discard(context.WithoutCancel(r.Context()), uploads)
			if errors.Is(err, services.ErrNotFound) {
				http.Error(w, "Album not found", http.StatusNotFound)
				return
			}
			fail(err, "Error updating album")
			return
		}
		s.discardStored(r.Context(), removedURLs(images, removed))
		http.Redirect(w, r, "/admin/albums", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) deleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	images, err := s.Albums.Images(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading album", http.StatusInternalServerError)
		return
	}
	if err := s.Albums.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting album %d: %v", id, err)
		http.Error(w, "Error deleting album", http.StatusInternalServerError)
		return
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.ImageURL)
	}
	s.discardStored(r.Context(), urls)
	http.Redirect(w, r, "/admin/albums", http.StatusSeeOther)
}

func removedURLs(images []database.AlbumImage, removed []uint) []string {
	gone := make(map[uint]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}
	var urls []string
	for _, img := range images {
		if gone[img.ID] {
			urls = append(urls, img.ImageURL)
		}
	}
	return urls
}

func uploadURLs(uploads []storage.Uploaded) []string {
	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		urls = append(urls, up.URL)
	}
	return urls
}

// Membership

func (s *Server) membershipList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var (
		list []database.MembershipRegistration
		err  error
	)
	if status == "" {
		list, err = s.Membership.GetAll(r.Context())
	} else {
		list, err = s.Membership.GetByStatus(r.Context(), status)
	}
	if errors.Is(err, services.ErrInvalidStatus) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Error fetching registrations", http.StatusInternalServerError)
		return
	}

	render(w, templates.MembershipList(adminProps(r, "Membership"), list, status))
}

func (s *Server) membershipDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Registration not found", http.StatusNotFound)
		return
	}
	m, err := s.Membership.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading registration", http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "Registration not found", http.StatusNotFound)
		return
	}
	render(w, templates.MembershipDetail(adminProps(r, m.FullName()), m))
}

func (s *Server) membershipStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Registration not found", http.StatusNotFound)
		return
	}

	processedBy := auth.CurrentUser(r.Context()).Username
	_, err = s.Membership.UpdateStatus(r.Context(), id, r.FormValue("status"), processedBy, strings.TrimSpace(r.FormValue("notes")))
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "Registration not found", http.StatusNotFound)
		return
	case errors.Is(err, services.ErrInvalidStatus):
		renderPage(w, http.StatusBadRequest, templates.ErrorPage(adminProps(r, "Membership"), "Could not update registration",
			[]string{err.Error()}, fmt.Sprintf("/admin/membership/%d", id)))
		return
	case err != nil:
		log.Printf("Error updating membership %d: %v", id, err)
		http.Error(w, "Error updating registration", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/membership/%d", id), http.StatusSeeOther)
}

// Mass

func (s *Server) massSettings(w http.ResponseWriter, r *http.Request) {
	props := adminProps(r, "Mass settings")

	switch r.Method {
	case "GET":
		mass, err := s.Mass.Get(r.Context())
		if err != nil {
			http.Error(w, "Error loading mass settings", http.StatusInternalServerError)
			return
		}
		render(w, templates.MassForm(props, mass, r.URL.Query().Get("saved") == "1"))
	case "POST":
		in := &database.MassSettings{
			ChurchName: strings.TrimSpace(r.FormValue("church_name")),
			MassTime:   strings.TrimSpace(r.FormValue("mass_time")),
			Address:    strings.TrimSpace(r.FormValue("address")),
			Email:      strings.TrimSpace(r.FormValue("email")),
		}
		if _, err := s.Mass.Save(r.Context(), in); err != nil {
			log.Printf("Error saving mass settings: %v", err)
			http.Error(w, "Error saving mass settings", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/admin/mass?saved=1", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// saveFailed re-renders the form for input errors and answers 500 otherwise.
func (s *Server) saveFailed(w http.ResponseWriter, err error, msg string, rerender func(string)) {
	if isInputError(err) {
		rerender(err.Error())
		return
	}
	log.Printf("%s: %v", msg, err)
	http.Error(w, msg, http.StatusInternalServerError)
}
