package site

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"churchsite/auth"
	"churchsite/database"
	"churchsite/registration"
	"churchsite/services"
	"churchsite/templates"

	"gorm.io/datatypes"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mass, err := s.Mass.Get(ctx)
	if err != nil {
		log.Printf("Error loading mass settings: %v", err)
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}
	events, err := s.Events.GetUpcoming(ctx)
	if err != nil {
		log.Printf("Error loading events: %v", err)
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}
	news, err := s.News.GetPublished(ctx)
	if err != nil {
		log.Printf("Error loading news: %v", err)
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}

	render(w, templates.HomePage(publicProps(r, ""), mass, events, news))
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	mass, err := s.Mass.Get(r.Context())
	if err != nil {
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}
	render(w, templates.AboutPage(publicProps(r, "About"), mass))
}

func (s *Server) massTimes(w http.ResponseWriter, r *http.Request) {
	mass, err := s.Mass.Get(r.Context())
	if err != nil {
		http.Error(w, "Error loading mass times", http.StatusInternalServerError)
		return
	}
	render(w, templates.MassPage(publicProps(r, "Mass Times"), mass))
}

func (s *Server) publicEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.Events.GetUpcoming(r.Context())
	if err != nil {
		http.Error(w, "Error loading events", http.StatusInternalServerError)
		return
	}
	render(w, templates.EventsPage(publicProps(r, "Events"), events))
}

func (s *Server) publicEvent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	event, err := s.Events.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading event", http.StatusInternalServerError)
		return
	}
	if event == nil || event.Status != database.EventStatusUpcoming {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	mode := s.Events.Mode(event)
	props := publicProps(r, event.Title)

	switch r.Method {
	case "GET":
		state := templates.EventFormState{Registered: r.URL.Query().Get("registered") == "1"}
		render(w, templates.EventPage(props, event, mode, state))

	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		data := make(map[string]string, len(mode.Fields()))
		for _, f := range mode.Fields() {
			data[f.ID] = r.PostFormValue(f.ID)
		}

		_, err := s.Registrations.Submit(r.Context(), event, data)
		var verr *registration.ValidationError
		switch {
		case errors.As(err, &verr):
			renderPage(w, http.StatusBadRequest, templates.EventPage(props, event, mode,
				templates.EventFormState{Values: data, Problems: verr.Problems}))
			return
		case errors.Is(err, services.ErrRegistrationClosed):
			renderPage(w, http.StatusBadRequest, templates.ErrorPage(props, "Registration unavailable",
				[]string{"This event does not take registrations on this site."}, fmt.Sprintf("/events/%d", event.ID)))
			return
		case err != nil:
			log.Printf("Error saving registration for event %d: %v", event.ID, err)
			http.Error(w, "Error saving registration", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/events/%d?registered=1", event.ID), http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) publicNewsList(w http.ResponseWriter, r *http.Request) {
	news, err := s.News.GetPublished(r.Context())
	if err != nil {
		http.Error(w, "Error loading news", http.StatusInternalServerError)
		return
	}
	render(w, templates.NewsListPage(publicProps(r, "News"), news))
}

func (s *Server) publicNews(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	n, err := s.News.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading article", http.StatusInternalServerError)
		return
	}
	if n == nil || n.Status != database.NewsStatusPublished {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}
	render(w, templates.NewsPage(publicProps(r, n.Title), n))
}

func (s *Server) gallery(w http.ResponseWriter, r *http.Request) {
	albums, err := s.Albums.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Error loading gallery", http.StatusInternalServerError)
		return
	}
	render(w, templates.GalleryPage(publicProps(r, "Gallery"), albums))
}

func (s *Server) publicAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	album, err := s.Albums.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Error loading album", http.StatusInternalServerError)
		return
	}
	if album == nil {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	images, err := s.Albums.Images(r.Context(), album.ID)
	if err != nil {
		http.Error(w, "Error loading album", http.StatusInternalServerError)
		return
	}
	render(w, templates.AlbumPage(publicProps(r, album.Title), album, images))
}

func (s *Server) community(w http.ResponseWriter, r *http.Request) {
	props := publicProps(r, "Join Us")

	switch r.Method {
	case "GET":
		render(w, templates.CommunityPage(props, r.URL.Query().Get("submitted") == "1", nil))

	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		_, err := s.Membership.Create(r.Context(), membershipFromForm(r))
		var verr *registration.ValidationError
		if errors.As(err, &verr) {
			renderPage(w, http.StatusBadRequest, templates.CommunityPage(props, false, verr.Problems))
			return
		}
		if err != nil {
			log.Printf("Error saving membership registration: %v", err)
			http.Error(w, "Error saving registration", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/community?submitted=1", http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func membershipFromForm(r *http.Request) *database.MembershipRegistration {
	v := r.PostFormValue
	m := &database.MembershipRegistration{
		FirstName:          v("first_name"),
		LastName:           v("last_name"),
		DateOfBirth:        v("date_of_birth"),
		DateOfBaptism:      v("date_of_baptism"),
		DateOfConfirmation: v("date_of_confirmation"),
		Gender:             v("gender"),
		MaritalStatus:      v("marital_status"),
		Address:            v("address"),
		Phone:              v("phone"),
		Email:              v("email"),
		Occupation:         v("occupation"),

		SpouseName:               v("spouse_name"),
		SpouseDateOfBirth:        v("spouse_date_of_birth"),
		SpouseDateOfBaptism:      v("spouse_date_of_baptism"),
		SpouseDateOfConfirmation: v("spouse_date_of_confirmation"),
		SpousePhone:              v("spouse_phone"),
		SpouseEmail:              v("spouse_email"),
	}

	names := r.PostForm["member_name"]
	births := r.PostForm["member_date_of_birth"]
	baptisms := r.PostForm["member_date_of_baptism"]
	confirmations := r.PostForm["member_date_of_confirmation"]
	at := func(values []string, i int) string {
		if i < len(values) {
			return strings.TrimSpace(values[i])
		}
		return ""
	}

	var members []database.AdditionalMember
	for i := range names {
		am := database.AdditionalMember{
			Name:               at(names, i),
			DateOfBirth:        at(births, i),
			DateOfBaptism:      at(baptisms, i),
			DateOfConfirmation: at(confirmations, i),
		}
		if am == (database.AdditionalMember{}) {
			continue // blank row
		}
		members = append(members, am)
	}
	m.AdditionalMembers = datatypes.NewJSONType(members)
	return m
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if auth.IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		render(w, templates.SignInPage(publicProps(r, "Sign in"), "", ""))

	case "POST":
		email := r.FormValue("email")
		password := r.FormValue("password")

		res, err := s.Auth.Login(r.Context(), email, password)
		if err != nil {
			log.Printf("Error signing in: %v", err)
			http.Error(w, "Error signing in", http.StatusInternalServerError)
			return
		}
		if !res.Success {
			renderPage(w, http.StatusUnauthorized, templates.SignInPage(publicProps(r, "Sign in"), email, res.Error))
			return
		}

		if err := s.Sessions.Save(w, res.User); err != nil {
			log.Printf("Error saving session: %v", err)
			http.Error(w, "Error signing in", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/admin", http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Clear(w)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}
