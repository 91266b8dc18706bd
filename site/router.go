package site

import (
	"net/http"
	"time"

	"churchsite/auth"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	CORSMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	r.Use(CORSMiddleware.Handler)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(httprate.LimitByIP(100, time.Minute)) // shared across all routes
	r.Use(middleware.Recoverer)
	r.Use(s.Sessions.LoadSession)

	r.Get("/", s.home)
	r.Get("/about", s.about)
	r.Get("/mass", s.massTimes)
	r.Get("/events", s.publicEvents)
	r.HandleFunc("/events/{id}", s.publicEvent)
	r.Get("/news", s.publicNewsList)
	r.Get("/news/{id}", s.publicNews)
	r.Get("/gallery", s.gallery)
	r.Get("/gallery/{id}", s.publicAlbum)
	r.HandleFunc("/community", s.community)

	r.HandleFunc("/signin", s.signIn)
	r.Post("/logout", s.logout)

	r.With(auth.RequireSession).Route("/admin", func(r chi.Router) {
		r.Get("/", s.dashboard)

		r.Get("/news", s.adminNewsList)
		r.HandleFunc("/news/new", s.createNews)
		r.HandleFunc("/news/{id}", s.editNews)
		r.Post("/news/{id}/delete", s.deleteNews)

		r.Get("/events", s.adminEventsList)
		r.HandleFunc("/events/new", s.createEvent)
		r.HandleFunc("/events/{id}", s.editEvent)
		r.Post("/events/{id}/delete", s.deleteEvent)
		r.Get("/events/{id}/registrations", s.eventRegistrations)
		r.Get("/events/{id}/registrations.csv", s.eventRegistrationsCSV)

		r.Get("/albums", s.adminAlbumsList)
		r.HandleFunc("/albums/new", s.createAlbum)
		r.HandleFunc("/albums/{id}", s.editAlbum)
		r.Post("/albums/{id}/delete", s.deleteAlbum)

		r.Get("/membership", s.membershipList)
		r.Get("/membership/{id}", s.membershipDetail)
		r.Post("/membership/{id}/status", s.membershipStatus)

		r.HandleFunc("/mass", s.massSettings)
	})

	fileServer := http.FileServer(http.Dir("./assets"))
	r.Handle("/assets/*", http.StripPrefix("/assets", fileServer))

	r.Route("/api", func(r chi.Router) {
		r.With(auth.RequireSessionAPI).HandleFunc("/s3/presign", s.presign)
		r.Post("/membership", s.createMembershipAPI)
		r.With(auth.RequireSessionAPI).Get("/membership", s.listMembershipAPI)
	})

	return r
}
