// Package site serves the parish website, the admin panel and the JSON API.
package site

import (
	"churchsite/auth"
	"churchsite/constants"
	"churchsite/services"
	"churchsite/storage"

	"gorm.io/gorm"
)

// Server holds everything the handlers need. There is no package level
// state; build one with New and mount Router.
type Server struct {
	News          *services.NewsService
	Events        *services.EventService
	Registrations *services.RegistrationService
	Albums        *services.AlbumService
	Membership    *services.MembershipService
	Mass          *services.MassService

	Auth     *auth.Service
	Sessions *auth.CookieStore

	Presigner storage.Presigner
	Uploader  *storage.Uploader
}

func New(db *gorm.DB, sessions *auth.CookieStore, presigner storage.Presigner) *Server {
	events := services.NewEventService(db)
	return &Server{
		News:          services.NewNewsService(db),
		Events:        events,
		Registrations: services.NewRegistrationService(db, events),
		Albums:        services.NewAlbumService(db),
		Membership:    services.NewMembershipService(db),
		Mass:          services.NewMassService(db),

		Auth:     auth.NewService(db),
		Sessions: sessions,

		Presigner: presigner,
		Uploader: storage.NewUploader(presigner, storage.UploaderOptions{
			MaxSize:     constants.MAX_ALBUM_IMAGE_SIZE,
			Concurrency: constants.MAX_CONCURRENT_UPLOADS,
		}),
	}
}
