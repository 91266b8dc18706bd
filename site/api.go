package site

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"churchsite/constants"
	"churchsite/database"
	"churchsite/registration"
	"churchsite/storage"
)

type presignRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	Size        int64  `json:"size,omitempty" validate:"gte=0"`
}

type presignResponse struct {
	PresignedURL string `json:"presignedUrl"`
	ObjectKey    string `json:"objectKey"`
	ExpiresIn    int    `json:"expiresIn"`
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
}

// presign hands the browser a signed PUT URL so it can upload straight to the
// bucket.
func (s *Server) presign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req presignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Filename = strings.TrimSpace(req.Filename)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if err := registration.Struct(req); err != nil {
		var verr *registration.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, validationResponse{Error: verr.Error(), Problems: verr.Problems})
			return
		}
		log.Printf("Error validating presign request: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}
	if err := storage.CheckSize(req.Size, constants.MAX_ALBUM_IMAGE_SIZE); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := storage.ObjectKey(req.Filename, time.Now())
	signed, err := s.Presigner.PresignPut(r.Context(), key, req.ContentType)
	if err != nil {
		log.Printf("Error presigning %s: %v", key, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{
		PresignedURL: signed.URL,
		ObjectKey:    signed.Key,
		ExpiresIn:    int(signed.ExpiresIn.Seconds()),
		Bucket:       s.Presigner.Bucket(),
		Region:       s.Presigner.Region(),
	})
}

type validationResponse struct {
	Error    string                 `json:"error"`
	Problems []registration.Problem `json:"problems"`
}

func (s *Server) createMembershipAPI(w http.ResponseWriter, r *http.Request) {
	var m database.MembershipRegistration
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&m); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	created, err := s.Membership.Create(r.Context(), &m)
	var verr *registration.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: verr.Error(), Problems: verr.Problems})
		return
	}
	if err != nil {
		log.Printf("Error creating membership registration: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to save registration")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listMembershipAPI(w http.ResponseWriter, r *http.Request) {
	var (
		list []database.MembershipRegistration
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		list, err = s.Membership.GetByStatus(r.Context(), status)
	} else {
		list, err = s.Membership.GetAll(r.Context())
	}
	if err != nil {
		if isInputError(err) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error listing membership registrations: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load registrations")
		return
	}

	writeJSON(w, http.StatusOK, list)
}
