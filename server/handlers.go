package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/dispatch"
	"github.com/Daskott/sos/permissions"
	"github.com/Daskott/sos/server/auth"
	"github.com/Daskott/sos/server/auth/key"
	"github.com/Daskott/sos/version"
	"github.com/gorilla/mux"
)

type LoginRequest struct {
	Passphrase string `json:"passphrase" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ContactRequest struct {
	DisplayName string `json:"display_name"`
	Primary     string `json:"primary" validate:"required"`
	Secondary   string `json:"secondary"`
}

type PermissionRequest struct {
	Status string `json:"status" validate:"required,oneof=undetermined granted denied"`
}

type AlertRequest struct {
	ConfirmCall bool `json:"confirm_call"`
}

type AlertResponse struct {
	Outcome       dispatch.Outcome `json:"outcome"`
	Notice        string           `json:"notice"`
	SetupRequired bool             `json:"setup_required"`
}

func (s *Server) health(rw http.ResponseWriter, r *http.Request) {
	s.writeSuccess(rw, map[string]string{"version": version.Version})
}

func (s *Server) jwks(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := s.keyPair.JWK()
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	s.writeSuccess(rw, key.ExportJWKAsJWKS(keyPairJWK))
}

func (s *Server) logIn(rw http.ResponseWriter, r *http.Request) {
	data := LoginRequest{}
	if !s.decodeAndValidate(rw, r, &data, false) {
		return
	}

	passphraseHash, err := auth.FindPassphraseHash(s.DB.WithContext(r.Context()))
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if passphraseHash == "" {
		s.writeResponse(rw, ResponsePayload{Errors: []string{"no passphrase set, run 'sos passphrase' first"}}, http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassphraseHash(data.Passphrase, passphraseHash) {
		s.writeResponse(rw, ResponsePayload{Errors: []string{"passphrase is invalid"}}, http.StatusUnauthorized)
		return
	}

	now := s.now()
	token, err := auth.EncodeJWT(auth.NewTokenClaims(s.config.TokenTTL, now), s.keyPair)
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	s.writeSuccess(rw, LoginResponse{Token: token, ExpiresAt: now.Add(s.config.TokenTTL)})
}

func (s *Server) findContact(rw http.ResponseWriter, r *http.Request) {
	contact, err := s.Contacts.Get(r.Context())
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if contact == nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{"no emergency contacts configured"}}, http.StatusNotFound)
		return
	}

	s.writeSuccess(rw, contact)
}

func (s *Server) updateContact(rw http.ResponseWriter, r *http.Request) {
	data := ContactRequest{}
	if !s.decodeAndValidate(rw, r, &data, false) {
		return
	}

	err := s.Contacts.Save(r.Context(), data.DisplayName, data.Primary, data.Secondary)
	if errors.Is(err, contacts.ErrInvalidInput) {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	s.findContact(rw, r)
}

func (s *Server) deleteContact(rw http.ResponseWriter, r *http.Request) {
	if err := s.Contacts.Clear(r.Context()); err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	s.writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

func (s *Server) findPermissions(rw http.ResponseWriter, r *http.Request) {
	statuses, err := s.Permissions.All(r.Context())
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	s.writeSuccess(rw, statuses)
}

func (s *Server) updatePermission(rw http.ResponseWriter, r *http.Request) {
	kind, err := permissions.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	data := PermissionRequest{}
	if !s.decodeAndValidate(rw, r, &data, false) {
		return
	}

	status, _ := permissions.ParseStatus(data.Status)
	if err := s.Permissions.Set(r.Context(), kind, status); err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	s.writeSuccess(rw, map[permissions.Kind]permissions.Status{kind: status})
}

// createAlert runs one dispatch. A dropped connection does not cancel it.
func (s *Server) createAlert(rw http.ResponseWriter, r *http.Request) {
	data := AlertRequest{}
	if !s.decodeAndValidate(rw, r, &data, true) {
		return
	}

	outcome := s.Dispatcher.Dispatch(context.WithoutCancel(r.Context()), dispatch.Trigger{
		Source: "api",
		Confirm: func(ctx context.Context, number contacts.PhoneNumber) bool {
			return data.ConfirmCall
		},
	})

	response := AlertResponse{Outcome: outcome, Notice: outcome.Notice(), SetupRequired: outcome.SetupRequired()}
	if response.SetupRequired {
		s.writeResponse(rw, ResponsePayload{Errors: []string{response.Notice}, Data: response}, http.StatusConflict)
		return
	}

	s.writeSuccess(rw, response)
}
