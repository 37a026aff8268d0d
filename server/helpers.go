package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) writeResponse(rw http.ResponseWriter, payLoad ResponsePayload, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		s.logg.Error(payLoad.Errors)
	} else if statusCode >= http.StatusBadRequest {
		s.logg.Info(payLoad.Errors)
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payLoad)
}

func (s *Server) writeSuccess(rw http.ResponseWriter, data interface{}) {
	s.writeResponse(rw, ResponsePayload{Success: true, Data: data}, http.StatusOK)
}

// decodeAndValidate reads a JSON body into 'data' and checks its validate
// tags. An empty body is accepted when 'allowEmpty' is set. It writes the
// error response itself and returns false on failure.
func (s *Server) decodeAndValidate(rw http.ResponseWriter, r *http.Request, data interface{}, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(data)
	if err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		s.writeResponse(rw, ResponsePayload{Errors: []string{"invalid JSON body: " + err.Error()}}, http.StatusBadRequest)
		return false
	}

	if err := s.validate.Struct(data); err != nil {
		s.writeResponse(rw, ResponsePayload{Errors: validationErrors(err)}, http.StatusBadRequest)
		return false
	}

	return true
}

func validationErrors(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	errs := []string{}
	for _, fieldErr := range fieldErrs {
		errs = append(errs, fieldErr.Field()+" failed on '"+fieldErr.Tag()+"'")
	}

	return errs
}
