package responder

import (
	"errors"
	"net/http"

	"github.com/drblury/oairouter/jsonutil"
)

// HandleAPIError renders a problem document for status and logs it.
func (r *Responder) HandleAPIError(w http.ResponseWriter, req *http.Request, status int, err error, logMsg ...string) {
	if err == nil {
		return
	}

	meta := r.statusMetaFor(status)
	problem := r.buildProblemDetails(req, status, err, meta)
	r.logProblem(req, meta, problem, logMsg)
	r.respondWithJSON(w, status, problem, problemContentType)
}

// HandleInternalServerError reports a 500.
func (r *Responder) HandleInternalServerError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusInternalServerError, err, logMsg...)
}

// HandleBadRequestError reports request validation failures using HTTP 400.
func (r *Responder) HandleBadRequestError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusBadRequest, err, logMsg...)
}

// HandleUnauthorizedError reports authentication failures using HTTP 401.
func (r *Responder) HandleUnauthorizedError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusUnauthorized, err, logMsg...)
}

// HandleTooManyRequestsError reports an exhausted rate limit using HTTP 429.
func (r *Responder) HandleTooManyRequestsError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	if w != nil {
		w.Header().Set("Retry-After", "1")
	}
	r.HandleAPIError(w, req, http.StatusTooManyRequests, err, logMsg...)
}

// HandleNotImplementedError reports a matched operation whose middleware
// chain never produced a response.
func (r *Responder) HandleNotImplementedError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	if err == nil {
		err = errors.New("operation is declared but no plugin handled it")
	}
	r.HandleAPIError(w, req, http.StatusNotImplemented, err, logMsg...)
}

// HandleErrors classifies err and renders the matching problem document.
func (r *Responder) HandleErrors(w http.ResponseWriter, req *http.Request, err error, msgs ...string) {
	if err == nil {
		return
	}

	if status, handled := r.classifyError(err); handled {
		r.HandleAPIError(w, req, status, err, msgs...)
		return
	}

	r.HandleInternalServerError(w, req, err, msgs...)
}

// RespondWithJSON serialises v with the supplied status code.
func (r *Responder) RespondWithJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	r.respondWithJSON(w, status, v, jsonContentType)
}

// RespondWithContent writes a pre-rendered body such as an embedded asset.
func (r *Responder) RespondWithContent(w http.ResponseWriter, req *http.Request, status int, contentType string, body []byte) {
	if w == nil {
		return
	}
	r.writeResponse(w, status, resolveContentType(contentType, "application/octet-stream"), body)
}

func (r *Responder) respondWithJSON(w http.ResponseWriter, status int, payload any, contentType string) {
	if w == nil {
		return
	}

	body, err := marshalPayload(payload)
	if err != nil {
		r.logger().Error("failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	r.writeResponse(w, status, resolveContentType(contentType, jsonContentType), body)
}

func marshalPayload(payload any) ([]byte, error) {
	data, err := jsonutil.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

func (r *Responder) writeResponse(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		r.logger().Error("failed to write response", "error", err)
	}
}

func resolveContentType(provided, fallback string) string {
	if provided == "" {
		return fallback
	}
	return provided
}
