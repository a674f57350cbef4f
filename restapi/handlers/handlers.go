package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bnb-chain/keys-hub/entity"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/service"
)

type response struct {
	Data interface{}  `json:"data"`
	Meta *entity.Meta `json:"meta,omitempty"`
}

// ResponseWriter records the status code written by a handler.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{w, http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) StatusCode() int {
	return rw.statusCode
}

func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func Error(err error) (int64, string) {
	var svcErr service.Err
	switch {
	case err == nil:
		return service.NoErr.Code, service.NoErr.Message
	case errors.As(err, &svcErr):
		return svcErr.Code, svcErr.Message
	default:
		return service.InternalErr.Code, err.Error()
	}
}

func writeError(w http.ResponseWriter, err error) {
	code, message := Error(service.ToErr(err))
	if code >= http.StatusInternalServerError {
		logging.Logger.Errorf("request failed, err=%s", message)
	}
	writeJSON(w, int(code), service.Err{Code: code, Message: message})
}

func writeData(w http.ResponseWriter, data interface{}, meta *entity.ElBlockSnapshot) {
	resp := response{Data: data}
	if meta != nil {
		resp.Meta = &entity.Meta{ElBlockSnapshot: meta}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("failed to write response, err=%s", err.Error())
	}
}
