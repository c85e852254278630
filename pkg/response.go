package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain; charset=utf-8",
}

const InternalServerErrorMessage = "Internal server error"

// MessageResponse is the body of every error response, and of the success
// responses that carry nothing but a confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

// WriteJSONResponse marshals v and writes it with the given status code.
// A marshalling failure is logged and turned into an opaque 500.
func WriteJSONResponse(w http.ResponseWriter, v any, statusCode int) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response %T: %s", v, err)
		WriteInternalServerError(w)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, statusCode)
}

func WriteJSONResponseOK(w http.ResponseWriter, v any) {
	WriteJSONResponse(w, v, http.StatusOK)
}

func WriteMessage(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, MessageResponse{Message: message}, statusCode)
}

func WriteInternalServerError(w http.ResponseWriter) {
	respJson, _ := json.Marshal(MessageResponse{Message: InternalServerErrorMessage})
	WriteResponseBytes(w, ContentType.JSON, respJson, http.StatusInternalServerError)
}
