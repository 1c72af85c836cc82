package httpresponse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	appErrors "lizboard/internal/errors"
)

type Response[T any] struct {
	Status int `json:"Status"`
	Body   T   `json:"Body,omitempty"`
}

type ErrorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
}

const INTERNALERRORJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

const MALFORMEDJSON_errorDesc = "json unmarshalling error"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response[any]{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// implementation similar to http.Error, only difference is the Content-type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}

// StatusOf maps domain errors to HTTP statuses.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrOccupiedCell):
		return http.StatusConflict
	case errors.Is(err, appErrors.ErrInvalidMove),
		errors.Is(err, appErrors.ErrMalformedRecord):
		return http.StatusBadRequest
	case errors.Is(err, appErrors.ErrRecordNotFound),
		errors.Is(err, appErrors.ErrNoDeletedSequence):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrNoSuggestion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, appErrors.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		WriteInternalErrorResponse(w)
		return
	}
	WriteResponseWithStatus(w, status, ErrorResponse{ErrorDescription: err.Error()})
}
