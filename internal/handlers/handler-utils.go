package handlers

import (
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/dtos"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *app_error.AppError

func WrapHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			reqID := middleware.RequestIdFrom(r.Context())
			event := log.Warn()
			if err.Code >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.Err(err).Str("request_id", reqID).Str("field", err.Field).Msg("request failed")
			WriteJSON(w, err.Code, dtos.Response[any]{
				Message: "Error occur",
				Errors: &dtos.ErrorResponse{
					Code:    err.Code,
					Field:   err.Field,
					Message: err.Message,
				},
				RequestID: reqID,
			})
		}
	}
}

func CreateResponse[T any](message string, data T, requestId string) dtos.Response[T] {
	return dtos.Response[T]{
		Message:   message,
		Data:      data,
		RequestID: requestId,
	}
}

// ParseID reads a positive int64 path parameter.
func ParseID(raw, field string) (int64, *app_error.AppError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, app_error.Validation("invalid "+field, field)
	}
	return id, nil
}

// ParseOptionalInt returns 0 for an absent query value.
func ParseOptionalInt(raw, field string) (int, *app_error.AppError) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, app_error.Validation("invalid "+field, field)
	}
	return v, nil
}
