package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"challenge-hub/internal/model"
	"challenge-hub/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeValidationError(w http.ResponseWriter, fields []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request payload",
			Fields:  fields,
		},
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found."
	} else if errors.Is(err, model.ErrUserAlreadyExists) {
		status = http.StatusBadRequest
		body.Code = "ALREADY_EXISTS"
		body.Message = "User already exists."
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusBadRequest
		body.Code = "INVALID_CREDENTIALS"
		body.Message = "Invalid credentials."
	} else if errors.Is(err, model.ErrOTPNotFound) || errors.Is(err, model.ErrOTPExpired) || errors.Is(err, model.ErrOTPMismatch) {
		status = http.StatusBadRequest
		body.Code = "INVALID_OTP"
		body.Message = "Invalid or expired OTP."
	} else if errors.Is(err, model.ErrTokenInvalid) || errors.Is(err, model.ErrTokenExpired) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrChallengeNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Challenge not found."
	} else if errors.Is(err, model.ErrChallengeNotOpen) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Challenge is not open for participation."
	} else if errors.Is(err, model.ErrAlreadyJoined) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Already a participant of this challenge."
	} else if errors.Is(err, model.ErrNotInChallenge) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Not a participant of this challenge."
	} else if errors.Is(err, model.ErrInvalidTransition) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid challenge status transition."
	} else if errors.Is(err, model.ErrMailDelivery) {
		status = http.StatusBadGateway
		body.Code = "MAIL_DELIVERY_FAILED"
		body.Message = "Could not send the verification email"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
