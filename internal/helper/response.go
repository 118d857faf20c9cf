package helper

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ResponseSuccess struct {
	Data interface{} `json:"data"`
}

type ResponseError struct {
	Error string `json:"error"`
}

type PaginationMeta struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasNext bool `json:"has_next"`
}

type ResponseWithPagination struct {
	Data interface{}    `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

func WriteJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	if data == nil {
		data = ""
	}
	WriteJSON(w, http.StatusOK, ResponseSuccess{
		Data: data,
	})
}

func WriteSuccessWithPagination(w http.ResponseWriter, data interface{}, limit, offset int, hasNext bool) {
	WriteJSON(w, http.StatusOK, ResponseWithPagination{
		Data: data,
		Meta: PaginationMeta{
			Limit:   limit,
			Offset:  offset,
			HasNext: hasNext,
		},
	})
}

func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalServerError("Internal Server Error")
	}

	WriteJSON(w, appErr.Code, ResponseError{
		Error: appErr.Message,
	})
}
