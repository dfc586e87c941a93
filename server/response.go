package server

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/logging"
)

// Response 是统一的响应结构
type Response struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError 错误详情
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata 响应元信息
type Metadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Generation string    `json:"generation,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		l := logging.Logger()
		l.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		l := logging.Logger()
		l.Debug().Err(err).Msg("write response")
	}
}

func respondOK(w http.ResponseWriter, generation string, data any) {
	respondJSON(w, http.StatusOK, &Response{
		Status:   "success",
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now().UTC(), Generation: generation},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &Response{
		Status:   "error",
		Error:    &APIError{Code: code, Message: message},
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondDomainError 按错误码映射 HTTP 状态
func respondDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := core.ErrorCodeInternalError
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
		switch de.Code {
		case core.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		case core.ErrorCodeNotFound:
			status = http.StatusNotFound
		case core.ErrorCodeSchema, core.ErrorCodeEmptyCatalog:
			status = http.StatusUnprocessableEntity
		case core.ErrorCodeUnavailable:
			status = http.StatusServiceUnavailable
		case core.ErrorCodeNotSupported:
			status = http.StatusNotImplemented
		}
	}
	if status >= http.StatusInternalServerError {
		l := logging.With("server")
		l.Error().Err(err).Str("code", code).Msg("request failed")
	}
	respondError(w, status, code, err.Error())
}
