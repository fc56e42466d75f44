// Package handlers - HTTP обработчики админки: дашборд, отчёты,
// скачивание и экспорт.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bincollect/internal/repository"
	"bincollect/pkg/apperror"
	"bincollect/pkg/logger"
)

// response единый конверт ответа API.
// Отчёт лежит под ключом report, остальные ручки отвечают через data.
// Человекочитаемый текст неудачи - в message; error дублирует его для
// старых клиентов, читавших только error.
type response struct {
	Success bool               `json:"success"`
	Report  *repository.Report `json:"report,omitempty"`
	Data    any                `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
	Field   string             `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Warn("Failed to encode response", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, &response{Success: true, Data: data})
}

func respondReport(w http.ResponseWriter, status int, report *repository.Report) {
	respondJSON(w, status, &response{Success: true, Report: report})
}

// respondError переводит ошибку приложения в HTTP-ответ.
// Сообщение берётся из самой ошибки: внутренние детали в неё не
// попадают по построению.
func respondError(w http.ResponseWriter, err error) {
	resp := &response{Success: false, Message: "internal error", Error: "internal error"}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Error = appErr.Message
		resp.Field = appErr.Field
	}

	respondJSON(w, apperror.HTTPStatus(err), resp)
}
