package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campaign-availability/internal/application"
)

var (
	errBadRequestBody    = errors.New("無効なリクエスト形式です。")
	errInvalidCampaignID = errors.New("無効なキャンペーン ID です。")
	errInvalidSessionID  = errors.New("無効なセッション ID です。")
	errInvalidRuleIndex  = errors.New("無効なルール番号です。")
	errInvalidDate       = errors.New("日付は yyyy-MM-dd 形式で指定してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}
	status, body := describeError(err)
	r.writeJSON(ctx, w, status, body)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// describeError maps a service error onto a status code and localized body.
// Builder rejections are client errors; only unclassified failures are 500s.
func describeError(err error) (int, errorResponse) {
	kind := application.ErrorKind(err)
	switch kind {
	case "not_found":
		return http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)}
	case "session_not_found":
		return http.StatusNotFound, errorResponse{
			ErrorCode: "SESSION_NOT_FOUND",
			Message:   "編集セッションが見つからないか、有効期限が切れています。",
		}
	case "already_exists":
		return http.StatusConflict, errorResponse{Message: localizedStatusMessage(http.StatusConflict)}
	case "validation":
		var vErr *application.ValidationError
		errors.As(err, &vErr)
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION",
			Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:    localizeValidationErrors(vErr),
		}
	case "unexpected":
		return http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)}
	default:
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: strings.ToUpper(kind),
			Message:   localizedBuilderMessage(kind),
		}
	}
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizedBuilderMessage(kind string) string {
	switch kind {
	case "out_of_range":
		return "キャンペーン期間外の日付は選択できません。"
	case "incomplete_selection":
		return "日付と時間帯を選択してください。"
	case "duplicate_rule":
		return "同じ時間帯は既に保存されています。"
	case "invalid_rule":
		return "保存されたルールの内容が不正です。"
	case "no_bounds":
		return "全日選択にはキャンペーン期間の設定が必要です。"
	case "unknown_slot":
		return "指定された時間帯が見つかりません。"
	case "invalid_option":
		return "時間帯の設定が不正です。"
	default:
		return localizedStatusMessage(http.StatusUnprocessableEntity)
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "キャンペーン名は必須です。"
	case "startDate is required when endDate is set":
		return "終了日を指定する場合は開始日も指定してください。"
	case "endDate is required when startDate is set":
		return "開始日を指定する場合は終了日も指定してください。"
	case "startDate must be yyyy-MM-dd":
		return "開始日は yyyy-MM-dd 形式で指定してください。"
	case "endDate must be yyyy-MM-dd":
		return "終了日は yyyy-MM-dd 形式で指定してください。"
	case "endDate must not be before startDate":
		return "終了日は開始日以降である必要があります。"
	case "campaign violates a storage constraint":
		return "キャンペーンの内容が保存条件を満たしていません。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
