package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/protocol"
)

// BaseResponse 所有响应共有的字段
type BaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse 成功响应
type DataResponse struct {
	BaseResponse
	Data any `json:"data"`
}

// ErrorResponse 失败响应，Code 为协议错误码
type ErrorResponse struct {
	BaseResponse
	Code int `json:"code"`
}

// ValidationErrorResponse 参数校验失败
type ValidationErrorResponse struct {
	ErrorResponse
	Errors []string `json:"errors"`
}

func sendResponse(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.LogError("序列化响应失败: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func sendData(w http.ResponseWriter, status int, data any) {
	sendResponse(w, status, DataResponse{
		BaseResponse: BaseResponse{Success: true, Message: "ok"},
		Data:         data,
	})
}

func sendCode(w http.ResponseWriter, status, code int) {
	sendResponse(w, status, ErrorResponse{
		BaseResponse: BaseResponse{Message: protocol.MessageFor(code)},
		Code:         code,
	})
}

// sendError 按错误分类映射 HTTP 状态码
func sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.LogError("❌ %s %s: %v", r.Method, r.URL.Path, err)
	}

	code := apperrors.CodeOf(err)
	message := protocol.MessageFor(code)
	var ge *apperrors.GameError
	if errors.As(err, &ge) && ge.Kind != apperrors.KindStoreFailure {
		message = ge.Message
	}
	sendResponse(w, status, ErrorResponse{
		BaseResponse: BaseResponse{Message: message},
		Code:         code,
	})
}

func statusOf(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidTransition:
		return http.StatusConflict
	case apperrors.KindStoreFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate 解析请求体并校验，失败时已写出响应
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendCode(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg)
		return false
	}
	if t, ok := dst.(interface{ trim() }); ok {
		t.trim()
	}
	if resp, ok := s.validateStruct(dst); !ok {
		sendResponse(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

func (s *Server) validateStruct(v any) (ValidationErrorResponse, bool) {
	err := s.validate.Struct(v)
	if err == nil {
		return ValidationErrorResponse{}, true
	}

	resp := ValidationErrorResponse{
		ErrorResponse: ErrorResponse{
			BaseResponse: BaseResponse{Message: protocol.MessageFor(protocol.ErrCodeInvalidBody)},
			Code:         protocol.ErrCodeInvalidBody,
		},
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Errors = lo.Map(verrs, func(item validator.FieldError, _ int) string {
			return item.Error()
		})
	} else {
		resp.Errors = []string{err.Error()}
	}
	return resp, false
}
