package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse, tüm API yanıtlarının zarfı.
// Hata yanıtları homeserver ile aynı dili konuşur: "errcode" bir Matrix
// hata kodu (M_NOT_FOUND, M_FORBIDDEN, ...), "error" okunabilir mesajdır.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	ErrCode string `json:"errcode,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Matrix hata kodları.
const (
	ErrCodeNotFound     = "M_NOT_FOUND"
	ErrCodeUnknownToken = "M_UNKNOWN_TOKEN"
	ErrCodeForbidden    = "M_FORBIDDEN"
	ErrCodeBadJSON      = "M_BAD_JSON"
	ErrCodeUnknown      = "M_UNKNOWN"
)

// MatrixCoder, kendi Matrix hata kodunu taşıyan error'lar
// (ör: homeserver'ın döndüğü syncapi.Error). Kod yanıta aynen aktarılır.
type MatrixCoder interface {
	MatrixErrCode() string
}

// errorMapping, domain error → HTTP status + Matrix errcode.
// Sıra önemlidir: ilk errors.Is eşleşmesi kazanır.
var errorMapping = []struct {
	err     error
	status  int
	errCode string
}{
	{ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnknownToken},
	{ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{ErrBadRequest, http.StatusBadRequest, ErrCodeBadJSON},
	{ErrRemote, http.StatusBadGateway, ErrCodeUnknown},
}

// JSON, başarılı bir yanıt gönderir.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, APIResponse{Success: true, Data: data})
}

// Error, domain error'ı uygun HTTP status ve errcode ile yazar.
func Error(w http.ResponseWriter, err error) {
	status, errCode := classify(err)
	write(w, status, APIResponse{ErrCode: errCode, Error: err.Error()})
}

// ErrorWithMessage, özel mesajlı hata yanıtı gönderir; errcode status'tan türetilir.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	write(w, status, APIResponse{ErrCode: errCodeForStatus(status), Error: message})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// classify, error'ın HTTP status'unu ve Matrix errcode'unu bulur.
// errors.Is wrap edilmiş error'ları da yakalar.
func classify(err error) (int, string) {
	status, errCode := http.StatusInternalServerError, ErrCodeUnknown
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			status, errCode = m.status, m.errCode
			break
		}
	}

	var coder MatrixCoder
	if errors.As(err, &coder) && coder.MatrixErrCode() != "" {
		errCode = coder.MatrixErrCode()
	}
	return status, errCode
}

func errCodeForStatus(status int) string {
	for _, m := range errorMapping {
		if m.status == status {
			return m.errCode
		}
	}
	return ErrCodeUnknown
}
