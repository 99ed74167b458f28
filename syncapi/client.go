// Package syncapi, homeserver'ın read marker endpoint'ine giden istemcidir.
//
// Tek bir çağrı vardır: PUT {base}/rooms/{roomId}/read_markers. Gövde
// opsiyonel "m.fully_read" ve "m.read" anahtarlarını taşır; olmayan anahtar
// "bu konuda değişiklik yok" demektir. Yanıt gövdesi kullanılmaz.
package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akinalp/readsync/models"
	"github.com/akinalp/readsync/pkg"
)

// maxErrorBody, hata yanıtından okunacak maksimum byte.
const maxErrorBody = 64 * 1024

// Error, homeserver'ın 2xx dışı yanıtı. errors.Is(err, pkg.ErrRemote) true döner.
type Error struct {
	StatusCode int
	ErrCode    string // Matrix "errcode", ör: M_FORBIDDEN
	Message    string
}

func (e *Error) Error() string {
	if e.ErrCode != "" {
		return fmt.Sprintf("homeserver returned %d %s: %s", e.StatusCode, e.ErrCode, e.Message)
	}
	return fmt.Sprintf("homeserver returned %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return pkg.ErrRemote
}

// MatrixErrCode, homeserver'ın errcode'unu yerel API yanıtına taşır.
func (e *Error) MatrixErrCode() string {
	return e.ErrCode
}

// matrixError, standart Matrix hata gövdesi.
type matrixError struct {
	ErrCode string `json:"errcode"`
	Error   string `json:"error"`
}

// Client, homeserver HTTP istemcisi.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient, yeni bir Client oluşturur.
// baseURL client API prefix'ini içerir, ör: https://hs.example/_matrix/client/r0
func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// SetReadMarkers, oda için fully-read marker ve/veya read receipt'i sunucuya bildirir.
// İki alan da boşsa gövde "{}" olarak yine gönderilir.
func (c *Client) SetReadMarkers(ctx context.Context, roomID string, markers models.ReadMarkersRequest) error {
	body, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("failed to encode read markers: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rooms/%s/read_markers", c.baseURL, url.PathEscape(roomID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build read markers request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", pkg.ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	remoteErr := &Error{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var me matrixError
	if json.Unmarshal(raw, &me) == nil {
		remoteErr.ErrCode = me.ErrCode
		remoteErr.Message = me.Error
	}
	return remoteErr
}
