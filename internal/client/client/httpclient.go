package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/common"
)

const maxResponseBytes = 4 << 20

// Envelope is the uniform response body of the backend. Error is either a
// plain string or an object {type, message, details}; Detail is the
// framework-level variant some endpoints emit instead.
type Envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

func (e *Envelope) isEnvelope() bool {
	return e.Success != nil || len(e.Data) > 0 || len(e.Error) > 0
}

// HTTPClient talks JSON to the backend and injects the bearer token from a
// TokenSource into every request.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates baseURL and returns a client. hc may be nil, in
// which case a client without its own timeout is used; per-call deadlines
// come from the caller's context.
func NewHTTPClient(baseURL string, tokens TokenSource, hc *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &HTTPClient{baseURL: u, http: hc, tokens: tokens}, nil
}

func (c *HTTPClient) LoginEmail(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.Post(ctx, "/auth/login-email", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.UserRecord, error) {
	var out models.UserRecord
	if err := c.Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Register(ctx context.Context, req *RegisterRequest) (*models.UserRecord, error) {
	var out models.UserRecord
	if err := c.Post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CheckEmail(ctx context.Context, email string) (bool, error) {
	var out existsResponse
	if err := c.Post(ctx, "/auth/check-email", existsRequest{Email: email}, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *HTTPClient) CheckUsername(ctx context.Context, username string) (bool, error) {
	var out existsResponse
	if err := c.Post(ctx, "/auth/check-username", existsRequest{Username: username}, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, req *ProfileUpdateRequest) (*models.UserRecord, error) {
	var out models.UserRecord
	if err := c.Put(ctx, "/users/profile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateSettings(ctx context.Context, req *SettingsRequest) error {
	return c.Put(ctx, "/users/settings", req, nil)
}

// UploadAvatar sends the file as multipart field "file" and returns the
// stored avatar URL.
func (c *HTTPClient) UploadAvatar(ctx context.Context, file models.Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.FileName))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out avatarResponse
	if err := c.do(ctx, http.MethodPost, "/users/avatar", &buf, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

func (c *HTTPClient) ListBoards(ctx context.Context) ([]Board, error) {
	var out []Board
	if err := c.Get(ctx, "/boards", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

func (c *HTTPClient) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	return c.do(ctx, method, path, bytes.NewReader(b), "application/json", out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeader, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok, ok := c.bearer(ctx); ok {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", ErrUnavailable, method, path, err)
	}
	return decodeResponse(resp.StatusCode, raw, out)
}

func (c *HTTPClient) bearer(ctx context.Context) (string, bool) {
	if tok, ok := AccessTokenFrom(ctx); ok {
		return tok, true
	}
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Token()
}

func decodeResponse(status int, raw []byte, out any) error {
	var env Envelope
	enveloped := false
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &env) == nil && env.isEnvelope() {
		enveloped = true
	}

	ok := status >= 200 && status < 300
	if enveloped && env.Success != nil && !*env.Success {
		ok = false
	}
	if !ok {
		return newAPIError(status, &env)
	}

	data := raw
	if enveloped {
		data = env.Data
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorObject struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func newAPIError(status int, env *Envelope) *APIError {
	if status >= 200 && status < 300 {
		// success=false inside a 2xx: treat as a client-side rejection
		status = http.StatusBadRequest
	}
	e := &APIError{Status: status}

	var s string
	var obj errorObject
	switch {
	case len(env.Error) == 0:
	case json.Unmarshal(env.Error, &s) == nil:
		e.Message = s
	case json.Unmarshal(env.Error, &obj) == nil:
		e.Type = obj.Type
		e.Message = obj.Message
		e.Details = parseDetails(obj.Details)
	}

	if len(env.Detail) > 0 {
		if json.Unmarshal(env.Detail, &s) == nil {
			if e.Message == "" {
				e.Message = s
			}
		} else {
			e.Details = append(e.Details, parseDetails(env.Detail)...)
		}
	}

	if e.Message == "" {
		e.Message = env.Message
	}
	return e
}

// parseDetails accepts {"field": "msg"}, {"field": ["msg", ...]},
// [{"field": "f", "message": "m"}] and [{"loc": [..., "f"], "msg": "m"}].
func parseDetails(raw json.RawMessage) []FieldDetail {
	if len(raw) == 0 {
		return nil
	}

	var byField map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byField); err == nil {
		var out []FieldDetail
		for field, v := range byField {
			var one string
			var many []string
			switch {
			case json.Unmarshal(v, &one) == nil:
				out = append(out, FieldDetail{Field: field, Message: one})
			case json.Unmarshal(v, &many) == nil:
				for _, m := range many {
					out = append(out, FieldDetail{Field: field, Message: m})
				}
			}
		}
		sortDetails(out)
		return out
	}

	var list []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
		Loc     []any  `json:"loc"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]FieldDetail, 0, len(list))
	for _, item := range list {
		d := FieldDetail{Field: item.Field, Message: item.Message}
		if d.Field == "" && len(item.Loc) > 0 {
			d.Field = fmt.Sprint(item.Loc[len(item.Loc)-1])
		}
		if d.Message == "" {
			d.Message = item.Msg
		}
		out = append(out, d)
	}
	return out
}

func sortDetails(d []FieldDetail) {
	// map iteration order is random; keep messages stable for display
	slices.SortStableFunc(d, func(a, b FieldDetail) int { return strings.Compare(a.Field, b.Field) })
}

// IsUnavailable reports whether err means no response was received.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
