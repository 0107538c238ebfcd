package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/logger"
	"github.com/julianstephens/dockbook/internal/models"
	"github.com/julianstephens/dockbook/internal/session"
)

// ErrUnauthorized is returned when the service rejects the stored token.
// The session has already been cleared when a caller sees it.
var ErrUnauthorized = apperrors.New("session expired or missing: run dockbook login")

// Service is the remote appointment contract the scheduling core consumes.
type Service interface {
	GetAppointments(ctx context.Context, weekStart calendar.Date) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, p models.Payload) (models.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, p models.Payload) (models.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

type Client struct {
	baseURL string
	plantID int64
	store   session.Store
	httpc   *http.Client
}

var _ Service = (*Client)(nil)

func New(baseURL string, timeout time.Duration, store session.Store, plantID int64) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &Client{
		baseURL: baseURL,
		plantID: plantID,
		store:   store,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// login requests carry no token and never clear the session
	login bool
}

func (r request) op() string { return r.method + " " + r.path }

func (c *Client) do(ctx context.Context, r request, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return &apperrors.TransportError{Op: r.op(), Err: errors.Wrap(err, "parse base url")}
	}
	u.Path = strings.TrimRight(u.Path, "/") + r.path
	if r.query != nil {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrap(err, "encode body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return &apperrors.TransportError{Op: r.op(), Err: errors.Wrap(err, "new request")}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(constants.RequestIDHeader, reqID)

	if !r.login && c.store != nil {
		tok, err := session.Token(ctx, c.store)
		switch {
		case err == nil:
			req.Header.Set("Authorization", "Bearer "+tok)
		case !apperrors.Is(err, session.ErrNotFound):
			return errors.Wrap(err, "read session token")
		}
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Warn("Request failed", "op", r.op(), "request_id", reqID, "err", err)
		return &apperrors.TransportError{Op: r.op(), Err: errors.Wrap(err, "do request")}
	}
	defer resp.Body.Close()
	logger.Debug("Request done", "op", r.op(), "request_id", reqID, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode/100 != 2 {
		return c.failure(ctx, r, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.TransportError{Op: r.op(), Status: resp.StatusCode, Err: errors.Wrap(err, "decode")}
	}
	return nil
}

// failure maps a non-2xx reply onto the error taxonomy.
func (c *Client) failure(ctx context.Context, r request, resp *http.Response) error {
	var eb models.ErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Error
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &apperrors.TransportError{Op: r.op(), Status: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized && !r.login:
		if c.store != nil {
			if err := c.store.Clear(ctx); err != nil {
				logger.Warn("Failed to clear session after 401", "err", err)
			}
		}
		return fmt.Errorf("%s: %w", r.op(), ErrUnauthorized)
	case resp.StatusCode == http.StatusConflict:
		return &apperrors.ConflictError{Status: resp.StatusCode, Message: msg}
	case eb.RequiresRescheduleReason:
		return &apperrors.ConflictError{Status: resp.StatusCode, Message: msg, RequiresReason: true}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &apperrors.ConflictError{Status: resp.StatusCode, Message: msg}
}

// Login exchanges credentials for a token and stores the result.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/login", body: creds, login: true}, &out)
	if err != nil {
		return models.LoginResponse{}, err
	}
	if c.store != nil {
		if err := session.Save(ctx, c.store, out); err != nil {
			return models.LoginResponse{}, err
		}
	}
	return out, nil
}

// Logout forgets the stored session.
func (c *Client) Logout(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Clear(ctx)
}

type verifyResponse struct {
	Valid bool        `json:"valid"`
	User  models.User `json:"user"`
}

// Verify checks the stored token and returns its user.
func (c *Client) Verify(ctx context.Context) (models.User, error) {
	var out verifyResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/verify"}, &out); err != nil {
		return models.User{}, err
	}
	if !out.Valid {
		return models.User{}, ErrUnauthorized
	}
	return out.User, nil
}

// GetAppointments returns every appointment of the week starting at weekStart,
// annotated with is_own and can_edit for the logged-in supplier.
func (c *Client) GetAppointments(ctx context.Context, weekStart calendar.Date) ([]models.Appointment, error) {
	q := url.Values{}
	q.Set("week", weekStart.Wire())
	if c.plantID > 0 {
		q.Set("plant_id", strconv.FormatInt(c.plantID, 10))
	}
	var out []models.Appointment
	if err := c.do(ctx, request{method: http.MethodGet, path: "/supplier/appointments", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, p models.Payload) (models.Appointment, error) {
	if err := p.Validate(); err != nil {
		return models.Appointment{}, err
	}
	var out models.AppointmentEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: "/supplier/appointments", body: p}, &out); err != nil {
		return models.Appointment{}, err
	}
	return out.Appointment, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, p models.Payload) (models.Appointment, error) {
	if err := p.Validate(); err != nil {
		return models.Appointment{}, err
	}
	var out models.AppointmentEnvelope
	path := fmt.Sprintf("/supplier/appointments/%d", id)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: p}, &out); err != nil {
		return models.Appointment{}, err
	}
	return out.Appointment, nil
}

// DeleteAppointment asks the service to cancel an appointment.
func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/supplier/appointments/%d", id)
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}
