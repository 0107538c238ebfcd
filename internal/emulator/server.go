package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/logger"
	"github.com/julianstephens/dockbook/internal/models"
)

// Options set the booking rules the emulator enforces.
type Options struct {
	Interval int
	// Open and Close bound the start times a booking may use, inclusive.
	Open     calendar.TimeOfDay
	Close    calendar.TimeOfDay
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = constants.DefaultSlotIntervalMin
	}
	if o.Open == o.Close {
		o.Open = calendar.MustParseTime(constants.DefaultBookingOpen)
		o.Close = calendar.MustParseTime(constants.DefaultBookingClose)
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Server emulates the remote appointment service.
type Server struct {
	store *Store
	opts  Options
}

func NewServer(store *Store, opts Options) *Server {
	opts.defaults()
	return &Server{store: store, opts: opts}
}

type ctxKey struct{}

// Handler routes the service under /api, matching the client's default base URL.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/verify", s.verify)

			r.Route("/supplier", func(r chi.Router) {
				r.Use(suppliersOnly)
				r.Get("/appointments", s.listAppointments)
				r.Post("/appointments", s.createAppointment)
				r.Put("/appointments/{id}", s.updateAppointment)
				r.Delete("/appointments/{id}", s.deleteAppointment)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, onListen func(addr string)) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if onListen != nil {
		onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Emulator listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("Emulator request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get(constants.RequestIDHeader),
			"took", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorBody{Error: msg})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tok == "" {
			writeError(w, http.StatusUnauthorized, "token not provided")
			return
		}
		u, err := s.store.userByToken(r.Context(), tok)
		if errors.Is(err, errNotFound) || (err == nil && !u.IsActive) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u.User)))
	})
}

func userFrom(ctx context.Context) models.User {
	u, _ := ctx.Value(ctxKey{}).(models.User)
	return u
}

func suppliersOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r.Context()).Role != models.RoleSupplier {
			writeError(w, http.StatusForbidden, "access denied: suppliers only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	u, err := s.store.userByEmail(r.Context(), strings.TrimSpace(strings.ToLower(creds.Email)))
	if errors.Is(err, errNotFound) || (err == nil && u.passwordHash != hashPassword(creds.Password)) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusForbidden, "user is inactive")
		return
	}
	tok, err := s.store.issueToken(r.Context(), u.ID, s.opts.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: tok, User: u.User})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": userFrom(r.Context())})
}

func (s *Server) today() calendar.Date {
	return calendar.Today(s.opts.Now(), s.opts.Location)
}

func annotate(a *models.Appointment, u models.User) {
	a.IsOwn = a.SupplierID == u.SupplierID
	a.CanEdit = a.IsOwn && a.Status == models.StatusScheduled
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "week parameter is required (format: YYYY-MM-DD)")
		return
	}
	start, err := calendar.ParseWire(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}
	var plantID int64
	if p := r.URL.Query().Get("plant_id"); p != "" {
		if plantID, err = strconv.ParseInt(p, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid plant_id")
			return
		}
	}

	appts, err := s.store.listRange(r.Context(), start, start.AddDays(calendar.DaysPerWeek-1), plantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	u := userFrom(r.Context())
	for i := range appts {
		annotate(&appts[i], u)
	}
	writeJSON(w, http.StatusOK, appts)
}

// payloadIn distinguishes absent fields from empty ones.
type payloadIn struct {
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	TimeEnd       *string `json:"time_end"`
	PurchaseOrder *string `json:"purchase_order"`
	TruckPlate    *string `json:"truck_plate"`
	DriverName    *string `json:"driver_name"`
	Reason        *string `json:"motivo_reagendamento"`
	PlantID       *int64  `json:"plant_id"`
}

type ruleError struct {
	status int
	body   models.ErrorBody
}

func (e *ruleError) Error() string { return e.body.Error }

func badRequest(format string, args ...any) *ruleError {
	return &ruleError{status: http.StatusBadRequest, body: models.ErrorBody{Error: fmt.Sprintf(format, args...)}}
}

func (s *Server) checkDate(raw string) (calendar.Date, error) {
	d, err := calendar.ParseWire(raw)
	if err != nil {
		return calendar.Date{}, badRequest("invalid date format, use YYYY-MM-DD")
	}
	if d.Before(s.today()) {
		return calendar.Date{}, badRequest("cannot book a past date")
	}
	return d, nil
}

func (s *Server) checkStart(raw string) (calendar.TimeOfDay, error) {
	t, err := calendar.ParseTime(raw)
	if err != nil {
		return calendar.TimeOfDay{}, badRequest("invalid time format, use HH:MM")
	}
	if t.Before(s.opts.Open) || s.opts.Close.Before(t) || !t.OnGrid(s.opts.Interval) {
		return calendar.TimeOfDay{}, badRequest("time not allowed, available times: %s to %s", s.opts.Open, s.opts.Close)
	}
	return t, nil
}

func checkEnd(raw string, start calendar.TimeOfDay) (calendar.TimeOfDay, error) {
	if strings.TrimSpace(raw) == "" {
		return calendar.TimeOfDay{}, badRequest("time_end is required")
	}
	t, err := calendar.ParseTime(raw)
	if err != nil {
		return calendar.TimeOfDay{}, badRequest("invalid time_end format, use HH:MM")
	}
	if !start.Before(t) {
		return calendar.TimeOfDay{}, badRequest("time_end must be after time")
	}
	return t, nil
}

func (s *Server) checkSlot(ctx context.Context, a models.Appointment) error {
	taken, err := s.store.overlaps(ctx, a.Date, a.Time, a.TimeEnd, a.ID)
	if err != nil {
		return err
	}
	if taken {
		return &ruleError{status: http.StatusConflict, body: models.ErrorBody{
			Error: fmt.Sprintf("slot %s %s is no longer available", a.Date, a.Time),
		}}
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var re *ruleError
	if errors.As(err, &re) {
		writeJSON(w, re.status, re.body)
		return
	}
	logger.Error("Emulator failure", "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) buildNew(ctx context.Context, in payloadIn, u models.User) (models.Appointment, error) {
	if in.Date == nil || in.Time == nil || in.TimeEnd == nil || in.PurchaseOrder == nil || in.TruckPlate == nil || in.DriverName == nil {
		return models.Appointment{}, badRequest("all fields are required: date, time, time_end, purchase_order, truck_plate, driver_name")
	}
	a := models.Appointment{
		PurchaseOrder: strings.TrimSpace(*in.PurchaseOrder),
		TruckPlate:    strings.ToUpper(strings.TrimSpace(*in.TruckPlate)),
		DriverName:    strings.TrimSpace(*in.DriverName),
		SupplierID:    u.SupplierID,
		Status:        models.StatusScheduled,
	}
	if a.PurchaseOrder == "" || a.TruckPlate == "" || a.DriverName == "" {
		return models.Appointment{}, badRequest("purchase_order, truck_plate and driver_name cannot be blank")
	}
	var err error
	if a.Time, err = s.checkStart(*in.Time); err != nil {
		return models.Appointment{}, err
	}
	if a.TimeEnd, err = checkEnd(*in.TimeEnd, a.Time); err != nil {
		return models.Appointment{}, err
	}
	if a.Date, err = s.checkDate(*in.Date); err != nil {
		return models.Appointment{}, err
	}
	if in.PlantID != nil {
		a.PlantID = *in.PlantID
	}
	return a, s.checkSlot(ctx, a)
}

func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in payloadIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u := userFrom(r.Context())
	a, err := s.buildNew(r.Context(), in, u)
	if err != nil {
		s.fail(w, err)
		return
	}
	a, err = s.store.insert(r.Context(), a, s.opts.Now())
	if err != nil {
		s.fail(w, err)
		return
	}
	annotate(&a, u)
	writeJSON(w, http.StatusCreated, models.AppointmentEnvelope{Message: "appointment created", Appointment: a})
}

func (s *Server) ownAppointment(r *http.Request) (models.Appointment, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return models.Appointment{}, &ruleError{status: http.StatusNotFound, body: models.ErrorBody{Error: "appointment not found"}}
	}
	a, err := s.store.get(r.Context(), id)
	if errors.Is(err, errNotFound) || (err == nil && a.SupplierID != userFrom(r.Context()).SupplierID) {
		return models.Appointment{}, &ruleError{status: http.StatusNotFound, body: models.ErrorBody{Error: "appointment not found"}}
	}
	return a, err
}

// applyUpdate merges in over a. A date or time change needs a reason and
// moves the appointment to rescheduled.
func (s *Server) applyUpdate(ctx context.Context, a models.Appointment, in payloadIn) (models.Appointment, error) {
	if a.Status != models.StatusScheduled && a.Status != models.StatusRescheduled {
		return a, badRequest("appointment cannot be edited, current status: %s", a.Status)
	}
	orig := a
	var err error
	if in.Date != nil {
		if a.Date, err = s.checkDate(*in.Date); err != nil {
			return a, err
		}
	}
	if in.Time != nil {
		if a.Time, err = s.checkStart(*in.Time); err != nil {
			return a, err
		}
	}
	if in.TimeEnd != nil {
		if a.TimeEnd, err = checkEnd(*in.TimeEnd, a.Time); err != nil {
			return a, err
		}
	} else if !a.Time.Before(a.TimeEnd) {
		return a, badRequest("time_end must be after time")
	}

	if a.Date != orig.Date || a.Time != orig.Time || a.TimeEnd != orig.TimeEnd {
		reason := ""
		if in.Reason != nil {
			reason = strings.TrimSpace(*in.Reason)
		}
		if reason == "" {
			return a, &ruleError{status: http.StatusBadRequest, body: models.ErrorBody{
				Error:                    "a reschedule reason is required when the date or time changes",
				RequiresRescheduleReason: true,
			}}
		}
		a.Status = models.StatusRescheduled
		a.RescheduleReason = reason
		if err := s.checkSlot(ctx, a); err != nil {
			return a, err
		}
	}

	if in.PurchaseOrder != nil {
		a.PurchaseOrder = strings.TrimSpace(*in.PurchaseOrder)
	}
	if in.TruckPlate != nil {
		a.TruckPlate = strings.ToUpper(strings.TrimSpace(*in.TruckPlate))
	}
	if in.DriverName != nil {
		a.DriverName = strings.TrimSpace(*in.DriverName)
	}
	return a, nil
}

func (s *Server) updateAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := s.ownAppointment(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var in payloadIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a, err = s.applyUpdate(r.Context(), a, in)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.update(r.Context(), a, s.opts.Now()); err != nil {
		s.fail(w, err)
		return
	}
	annotate(&a, userFrom(r.Context()))
	writeJSON(w, http.StatusOK, models.AppointmentEnvelope{Message: "appointment updated", Appointment: a})
}

func (s *Server) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := s.ownAppointment(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if a.Status != models.StatusScheduled {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("appointment cannot be cancelled, current status: %s", a.Status))
		return
	}
	if err := s.store.setStatus(r.Context(), a.ID, models.StatusCancelled, s.opts.Now()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "appointment cancelled"})
}
