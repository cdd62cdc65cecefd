// Package server serves the task service as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/tasks/chat"
	"github.com/amonks/tasks/internal/metrics"
	"github.com/amonks/tasks/task"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Service *task.Service

	// Bot answers /api/chat. Defaults to a bot over Service.
	Bot *chat.Bot

	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Metrics

	// Logger receives access and error logs. If nil, logs are discarded.
	Logger *zap.Logger
}

// Server handles task API requests.
type Server struct {
	svc     *task.Service
	bot     *chat.Bot
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("task service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bot := opts.Bot
	if bot == nil {
		bot = chat.NewBot(opts.Service, chat.BotOptions{Logger: logger})
	}
	return &Server{
		svc:     opts.Service,
		bot:     bot,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverHandler)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleAdd)
			r.Get("/search", s.handleSearch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Patch("/", s.handleUpdate)
				r.Delete("/", s.handleDelete)
				r.Post("/complete", s.handleComplete)
				r.Post("/restore", s.handleRestore)
				r.Post("/schedule", s.handleSchedule)
			})
		})
		r.Get("/reminders", s.handleReminders)
		r.Post("/chat", s.handleChat)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	})
	return r
}

// Serve runs the server on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ErrorLog:          zap.NewStdLog(s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.List()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeTasks(w, tasks)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	id, err := s.svc.Add(req.Title, task.AddOptions{
		Description: req.Description,
		Priority:    req.Priority,
		Tags:        req.Tags,
		DueDate:     req.DueDate,
		Recurring:   req.Recurring,
		Reminder:    req.Reminder,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addResponse{ID: id})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := task.SearchOptions{
		Keyword:  query.Get("keyword"),
		Priority: task.Priority(query.Get("priority")),
		Tags:     query["tag"],
		SortBy:   task.SortKey(query.Get("sort_by")),
	}
	if raw := query.Get("status"); raw != "" {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid status %q: must be true or false", raw))
			return
		}
		opts.Status = &status
	}
	tasks, err := s.svc.Search(opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeTasks(w, tasks)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	s.writeTask(w, r, id)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var fields map[string]json.RawMessage
	if err := decodeJSON(r, &fields); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	opts, err := parseUpdate(fields)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	updated, err := s.svc.Update(id, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !updated {
		s.writeNotFound(w, r, id)
		return
	}
	s.writeTask(w, r, id)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	deleted, err := s.svc.Delete(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		s.writeNotFound(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.svc.Complete)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.svc.Restore)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, op func(int) (bool, error)) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	changed, err := op(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !changed {
		s.writeNotFound(w, r, id)
		return
	}
	s.writeTask(w, r, id)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	scheduled, err := s.svc.ScheduleNextOccurrence(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !scheduled {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("task %d has no occurrence to schedule", id))
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Scheduled: true})
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.CheckReminders()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeTasks(w, tasks)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	reply, err := s.bot.Respond(req.Message)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		s.writeError(w, r, http.StatusBadRequest, task.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func (s *Server) writeTask(w http.ResponseWriter, r *http.Request, id int) {
	t, err := s.svc.Get(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeTasks(w http.ResponseWriter, tasks []task.Task) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// parseUpdate turns a PATCH body into update options. Absent keys are left
// unchanged; null clears due_date, reminder, and recurring.
func parseUpdate(fields map[string]json.RawMessage) (task.UpdateOptions, error) {
	var opts task.UpdateOptions
	for key, raw := range fields {
		null := isNull(raw)
		switch key {
		case "title":
			if null {
				return opts, fmt.Errorf("title cannot be null")
			}
			var title string
			if err := json.Unmarshal(raw, &title); err != nil {
				return opts, fmt.Errorf("title: %w", err)
			}
			opts.Title = &title
		case "description":
			var description string
			if err := json.Unmarshal(raw, &description); err != nil {
				return opts, fmt.Errorf("description: %w", err)
			}
			opts.Description = &description
		case "priority":
			priority := task.PriorityMedium
			if !null {
				if err := json.Unmarshal(raw, &priority); err != nil {
					return opts, fmt.Errorf("priority: %w", err)
				}
			}
			opts.Priority = &priority
		case "tags":
			tags := []string{}
			if !null {
				if err := json.Unmarshal(raw, &tags); err != nil {
					return opts, fmt.Errorf("tags: %w", err)
				}
			}
			opts.Tags = &tags
		case "due_date", "reminder":
			field := task.Clear[string]()
			if !null {
				var value string
				if err := json.Unmarshal(raw, &value); err != nil {
					return opts, fmt.Errorf("%s: %w", key, err)
				}
				field = task.Set(value)
			}
			if key == "due_date" {
				opts.DueDate = field
			} else {
				opts.Reminder = field
			}
		case "recurring":
			if null {
				opts.Recurring = task.Clear[task.Recurring]()
				continue
			}
			var rec task.Recurring
			decoder := json.NewDecoder(strings.NewReader(string(raw)))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&rec); err != nil {
				return opts, fmt.Errorf("recurring: %w", err)
			}
			opts.Recurring = task.Set(rec)
		case "status":
			return opts, fmt.Errorf("status cannot be patched; use /complete")
		default:
			return opts, fmt.Errorf("unknown field %q", key)
		}
	}
	return opts, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("http_access",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.logger.Error("panic handling request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", recovered),
					zap.ByteString("stack", debug.Stack()),
				)
				if writer.wroteHeader {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		status = http.StatusNotFound
	case task.IsValidationError(err):
		status = http.StatusBadRequest
	}
	s.writeError(w, r, status, err)
}

func (s *Server) writeNotFound(w http.ResponseWriter, r *http.Request, id int) {
	s.writeError(w, r, http.StatusNotFound, fmt.Errorf("%w: %d", task.ErrTaskNotFound, id))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Error("request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type responseTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *responseTracker) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(data)
}
