package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avollmer/agentgate/internal/calendar"
	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/logging"
)

// API exposes the delegated Gmail/Calendar/secrets endpoints plus the OAuth
// authorization flow over plain HTTP.
type API struct {
	sc      *ServerContext
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	health  *HealthChecker
}

// NewAPI creates the HTTP API. A nil logger falls back to slog.Default;
// nil metrics and audit loggers become no-ops.
func NewAPI(sc *ServerContext, logger *slog.Logger, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	if audit == nil {
		audit = instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{})
	}
	return &API{
		sc:      sc,
		logger:  logger,
		metrics: metrics,
		audit:   audit,
		health:  NewHealthChecker(sc),
	}
}

// Health returns the health checker backing the probe endpoints.
func (api *API) Health() *HealthChecker {
	return api.health
}

// Handler returns the routed HTTP handler with request metrics attached.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/login", api.handleAuthLogin)
	mux.HandleFunc("GET /auth/callback", api.handleAuthCallback)
	mux.HandleFunc("POST /auth/code", api.handleAuthCode)

	mux.HandleFunc("GET /email/list", api.handleEmailList)
	mux.HandleFunc("GET /email/read", api.handleEmailRead)
	mux.HandleFunc("POST /email/send", api.handleEmailSend)
	mux.HandleFunc("GET /email/labels", api.handleEmailLabels)
	mux.HandleFunc("POST /email/modify", api.handleEmailModify)

	mux.HandleFunc("GET /calendar/events", api.handleCalendarList)
	mux.HandleFunc("POST /calendar/events", api.handleCalendarCreate)
	mux.HandleFunc("GET /calendar/events/{id}", api.handleCalendarGet)
	mux.HandleFunc("PATCH /calendar/events/{id}", api.handleCalendarUpdate)
	mux.HandleFunc("DELETE /calendar/events/{id}", api.handleCalendarDelete)

	mux.HandleFunc("PUT /secrets/{service}", api.handleSecretsPut)
	mux.HandleFunc("GET /secrets/{service}", api.handleSecretsGet)
	mux.HandleFunc("DELETE /secrets/{service}", api.handleSecretsDelete)

	api.health.RegisterHealthEndpoints(mux)

	return api.instrumented(mux)
}

// instrumented records request count and duration per route pattern.
func (api *API) instrumented(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		api.metrics.RecordHTTPRequest(r.Context(), r.Method, pattern, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// agentID extracts the required agent_id query parameter.
func agentID(r *http.Request) (string, bool) {
	id := r.URL.Query().Get("agent_id")
	return id, id != ""
}

func (api *API) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}

	http.Redirect(w, r, api.sc.Authenticator().AuthURL(id), http.StatusFound)
}

func (api *API) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("state")
	if id == "" {
		writeBadRequest(w, "state is required")
		return
	}

	err := api.sc.Authenticator().ExchangeCallback(r.Context(), id, r.URL.String())
	api.recordExchange(r, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (api *API) handleAuthCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agent_id"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.Code == "" {
		writeBadRequest(w, "agent_id and code are required")
		return
	}

	err := api.sc.Authenticator().ExchangeCode(r.Context(), req.AgentID, req.Code)
	api.recordExchange(r, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (api *API) recordExchange(r *http.Request, err error) {
	result := instrumentation.ResultSuccess
	if err != nil {
		result = instrumentation.ResultFailure
	}
	api.metrics.RecordGrantExchange(r.Context(), result)
}

func (api *API) handleEmailList(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}

	var maxResults int64
	if v := r.URL.Query().Get("max_results"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "max_results must be a non-negative integer")
			return
		}
		maxResults = parsed
	}

	client, err := api.sc.GmailClient(id)
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := client.ListMessages(maxResults)
	if err != nil {
		api.logger.Warn("email list failed", logging.AgentHash(id), logging.Err(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (api *API) handleEmailRead(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}
	messageID := r.URL.Query().Get("message_id")
	if messageID == "" {
		writeBadRequest(w, "message_id is required")
		return
	}

	client, err := api.sc.GmailClient(id)
	if err != nil {
		writeError(w, err)
		return
	}

	details, err := client.GetMessage(messageID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (api *API) handleEmailSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agent_id"`
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.To == "" {
		writeBadRequest(w, "agent_id and to are required")
		return
	}

	action := instrumentation.NewAgentAction("http:email_send", req.AgentID).
		WithService(instrumentation.ServiceGmail, instrumentation.OperationSend)

	client, err := api.sc.GmailClient(req.AgentID)
	if err != nil {
		api.audit.LogAction(action.Complete(false, err))
		writeError(w, err)
		return
	}

	messageID, err := client.SendMessage(req.To, req.Subject, req.Body)
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "message_id": messageID})
}

func (api *API) handleEmailLabels(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}

	client, err := api.sc.GmailClient(id)
	if err != nil {
		writeError(w, err)
		return
	}

	labels, err := client.ListLabels()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"labels": labels})
}

func (api *API) handleEmailModify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID      string   `json:"agent_id"`
		MessageID    string   `json:"message_id"`
		AddLabels    []string `json:"add_labels"`
		RemoveLabels []string `json:"remove_labels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.MessageID == "" {
		writeBadRequest(w, "agent_id and message_id are required")
		return
	}

	action := instrumentation.NewAgentAction("http:email_modify", req.AgentID).
		WithService(instrumentation.ServiceGmail, instrumentation.OperationModify)

	client, err := api.sc.GmailClient(req.AgentID)
	if err != nil {
		api.audit.LogAction(action.Complete(false, err))
		writeError(w, err)
		return
	}

	err = client.ModifyMessage(req.MessageID, req.AddLabels, req.RemoveLabels)
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "modified", "message_id": req.MessageID})
}

func (api *API) handleCalendarList(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}

	var maxResults int64
	if v := r.URL.Query().Get("max_results"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "max_results must be a non-negative integer")
			return
		}
		maxResults = parsed
	}

	var timeMin time.Time
	if v := r.URL.Query().Get("time_min"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "time_min must be RFC 3339")
			return
		}
		timeMin = parsed
	}

	client, err := api.sc.CalendarClient(id)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := client.ListEvents(maxResults, timeMin)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (api *API) handleCalendarGet(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}

	client, err := api.sc.CalendarClient(id)
	if err != nil {
		writeError(w, err)
		return
	}

	details, err := client.GetEvent(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// eventRequest is the JSON body for creating or updating events. Start and
// end are RFC 3339 timestamps.
type eventRequest struct {
	AgentID     string   `json:"agent_id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees"`
}

func (req *eventRequest) toInput() (calendar.EventInput, error) {
	input := calendar.EventInput{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Attendees:   req.Attendees,
	}

	if req.Start != "" {
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			return input, err
		}
		input.Start = start
	}
	if req.End != "" {
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			return input, err
		}
		input.End = end
	}

	return input, nil
}

func (api *API) handleCalendarCreate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AgentID == "" || req.Summary == "" || req.Start == "" || req.End == "" {
		writeBadRequest(w, "agent_id, summary, start and end are required")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeBadRequest(w, "start and end must be RFC 3339")
		return
	}

	action := instrumentation.NewAgentAction("http:calendar_create", req.AgentID).
		WithService(instrumentation.ServiceCalendar, instrumentation.OperationCreate)

	client, err := api.sc.CalendarClient(req.AgentID)
	if err != nil {
		api.audit.LogAction(action.Complete(false, err))
		writeError(w, err)
		return
	}

	details, err := client.CreateEvent(input)
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, details)
}

func (api *API) handleCalendarUpdate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AgentID == "" {
		writeBadRequest(w, "agent_id is required")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeBadRequest(w, "start and end must be RFC 3339")
		return
	}

	action := instrumentation.NewAgentAction("http:calendar_update", req.AgentID).
		WithService(instrumentation.ServiceCalendar, instrumentation.OperationUpdate)

	client, err := api.sc.CalendarClient(req.AgentID)
	if err != nil {
		api.audit.LogAction(action.Complete(false, err))
		writeError(w, err)
		return
	}

	details, err := client.UpdateEvent(r.PathValue("id"), input)
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (api *API) handleCalendarDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}

	action := instrumentation.NewAgentAction("http:calendar_delete", id).
		WithService(instrumentation.ServiceCalendar, instrumentation.OperationDelete)

	client, err := api.sc.CalendarClient(id)
	if err != nil {
		api.audit.LogAction(action.Complete(false, err))
		writeError(w, err)
		return
	}

	err = client.DeleteEvent(r.PathValue("id"))
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (api *API) handleSecretsPut(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}
	service := r.PathValue("service")

	var data map[string]string
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(data) == 0 {
		writeBadRequest(w, "secret data must not be empty")
		return
	}

	action := instrumentation.NewAgentAction("http:secrets_put", id)

	_, err := api.sc.Secrets().Put(r.Context(), id, service, data)
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "stored", "service": service})
}

func (api *API) handleSecretsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}
	service := r.PathValue("service")

	secret, err := api.sc.Secrets().Get(r.Context(), id, service)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": secret.ServiceName,
		"data":    secret.Data,
	})
}

func (api *API) handleSecretsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := agentID(r)
	if !ok {
		writeBadRequest(w, "agent_id is required")
		return
	}
	service := r.PathValue("service")

	action := instrumentation.NewAgentAction("http:secrets_delete", id)

	err := api.sc.Secrets().Delete(r.Context(), id, service)
	api.audit.LogAction(action.Complete(err == nil, err))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "service": service})
}
