package server

import (
	"encoding/json"
	"messagely/internal/storage"
	"net/http"
	"time"
)

type errorPayload struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type userDetail struct {
	userSummary
	JoinedAt    time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

type messageDetail struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser userSummary `json:"from_user"`
	ToUser   userSummary `json:"to_user"`
}

type sentMessage struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

type readReceipt struct {
	ID     int64      `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

type inboxItem struct {
	ID       int64       `json:"id"`
	FromUser userSummary `json:"from_user"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
}

type outboxItem struct {
	ID     int64       `json:"id"`
	ToUser userSummary `json:"to_user"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
}

func summary(p storage.Profile) userSummary {
	return userSummary{
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
	}
}

// errorBody returns the JSON error document shared by every failed response
func errorBody(status int, msg string) string {
	payload, _ := json.Marshal(errorPayload{Error: errorDetail{Status: status, Message: msg}})
	return string(payload)
}

// writeError writes msg wrapped into the JSON error document
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(errorBody(status, msg)))
}

// writeJSON marshals v and writes it with provided status code
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		h.logger.Errorf("writing marshaled data to ResponseWriter: %v", err)
	}
}

// internalError logs err with request id and hides it from the client
func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Errorw("request failed", "request_id", requestID(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
