package server

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"io"
	"messagely/internal/auth"
	"messagely/internal/messages"
	"messagely/internal/metrics"
	"messagely/internal/users"
	"net/http"
	"strconv"
)

type parsers struct {
	loginPool       fastjson.ParserPool
	registerPool    fastjson.ParserPool
	sendMessagePool fastjson.ParserPool
}

type handler struct {
	logger   *zap.SugaredLogger
	auth     *auth.Service
	tokens   *auth.Tokens
	messages *messages.Service
	users    *users.Service
	metrics  *metrics.Collector
	parsers  parsers
}

// fieldError is a client mistake in the request body
type fieldError string

func (e fieldError) Error() string { return string(e) }

// requiredString retrieves non-empty string field name from v
func requiredString(v *fastjson.Value, name string) (string, error) {
	if !v.Exists(name) {
		return "", fieldError(`Missing Field "` + name + `"`)
	}

	fv := v.Get(name)
	if fv.Type() != fastjson.TypeString {
		return "", fieldError(`Field "` + name + `" must be a string`)
	}

	s := string(fv.GetStringBytes())
	if len(s) == 0 {
		return "", fieldError(`Field "` + name + `" must have non-zero length`)
	}

	return s, nil
}

// requiredStrings retrieves every named field, stopping at the first bad one
func requiredStrings(v *fastjson.Value, names ...string) ([]string, error) {
	values := make([]string, 0, len(names))
	for _, name := range names {
		s, err := requiredString(v, name)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, nil
}

// identity returns the authenticated user stored by authenticate
func identity(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.Username
}

// login handles HTTP requests on "/login" endpoint
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.loginPool.Get()
	defer h.parsers.loginPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	fields, err := requiredStrings(v, "username", "password")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), fields[0], fields[1])
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.RecordAuthFailure("invalid_credentials")
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, tokenResponse{Token: token})
}

// register handles HTTP requests on "/register" endpoint
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.registerPool.Get()
	defer h.parsers.registerPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	fields, err := requiredStrings(v, "username", "password", "first_name", "last_name", "phone")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Register(r.Context(), auth.Registration{
		Username:  fields[0],
		Password:  fields[1],
		FirstName: fields[2],
		LastName:  fields[3],
		Phone:     fields[4],
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "Username already taken")
		case errors.Is(err, auth.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, `Field "password" must be at most 72 bytes long`)
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, tokenResponse{Token: token})
}

// sendMessage handles HTTP requests on "/messages" endpoint
func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.sendMessagePool.Get()
	defer h.parsers.sendMessagePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	fields, err := requiredStrings(v, "to_username", "body")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.messages.Send(r.Context(), identity(r), fields[0], fields[1])
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrRecipientNotFound):
			writeError(w, http.StatusNotFound, "Recipient user not found")
		case errors.Is(err, messages.ErrEmptyBody):
			writeError(w, http.StatusBadRequest, `Field "body" must have non-zero length`)
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusCreated, map[string]sentMessage{
		"message": {
			ID:           m.ID,
			FromUsername: m.FromUsername,
			ToUsername:   m.ToUsername,
			Body:         m.Body,
			SentAt:       m.SentAt,
		},
	})
}

// getMessage handles HTTP requests on "/messages/{id}" endpoint
func (h *handler) getMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := messageID(w, r)
	if !ok {
		return
	}

	m, err := h.messages.Get(r.Context(), id, identity(r))
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrNotFound):
			writeError(w, http.StatusNotFound, "Message not found")
		case errors.Is(err, messages.ErrForbidden):
			writeError(w, http.StatusForbidden, "Unauthorized to view message")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]messageDetail{
		"message": {
			ID:       m.ID,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
			FromUser: summary(m.Sender),
			ToUser:   summary(m.Recipient),
		},
	})
}

// markRead handles HTTP requests on "/messages/{id}/read" endpoint
func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := messageID(w, r)
	if !ok {
		return
	}

	m, changed, err := h.messages.MarkRead(r.Context(), id, identity(r))
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrNotFound):
			writeError(w, http.StatusNotFound, "Message not found")
		case errors.Is(err, messages.ErrForbidden):
			writeError(w, http.StatusForbidden, "Unauthorized to update message")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	if changed {
		h.metrics.RecordReadTransition()
	}

	h.writeJSON(w, r, http.StatusOK, map[string]readReceipt{
		"message": {ID: m.ID, ReadAt: m.ReadAt},
	})
}

// messageID parses "{id}" URL parameter and writes 400 on failure
func messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Message id must be a positive integer")
		return 0, false
	}
	return id, true
}

// listUsers handles HTTP requests on "/users" endpoint
func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.users.All(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	list := make([]userSummary, 0, len(profiles))
	for _, p := range profiles {
		list = append(list, summary(p))
	}

	h.writeJSON(w, r, http.StatusOK, map[string][]userSummary{"users": list})
}

// getUser handles HTTP requests on "/users/{username}" endpoint
func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "username"), identity(r))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrForbidden):
			writeError(w, http.StatusForbidden, "Unauthorized to view user")
		case errors.Is(err, users.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]userDetail{
		"user": {
			userSummary: summary(u.Profile()),
			JoinedAt:    u.JoinedAt,
			LastLoginAt: u.LastLoginAt,
		},
	})
}

// inbox handles HTTP requests on "/users/{username}/to" endpoint
func (h *handler) inbox(w http.ResponseWriter, r *http.Request) {
	list, err := h.messages.Inbox(r.Context(), chi.URLParam(r, "username"), identity(r))
	if err != nil {
		h.threadError(w, r, err)
		return
	}

	items := make([]inboxItem, 0, len(list))
	for _, m := range list {
		items = append(items, inboxItem{
			ID:       m.ID,
			FromUser: summary(m.Sender),
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
		})
	}

	h.writeJSON(w, r, http.StatusOK, map[string][]inboxItem{"messages": items})
}

// outbox handles HTTP requests on "/users/{username}/from" endpoint
func (h *handler) outbox(w http.ResponseWriter, r *http.Request) {
	list, err := h.messages.Outbox(r.Context(), chi.URLParam(r, "username"), identity(r))
	if err != nil {
		h.threadError(w, r, err)
		return
	}

	items := make([]outboxItem, 0, len(list))
	for _, m := range list {
		items = append(items, outboxItem{
			ID:     m.ID,
			ToUser: summary(m.Recipient),
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
		})
	}

	h.writeJSON(w, r, http.StatusOK, map[string][]outboxItem{"messages": items})
}

func (h *handler) threadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, messages.ErrForbidden) {
		writeError(w, http.StatusForbidden, "Unauthorized to view messages")
		return
	}
	h.internalError(w, r, err)
}
