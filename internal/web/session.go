package web

import (
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/draftpad/internal/ops"
)

const sessionCookie = "draftpad_session"

// editorSession is one browser's editor state. mu serializes operations
// that read and replace state.
type editorSession struct {
	mu    sync.Mutex
	state ops.Session
}

// sessionStore maps ULID cookie values to editor sessions. Sessions live in
// memory only; a restart leaves every browser on a new draft.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*editorSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*editorSession)}
}

// get returns the caller's session, issuing a cookie when it has none or
// the cookie is not a valid ULID.
func (s *sessionStore) get(w http.ResponseWriter, r *http.Request) *editorSession {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := ulid.ParseStrict(c.Value); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = ulid.Make().String()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	es, ok := s.sessions[id]
	if !ok {
		es = &editorSession{}
		s.sessions[id] = es
	}
	return es
}
