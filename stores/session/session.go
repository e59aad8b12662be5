// Package session keeps the per-visitor UI state of chronos service. A signed cookie identifies the visitor; the
// state itself stays on the server, so summaries and queries of any length fit in.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/gorilla/sessions"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/chronos/constants"
	"wuyrush.io/chronos/i18n"
	md "wuyrush.io/chronos/models"
	"wuyrush.io/chronos/timeline"
)

const (
	cookieName = "chronos"
	keyVisitor = "visitor"
)

// Vision is the latest summary shown to a visitor
type Vision struct {
	DateKey string `json:"dateKey"`
	Text    string `json:"text"`
}

// State is the UI state of a visitor. It is a value; handlers derive a new State and save it.
type State struct {
	VisitorID string             `json:"visitorId"`
	Lang      i18n.Language      `json:"lang,omitempty"`
	Query     string             `json:"q,omitempty"`
	Tiers     []md.Tier          `json:"tiers,omitempty"`
	View      timeline.ViewState `json:"view"`
	Vision    *Vision            `json:"vision,omitempty"`
	DraftID   string             `json:"draftId,omitempty"`
}

// Fresh returns the state of a first time visitor
func Fresh() State {
	return State{VisitorID: ksuid.New().String(), View: timeline.Initial()}
}

// Filter returns the live filter of the visitor
func (s State) Filter() timeline.Filter {
	return timeline.Filter{Query: s.Query, Tiers: s.Tiers}
}

// Language picks the language of the visitor, falling back to what their browser asks for
func (s State) Language(r *http.Request) i18n.Language {
	if s.Lang != "" {
		return s.Lang
	}
	return i18n.Negotiate(r.Header.Get("Accept-Language"))
}

// Store loads and saves visitor states
type Store struct {
	cookies sessions.Store
	// serializes read-modify-write of states
	mu     sync.Mutex
	states gcache.Cache
}

// NewStore returns a Store identifying visitors by cookies signed with secret. It keeps up to size states, each
// for maxAgeSecs after its last save.
func NewStore(secret []byte, maxAgeSecs, size int) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSecs,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{
		cookies: cs,
		states:  gcache.New(size).LRU().Expiration(time.Duration(maxAgeSecs) * time.Second).Build(),
	}
}

// Load returns the state of the visitor issuing r. Visitors without a valid cookie get a fresh state; a known
// visitor whose state expired starts over under the same id.
func (s *Store) Load(r *http.Request) State {
	id := s.visitorOf(r)
	if id == "" {
		return Fresh()
	}
	v, err := s.states.Get(id)
	if err != nil {
		if err != gcache.KeyNotFoundError {
			log.WithError(err).WithField(cst.LogFieldVisitorID, id).Warn("failed reading visitor state")
		}
		return State{VisitorID: id, View: timeline.Initial()}
	}
	return v.(State)
}

// Save keeps st as the state of its visitor and identifies the visitor in the response cookie
func (s *Store) Save(r *http.Request, w http.ResponseWriter, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(r, w, st)
}

// Update applies fn to the latest state of the visitor issuing r and saves the result. Changes saved by other
// requests in the meantime are kept.
func (s *Store) Update(r *http.Request, w http.ResponseWriter, fn func(State) State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := fn(s.Load(r))
	return st, s.save(r, w, st)
}

func (s *Store) save(r *http.Request, w http.ResponseWriter, st State) error {
	if err := s.states.Set(st.VisitorID, st); err != nil {
		return err
	}
	// Get never returns a nil session along with a decoding error
	sess, _ := s.cookies.Get(r, cookieName)
	sess.Values[keyVisitor] = st.VisitorID
	return sess.Save(r, w)
}

func (s *Store) visitorOf(r *http.Request) string {
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil || sess == nil {
		return ""
	}
	id, _ := sess.Values[keyVisitor].(string)
	return id
}
