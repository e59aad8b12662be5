package session

import (
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wuyrush.io/chronos/i18n"
	md "wuyrush.io/chronos/models"
	"wuyrush.io/chronos/timeline"
)

var testSecret = []byte("fakeSecretfakeSecretfakeSecret32")

func TestLoadFreshState(t *testing.T) {
	s := NewStore(testSecret, 3600, 16)
	r := httptest.NewRequest(http.MethodGet, "/timeline", nil)
	st := s.Load(r)
	assert.NotEmpty(t, st.VisitorID)
	assert.Equal(t, timeline.Initial(), st.View)
	assert.Nil(t, st.Vision)
}

func TestSaveThenLoad(t *testing.T) {
	s := NewStore(testSecret, 3600, 16)
	st := Fresh()
	st.Lang, st.Query, st.Tiers = i18n.German, "moon", []md.Tier{md.TierGalaxy}
	st.View = timeline.ViewState{Level: timeline.LevelMonthDetail, Year: 1969}
	st.Vision = &Vision{DateKey: "1969-07-01", Text: "Stars remember."}

	wrec := httptest.NewRecorder()
	require.NoError(t, s.Save(httptest.NewRequest(http.MethodPost, "/timeline/years/1969", nil), wrec, st))
	cookies := wrec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/timeline", nil)
	r.AddCookie(cookies[0])
	assert.Equal(t, st, s.Load(r))
}

func TestLoadTamperedCookie(t *testing.T) {
	s := NewStore(testSecret, 3600, 16)
	wrec := httptest.NewRecorder()
	require.NoError(t, s.Save(httptest.NewRequest(http.MethodPost, "/", nil), wrec, Fresh()))
	c := wrec.Result().Cookies()[0]

	other := NewStore([]byte("anotherSecretanotherSecretanothe"), 3600, 16)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	st := other.Load(r)
	assert.NotEmpty(t, st.VisitorID)
	assert.Equal(t, timeline.Initial(), st.View)
}

func savedCookie(t *testing.T, s *Store, st State) *http.Cookie {
	wrec := httptest.NewRecorder()
	require.NoError(t, s.Save(httptest.NewRequest(http.MethodPost, "/", nil), wrec, st))
	cookies := wrec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSaveLargeState(t *testing.T) {
	s := NewStore(testSecret, 3600, 16)
	st := Fresh()
	st.Query = strings.Repeat("a", 1<<13)
	st.Vision = &Vision{DateKey: "1969-07-01", Text: strings.Repeat("Stars remember. ", 1<<10)}
	c := savedCookie(t, s, st)
	assert.Less(t, len(c.Value), 1<<10, "the cookie only identifies the visitor")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	assert.Equal(t, st, s.Load(r))
}

func TestUpdateKeepsLatestState(t *testing.T) {
	s := NewStore(testSecret, 3600, 16)
	st := Fresh()
	c := savedCookie(t, s, st)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.AddCookie(c)
	stale := s.Load(r)

	// another request moves on
	moved := stale
	moved.View = timeline.ViewState{Level: timeline.LevelMonthDetail, Year: 1989}
	savedCookie(t, s, moved)

	got, err := s.Update(r, httptest.NewRecorder(), func(latest State) State {
		latest.Vision = &Vision{DateKey: "1969-07-01", Text: "fakeSummary"}
		return latest
	})
	require.NoError(t, err)
	assert.Equal(t, moved.View, got.View)
	assert.Equal(t, got, s.Load(r))
}

func TestLoadEvictedState(t *testing.T) {
	s := NewStore(testSecret, 3600, 1)
	first := Fresh()
	first.Query = "moon"
	c := savedCookie(t, s, first)
	// evicts the first visitor
	savedCookie(t, s, Fresh())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	st := s.Load(r)
	assert.Equal(t, first.VisitorID, st.VisitorID)
	assert.Empty(t, st.Query)
	assert.Equal(t, timeline.Initial(), st.View)
}

func TestLanguage(t *testing.T) {
	tcs := []struct {
		name           string
		lang           i18n.Language
		acceptLanguage string
		expected       i18n.Language
	}{
		{name: "StateWins", lang: i18n.Spanish, acceptLanguage: "fr-FR", expected: i18n.Spanish},
		{name: "AcceptLanguage", acceptLanguage: "fr-CA,fr;q=0.9,en;q=0.5", expected: i18n.French},
		{name: "Default", expected: i18n.English},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.acceptLanguage != "" {
				r.Header.Set("Accept-Language", c.acceptLanguage)
			}
			st := Fresh()
			st.Lang = c.lang
			assert.Equal(t, c.expected, st.Language(r))
		})
	}
}
