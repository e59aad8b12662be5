package stores

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pe "wuyrush.io/chronos/errors"
	md "wuyrush.io/chronos/models"
)

func TestMemStore(t *testing.T) {
	now := time.Now()
	s := NewMemStore(Seed(now)...)
	require.Len(t, s.List(), 3)

	c := &md.Capsule{ID: "fakeID", Title: "fakeTitle", Tier: md.TierNova}
	require.Nil(t, s.Prepend(c))
	list := s.List()
	require.Len(t, list, 4)
	assert.Equal(t, "fakeID", list[0].ID, "new capsules go first")
	assert.Equal(t, "1", list[1].ID)

	got, err := s.Get("fakeID")
	require.Nil(t, err)
	assert.Same(t, c, got)

	_, err = s.Get("missing")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.StatusCode())

	err = s.Prepend(&md.Capsule{ID: "fakeID"})
	assert.NotNil(t, err, "ids must be unique")
	err = s.Prepend(&md.Capsule{})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode())

	// snapshots are not affected by later writes
	list[0] = nil
	assert.NotNil(t, s.List()[0])
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	s := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.Nil(t, s.Prepend(&md.Capsule{ID: string(rune('a' + i))}))
		}(i)
		go func() {
			defer wg.Done()
			_ = s.List()
		}()
	}
	wg.Wait()
	assert.Len(t, s.List(), 20)
}

func TestSeedIsDisplayable(t *testing.T) {
	for _, c := range Seed(time.Now()) {
		assert.True(t, c.OccursOn.InDisplayRange(), c.ID)
		assert.True(t, c.Tier.Valid(), c.ID)
		assert.Nil(t, c.Links, c.ID)
	}
}

func goodDetails() md.CapsuleDraft {
	return md.CapsuleDraft{
		OccursOn: "2001-09-01",
		Title:    "fakeTitle",
		Message:  "fakeMessage",
		Author:   "fakeAuthor",
		ImageURL: "https://picsum.photos/seed/fake/600/400",
	}
}

func TestDraftWizardHappyCase(t *testing.T) {
	s := NewDraftStore(8, time.Minute)
	now := time.Now()
	d, err := s.Start(now)
	require.Nil(t, err)
	assert.Equal(t, StepChooseOffer, d.Step)

	d, err = s.SelectOffer(d.ID, md.TierUniverse)
	require.Nil(t, err)
	assert.Equal(t, StepCustomize, d.Step)

	d, err = s.Customize(d.ID, goodDetails())
	require.Nil(t, err)
	assert.Equal(t, StepPayment, d.Step)
	assert.Equal(t, md.TierUniverse, d.Details.Tier)

	c, err := s.Confirm(d.ID, now)
	require.Nil(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, md.TierUniverse, c.Tier)
	assert.Zero(t, c.LikeCount)
	assert.Equal(t, now, c.CreatedAt)

	_, err = s.Get(d.ID)
	require.NotNil(t, err, "confirmed drafts are closed")
	assert.Equal(t, http.StatusNotFound, err.StatusCode())
}

func TestDraftWizardTransitions(t *testing.T) {
	tcs := []struct {
		name         string
		run          func(s *DraftStore, id string) *errCode
		expectedCode int
	}{
		{
			name: "CustomizeBeforeOffer",
			run: func(s *DraftStore, id string) *errCode {
				_, err := s.Customize(id, goodDetails())
				return code(err)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "ConfirmBeforePayment",
			run: func(s *DraftStore, id string) *errCode {
				_, _ = s.SelectOffer(id, md.TierNova)
				_, err := s.Confirm(id, time.Now())
				return code(err)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "UnknownOffer",
			run: func(s *DraftStore, id string) *errCode {
				_, err := s.SelectOffer(id, "ESSENTIEL")
				return code(err)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "InvalidDetailsStayAtCustomize",
			run: func(s *DraftStore, id string) *errCode {
				_, _ = s.SelectOffer(id, md.TierNova)
				details := goodDetails()
				details.Title = ""
				_, err := s.Customize(id, details)
				if d, _ := s.Get(id); d.Step != StepCustomize {
					return &errCode{-1}
				}
				return code(err)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "LinksOnRankedOffer",
			run: func(s *DraftStore, id string) *errCode {
				_, _ = s.SelectOffer(id, md.TierAura)
				details := goodDetails()
				details.ExternalLink = "https://acme.test"
				_, err := s.Customize(id, details)
				return code(err)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "BackToOfferDropsLinks",
			run: func(s *DraftStore, id string) *errCode {
				_, _ = s.SelectOffer(id, md.TierBrand)
				details := goodDetails()
				details.ExternalLink = "https://acme.test"
				if _, err := s.Customize(id, details); err != nil {
					return code(err)
				}
				d, err := s.SelectOffer(id, md.TierNova)
				if err != nil || d.Step != StepCustomize || d.Details.ExternalLink != "" {
					return &errCode{-1}
				}
				return nil
			},
		},
		{
			name: "Cancelled",
			run: func(s *DraftStore, id string) *errCode {
				s.Cancel(id)
				s.Cancel(id)
				_, err := s.SelectOffer(id, md.TierNova)
				return code(err)
			},
			expectedCode: http.StatusNotFound,
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			s := NewDraftStore(8, time.Minute)
			d, err := s.Start(time.Now())
			require.Nil(t, err)
			got := c.run(s, d.ID)
			if c.expectedCode == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, c.expectedCode, got.status)
		})
	}
}

func TestDraftExpires(t *testing.T) {
	s := NewDraftStore(8, 20*time.Millisecond)
	d, err := s.Start(time.Now())
	require.Nil(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = s.Get(d.ID)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.StatusCode())
}

type errCode struct {
	status int
}

func code(err *pe.Err) *errCode {
	if err == nil {
		return nil
	}
	return &errCode{err.StatusCode()}
}
