package stores

import (
	"fmt"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
	cst "wuyrush.io/chronos/constants"
	pe "wuyrush.io/chronos/errors"
	md "wuyrush.io/chronos/models"
)

// Step is a step of the purchase wizard
type Step string

const (
	StepChooseOffer Step = "CHOOSE_OFFER"
	StepCustomize   Step = "CUSTOMIZE"
	StepPayment     Step = "PAYMENT"
)

// Draft is a capsule being purchased. Drafts are values; every wizard transition stores a new one.
type Draft struct {
	ID        string          `json:"id"`
	Step      Step            `json:"step"`
	Offer     md.Tier         `json:"offer,omitempty"`
	Details   md.CapsuleDraft `json:"details"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DraftStore keeps purchase drafts until they are confirmed, cancelled or expire
type DraftStore struct {
	// serializes read-modify-write of drafts
	mu    sync.Mutex
	cache gcache.Cache
}

func NewDraftStore(size int, expiry time.Duration) *DraftStore {
	return &DraftStore{cache: gcache.New(size).LRU().Expiration(expiry).Build()}
}

// Start opens a new draft at the first step of the wizard
func (s *DraftStore) Start(now time.Time) (Draft, *pe.Err) {
	d := Draft{ID: ksuid.New().String(), Step: StepChooseOffer, CreatedAt: now}
	if err := s.cache.Set(d.ID, d); err != nil {
		return Draft{}, pe.NewServiceFailure("failed starting purchase").WithCause(err)
	}
	log.WithField(cst.LogFieldDraftID, d.ID).Debug("draft started")
	return d, nil
}

func (s *DraftStore) Get(id string) (Draft, *pe.Err) {
	v, err := s.cache.Get(id)
	if err != nil {
		if err == gcache.KeyNotFoundError {
			return Draft{}, pe.NewNotFound("purchase not found or expired")
		}
		return Draft{}, pe.NewServiceFailure("failed getting purchase").WithCause(err)
	}
	return v.(Draft), nil
}

// SelectOffer picks the tier to purchase. It is allowed at any step and leads to the customization step.
func (s *DraftStore) SelectOffer(id string, tier md.Tier) (Draft, *pe.Err) {
	if _, ok := md.OfferByID(tier); !ok {
		return Draft{}, pe.NewBadInput(fmt.Sprintf("unknown offer %q", tier))
	}
	return s.update(id, func(d Draft) (Draft, *pe.Err) {
		d.Offer, d.Step = tier, StepCustomize
		d.Details.Tier = tier
		if !tier.AllowsLinks() {
			d.Details.LogoURL, d.Details.ExternalLink = "", ""
		}
		return d, nil
	})
}

// Customize fills in the capsule content, leading to the payment step once valid
func (s *DraftStore) Customize(id string, details md.CapsuleDraft) (Draft, *pe.Err) {
	return s.update(id, func(d Draft) (Draft, *pe.Err) {
		if d.Step == StepChooseOffer {
			return d, pe.NewBadInput("choose an offer first")
		}
		details.Tier = d.Offer
		if err := details.Validate(); err != nil {
			return d, err
		}
		d.Details, d.Step = details, StepPayment
		return d, nil
	})
}

// Confirm settles the purchase and closes the draft, returning the ignited capsule
func (s *DraftStore) Confirm(id string, now time.Time) (*md.Capsule, *pe.Err) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if d.Step != StepPayment {
		return nil, pe.NewBadInput("purchase is not ready for payment")
	}
	c, err := md.NewCapsule(ksuid.New().String(), d.Details, now)
	if err != nil {
		return nil, err
	}
	s.cache.Remove(id)
	log.WithFields(log.Fields{cst.LogFieldDraftID: id, cst.LogFieldCapsuleID: c.ID}).Info("purchase confirmed")
	return c, nil
}

// Cancel drops the draft. Cancelling a missing draft is a no-op.
func (s *DraftStore) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
}

func (s *DraftStore) update(id string, f func(Draft) (Draft, *pe.Err)) (Draft, *pe.Err) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.Get(id)
	if err != nil {
		return Draft{}, err
	}
	next, err := f(d)
	if err != nil {
		return d, err
	}
	if serr := s.cache.Set(id, next); serr != nil {
		return d, pe.NewServiceFailure("failed saving purchase").WithCause(serr)
	}
	return next, nil
}
