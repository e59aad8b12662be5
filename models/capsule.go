package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	pe "wuyrush.io/chronos/errors"
	"wuyrush.io/chronos/i18n"
)

/*
 Application layer data models.
*/

// Capsule is a single archived memory shown on the timeline. Capsules are immutable once created; build them
// with NewCapsule.
type Capsule struct {
	ID                string
	OccursOn          Date // the date the memory is about, not when it was archived
	Title             string
	Message           string
	AuthorDisplayName string
	Tier              Tier
	IsAnonymous       bool
	ImageURL          string
	// Links is only ever set for tiers which allow links
	Links     *Links
	LikeCount uint64
	CreatedAt time.Time
}

// Links are the optional brand / social extras of a capsule
type Links struct {
	LogoURL      string `json:"logoUrl,omitempty"`
	ExternalLink string `json:"externalLink,omitempty"`
}

// DisplayAuthor returns the author name as shown to visitors speaking lang
func (c *Capsule) DisplayAuthor(lang i18n.Language) string {
	if c.IsAnonymous {
		return i18n.T(lang, i18n.KeyAnonymousAuthor)
	}
	return c.AuthorDisplayName
}

// CapsuleView vends capsule data for rendering. It never carries the raw author of an anonymous capsule.
type CapsuleView struct {
	ID          string    `json:"id"`
	OccursOn    Date      `json:"occursOn"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Author      string    `json:"author"`
	Tier        Tier      `json:"visibilityTier"`
	IsAnonymous bool      `json:"isAnonymous"`
	ImageURL    string    `json:"imageUrl"`
	Links       *Links    `json:"links,omitempty"`
	LikeCount   uint64    `json:"likeCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *Capsule) View(lang i18n.Language) CapsuleView {
	return CapsuleView{
		ID:          c.ID,
		OccursOn:    c.OccursOn,
		Title:       c.Title,
		Message:     c.Message,
		Author:      c.DisplayAuthor(lang),
		Tier:        c.Tier,
		IsAnonymous: c.IsAnonymous,
		ImageURL:    c.ImageURL,
		Links:       c.Links,
		LikeCount:   c.LikeCount,
		CreatedAt:   c.CreatedAt,
	}
}

// CapsuleDraft is the visitor supplied content of a capsule being created
type CapsuleDraft struct {
	Tier         Tier   `json:"tier" validate:"required"`
	OccursOn     string `json:"occursOn" validate:"required,datetime=2006-01-02"`
	Title        string `json:"title" validate:"required,max=120"`
	Message      string `json:"message" validate:"required,max=2000"`
	Author       string `json:"author" validate:"required_without=IsAnonymous,max=80"`
	IsAnonymous  bool   `json:"isAnonymous"`
	ImageURL     string `json:"imageUrl" validate:"required,url"`
	LogoURL      string `json:"logoUrl,omitempty" validate:"omitempty,url"`
	ExternalLink string `json:"externalLink,omitempty" validate:"omitempty,url"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	// use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks d against both field rules and tier rules
func (d *CapsuleDraft) Validate() *pe.Err {
	if err := validate.Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return pe.NewBadInput("invalid capsule: " + strings.Join(fields, ", ")).WithCause(err)
		}
		return pe.NewBadInput("invalid capsule").WithCause(err)
	}
	if !d.Tier.Valid() {
		return pe.NewBadInput(fmt.Sprintf("unknown visibility tier %q", d.Tier))
	}
	if (d.LogoURL != "" || d.ExternalLink != "") && !d.Tier.AllowsLinks() {
		return pe.NewBadInput(fmt.Sprintf("tier %s does not allow a logo or an external link", d.Tier))
	}
	date, err := ParseDate(d.OccursOn)
	if err != nil {
		return pe.NewBadInput("invalid capsule date").WithCause(err)
	}
	if !date.InDisplayRange() {
		return pe.NewBadInput(fmt.Sprintf("capsule date must fall between %d and %d", MinYear, MaxYear))
	}
	return nil
}

// NewCapsule validates d and builds a fresh capsule out of it
func NewCapsule(id string, d CapsuleDraft, createdAt time.Time) (*Capsule, *pe.Err) {
	if id == "" {
		return nil, pe.NewBadInput("capsule id cannot be empty")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	// validated above
	date, _ := ParseDate(d.OccursOn)
	c := &Capsule{
		ID:                id,
		OccursOn:          date,
		Title:             d.Title,
		Message:           d.Message,
		AuthorDisplayName: d.Author,
		Tier:              d.Tier,
		IsAnonymous:       d.IsAnonymous,
		ImageURL:          d.ImageURL,
		CreatedAt:         createdAt,
	}
	if d.LogoURL != "" || d.ExternalLink != "" {
		c.Links = &Links{LogoURL: d.LogoURL, ExternalLink: d.ExternalLink}
	}
	return c, nil
}
