package timeline

import (
	"fmt"
	"strings"
	"unicode/utf16"

	md "wuyrush.io/chronos/models"
)

const (
	// RangeX and RangeY bound the star offsets within a timeline cell, in px
	RangeX = 60
	RangeY = 140
	// CellCenterX and CellCenterY locate the center of a month cell, in px
	CellCenterX = 64
	CellCenterY = 128
)

// Offset is a star's displacement from its cell center, in px
type Offset struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// idHash sums the UTF-16 code units of id, matching what browsers yield for charCodeAt
func idHash(id string) int64 {
	var h int64
	for _, u := range utf16.Encode([]rune(id)) {
		h += int64(u)
	}
	return h
}

// PlacementOffset computes the offset of the star at position idx of its bucket. The result only depends on the
// capsule id and idx, so a star never moves between renders.
func PlacementOffset(id string, idx int) Offset {
	h := idHash(id)
	return Offset{
		DX: int(h%RangeX) - RangeX/2,
		DY: int((h*int64(idx+1))%RangeY) - RangeY/2,
	}
}

// Star is a placed capsule marker
type Star struct {
	CapsuleID string  `json:"capsuleId"`
	Tier      md.Tier `json:"tier"`
	Size      int     `json:"size"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
}

// Constellation is the set of stars of one bucket joined by a polyline in bucket order
type Constellation struct {
	Stars []Star `json:"stars"`
	// Path is an SVG path, empty when there's nothing to connect
	Path string `json:"path"`
}

// Place lays out the stars of bucket around the cell center
func Place(bucket []*md.Capsule) Constellation {
	stars := make([]Star, len(bucket))
	for i, c := range bucket {
		off := PlacementOffset(c.ID, i)
		stars[i] = Star{
			CapsuleID: c.ID,
			Tier:      c.Tier,
			Size:      c.Tier.StarSize(),
			X:         CellCenterX + off.DX,
			Y:         CellCenterY + off.DY,
		}
	}
	return Constellation{Stars: stars, Path: polyline(stars)}
}

func polyline(stars []Star) string {
	if len(stars) < 2 {
		return ""
	}
	var b strings.Builder
	for i, s := range stars {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s %d %d", cmd, s.X, s.Y)
	}
	return b.String()
}
