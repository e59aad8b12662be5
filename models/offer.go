package models

// OfferCategory groups offers on the purchase page
type OfferCategory string

const (
	OfferCategoryPersonal     OfferCategory = "personal"
	OfferCategorySocial       OfferCategory = "social"
	OfferCategoryProfessional OfferCategory = "professional"
)

// Offer is a purchasable tier
type Offer struct {
	ID          Tier          `json:"id"`
	Name        string        `json:"name"`
	Price       int           `json:"price"` // whole USD
	Description string        `json:"description"`
	Features    []string      `json:"features"`
	Category    OfferCategory `json:"category"`
}

var catalog = []Offer{
	{
		ID:          TierFragment,
		Name:        "Fragment",
		Price:       9,
		Description: "A classic memory in the stars.",
		Features:    []string{"1 message", "1 photo", "Public visibility"},
		Category:    OfferCategoryPersonal,
	},
	{
		ID:          TierAura,
		Name:        "Aura",
		Price:       29,
		Description: "Enhance your legacy.",
		Features:    []string{"Up to 3 photos", "Ambient music", "Featured for 7 days", "Custom frame"},
		Category:    OfferCategoryPersonal,
	},
	{
		ID:          TierNova,
		Name:        "Nova",
		Price:       49,
		Description: "A star that refuses to fade.",
		Features:    []string{"Glowing star marker", "Featured for 30 days", "Shareable link"},
		Category:    OfferCategoryPersonal,
	},
	{
		ID:          TierGalaxy,
		Name:        "Galaxy",
		Price:       79,
		Description: "Shine brighter than anyone.",
		Features:    []string{"High-visibility star icon", "Premium badge", "Shareable link", "Infinite duration"},
		Category:    OfferCategoryPersonal,
	},
	{
		ID:          TierUniverse,
		Name:        "Universe",
		Price:       249,
		Description: "The brightest light of its era.",
		Features:    []string{"Largest star marker", "Diffraction spikes", "Pinned on its date", "Infinite duration"},
		Category:    OfferCategoryPersonal,
	},
	{
		ID:          TierSocial,
		Name:        "Social",
		Price:       39,
		Description: "Bring your community into the archive.",
		Features:    []string{"External link", "Community logo", "Public visibility"},
		Category:    OfferCategorySocial,
	},
	{
		ID:          TierBrand,
		Name:        "Brand",
		Price:       499,
		Description: "Engrave your brand's milestone in time.",
		Features:    []string{"Brand logo", "External link", "Premium badge", "Infinite duration"},
		Category:    OfferCategoryProfessional,
	},
}

// Catalog returns a copy of the static offer catalog
func Catalog() []Offer {
	out := make([]Offer, len(catalog))
	for i, o := range catalog {
		o.Features = append([]string(nil), o.Features...)
		out[i] = o
	}
	return out
}

// OfferByID returns the offer of tier id, if any
func OfferByID(id Tier) (Offer, bool) {
	for _, o := range Catalog() {
		if o.ID == id {
			return o, true
		}
	}
	return Offer{}, false
}
