package observer

import "github.com/talgya/reelworks/internal/catalog"

// BestHat picks the unlocked hat to wear: highest rarity first, then the
// largest points multiplier, then catalog order. It returns "" when no hat
// is unlocked.
//
// Perks stack passively, so wearing a hat changes no multiplier; the choice
// only decides what the player shows off.
func BestHat(hats []HatInfo) string {
	best := -1
	var bestRarity catalog.Rarity
	for i, h := range hats {
		if !h.Unlocked {
			continue
		}
		r, _ := catalog.ParseRarity(h.Rarity)
		if best < 0 || r > bestRarity ||
			(r == bestRarity && h.Perks.PointsMultiplier > hats[best].Perks.PointsMultiplier) {
			best, bestRarity = i, r
		}
	}
	if best < 0 {
		return ""
	}
	return hats[best].ID
}
