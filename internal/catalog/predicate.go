package catalog

// PredicateKind is the YAML discriminator of an unlock predicate.
type PredicateKind string

const (
	KindAlways                    PredicateKind = "always"
	KindTotalCatchesAtLeast       PredicateKind = "total_catches_at_least"
	KindCatchesAtLeast            PredicateKind = "catches_at_least"
	KindCastsAtLeast              PredicateKind = "casts_at_least"
	KindSurfaceSecondsAtLeast     PredicateKind = "surface_seconds_at_least"
	KindDeepVisitsAtLeast         PredicateKind = "deep_visits_at_least"
	KindCumulativeWeightAtLeast   PredicateKind = "cumulative_weight_kg_at_least"
	KindCumulativeScoreAtLeast    PredicateKind = "cumulative_score_at_least"
	KindLineBreaksAtLeast         PredicateKind = "line_breaks_at_least"
	KindPlaySecondsAtLeast        PredicateKind = "play_seconds_at_least"
	KindCatchesSpeciesAtLeast     PredicateKind = "catches_species_at_least"
	KindPatternDetectAtLeast      PredicateKind = "pattern_detect_at_least"
	KindPerfectGameScoreAtLeast   PredicateKind = "perfect_game_score_at_least"
	KindPerfectGamesAtLeast       PredicateKind = "perfect_games_at_least"
	KindFastCatchesInTime         PredicateKind = "fast_catches_in_time"
	KindCatchesAtTimeOfDay        PredicateKind = "catches_at_time_of_day"
	KindCatchesInSeasonAtLeast    PredicateKind = "catches_in_season_at_least"
	KindTreasuresAtLeast          PredicateKind = "treasures_at_least"
	KindTransformedCatchesAtLeast PredicateKind = "transformed_catches_at_least"
	KindAllSpeciesCaught          PredicateKind = "all_species_caught"
)

// PredicateKinds lists every variant in declaration order.
func PredicateKinds() []PredicateKind {
	return []PredicateKind{
		KindAlways, KindTotalCatchesAtLeast, KindCatchesAtLeast, KindCastsAtLeast,
		KindSurfaceSecondsAtLeast, KindDeepVisitsAtLeast, KindCumulativeWeightAtLeast,
		KindCumulativeScoreAtLeast, KindLineBreaksAtLeast, KindPlaySecondsAtLeast,
		KindCatchesSpeciesAtLeast, KindPatternDetectAtLeast, KindPerfectGameScoreAtLeast,
		KindPerfectGamesAtLeast, KindFastCatchesInTime, KindCatchesAtTimeOfDay,
		KindCatchesInSeasonAtLeast, KindTreasuresAtLeast, KindTransformedCatchesAtLeast,
		KindAllSpeciesCaught,
	}
}

// Predicate is a closed set of unlock conditions. Only the types in this
// file implement it.
type Predicate interface {
	Kind() PredicateKind
	predicate()
}

type (
	Always                    struct{}
	TotalCatchesAtLeast       struct{ Value float64 `json:"value"` }
	CatchesAtLeast            struct{ Value float64 `json:"value"` }
	CastsAtLeast              struct{ Value float64 `json:"value"` }
	SurfaceSecondsAtLeast     struct{ Value float64 `json:"value"` }
	DeepVisitsAtLeast         struct{ Value float64 `json:"value"` }
	CumulativeWeightAtLeast   struct{ Value float64 `json:"value"` }
	CumulativeScoreAtLeast    struct{ Value float64 `json:"value"` }
	LineBreaksAtLeast         struct{ Value float64 `json:"value"` }
	PlaySecondsAtLeast        struct{ Value float64 `json:"value"` }
	PerfectGameScoreAtLeast   struct{ Value float64 `json:"value"` }
	PerfectGamesAtLeast       struct{ Value float64 `json:"value"` }
	TreasuresAtLeast          struct{ Value float64 `json:"value"` }
	TransformedCatchesAtLeast struct{ Value float64 `json:"value"` }
	AllSpeciesCaught          struct{}

	CatchesSpeciesAtLeast struct {
		SpeciesID string  `json:"species"`
		Value     float64 `json:"value"`
	}
	PatternDetectAtLeast struct {
		Pattern BaitPattern `json:"pattern"`
		Value   float64     `json:"value"`
	}
	// FastCatchesInTime holds when Count catches fit inside any window of
	// Seconds in the retained catch log.
	FastCatchesInTime struct {
		Count   int     `json:"count"`
		Seconds float64 `json:"seconds"`
	}
	CatchesAtTimeOfDay struct {
		Period Period  `json:"period"`
		Value  float64 `json:"value"`
	}
	CatchesInSeasonAtLeast struct {
		Season Season  `json:"season"`
		Value  float64 `json:"value"`
	}
)

func (Always) Kind() PredicateKind { return KindAlways }
func (TotalCatchesAtLeast) Kind() PredicateKind { return KindTotalCatchesAtLeast }
func (CatchesAtLeast) Kind() PredicateKind { return KindCatchesAtLeast }
func (CastsAtLeast) Kind() PredicateKind { return KindCastsAtLeast }
func (SurfaceSecondsAtLeast) Kind() PredicateKind { return KindSurfaceSecondsAtLeast }
func (DeepVisitsAtLeast) Kind() PredicateKind { return KindDeepVisitsAtLeast }
func (CumulativeWeightAtLeast) Kind() PredicateKind { return KindCumulativeWeightAtLeast }
func (CumulativeScoreAtLeast) Kind() PredicateKind { return KindCumulativeScoreAtLeast }
func (LineBreaksAtLeast) Kind() PredicateKind { return KindLineBreaksAtLeast }
func (PlaySecondsAtLeast) Kind() PredicateKind { return KindPlaySecondsAtLeast }
func (PerfectGameScoreAtLeast) Kind() PredicateKind { return KindPerfectGameScoreAtLeast }
func (PerfectGamesAtLeast) Kind() PredicateKind { return KindPerfectGamesAtLeast }
func (TreasuresAtLeast) Kind() PredicateKind { return KindTreasuresAtLeast }
func (TransformedCatchesAtLeast) Kind() PredicateKind { return KindTransformedCatchesAtLeast }
func (AllSpeciesCaught) Kind() PredicateKind { return KindAllSpeciesCaught }
func (CatchesSpeciesAtLeast) Kind() PredicateKind { return KindCatchesSpeciesAtLeast }
func (PatternDetectAtLeast) Kind() PredicateKind { return KindPatternDetectAtLeast }
func (FastCatchesInTime) Kind() PredicateKind { return KindFastCatchesInTime }
func (CatchesAtTimeOfDay) Kind() PredicateKind { return KindCatchesAtTimeOfDay }
func (CatchesInSeasonAtLeast) Kind() PredicateKind { return KindCatchesInSeasonAtLeast }

func (Always) predicate() {}
func (TotalCatchesAtLeast) predicate() {}
func (CatchesAtLeast) predicate() {}
func (CastsAtLeast) predicate() {}
func (SurfaceSecondsAtLeast) predicate() {}
func (DeepVisitsAtLeast) predicate() {}
func (CumulativeWeightAtLeast) predicate() {}
func (CumulativeScoreAtLeast) predicate() {}
func (LineBreaksAtLeast) predicate() {}
func (PlaySecondsAtLeast) predicate() {}
func (PerfectGameScoreAtLeast) predicate() {}
func (PerfectGamesAtLeast) predicate() {}
func (TreasuresAtLeast) predicate() {}
func (TransformedCatchesAtLeast) predicate() {}
func (AllSpeciesCaught) predicate() {}
func (CatchesSpeciesAtLeast) predicate() {}
func (PatternDetectAtLeast) predicate() {}
func (FastCatchesInTime) predicate() {}
func (CatchesAtTimeOfDay) predicate() {}
func (CatchesInSeasonAtLeast) predicate() {}
