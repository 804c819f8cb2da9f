package progression

// Rank is a coarse tier label derived from a level.
type Rank string

const (
	Bronze   Rank = "Bronze"
	Silver   Rank = "Silver"
	Gold     Rank = "Gold"
	Platinum Rank = "Platinum"
	Diamond  Rank = "Diamond"
)

// RankFor returns the rank of level. Non-decreasing in level.
func RankFor(level int) Rank {
	switch {
	case level >= 20:
		return Diamond
	case level >= 15:
		return Platinum
	case level >= 10:
		return Gold
	case level >= 5:
		return Silver
	default:
		return Bronze
	}
}
