package services

const (
	DefaultSkillWeight   = 1.0
	DefaultSynergyWeight = 0.5
)

// PlayerProfile is the matchmaking view of a player in one game.
type PlayerProfile struct {
	UserID       int64   `json:"user_id"`
	SkillRating  float64 `json:"skill_rating"`
	WinRate      float64 `json:"win_rate"`
	AvgScore     float64 `json:"avg_score"`
	TotalMatches int     `json:"total_matches"`
}

// TeamCandidate is a tentative team considered during the search.
type TeamCandidate struct {
	Players  []PlayerProfile
	AvgSkill float64
}

// NewTeamCandidate builds a candidate and computes its average skill.
func NewTeamCandidate(players []PlayerProfile) TeamCandidate {
	t := TeamCandidate{Players: players}
	if len(players) > 0 {
		var sum float64
		for _, p := range players {
			sum += p.SkillRating
		}
		t.AvgSkill = sum / float64(len(players))
	}
	return t
}

// PlayerPair is an unordered pair of players in canonical (Low < High) order.
type PlayerPair struct {
	Low, High int64
}

// NewPlayerPair orders a and b canonically.
func NewPlayerPair(a, b int64) PlayerPair {
	if a > b {
		a, b = b, a
	}
	return PlayerPair{Low: a, High: b}
}

// SynergyMap holds teammate synergy per canonical pair. Absent pairs count as 0.
type SynergyMap map[PlayerPair]float64

// Get returns the synergy of a and b in either order.
func (m SynergyMap) Get(a, b int64) float64 {
	return m[NewPlayerPair(a, b)]
}

// Evaluator scores partitions; lower scores are better balanced.
type Evaluator struct {
	SkillWeight   float64
	SynergyWeight float64
}

// NewEvaluator returns an Evaluator with the default weights.
func NewEvaluator() Evaluator {
	return Evaluator{SkillWeight: DefaultSkillWeight, SynergyWeight: DefaultSynergyWeight}
}

// Score combines the population variance of team average skills with the
// summed synergy of every teammate pair. Pairing players with a history of
// winning together raises the score.
func (e Evaluator) Score(teams []TeamCandidate, synergy SynergyMap) float64 {
	return e.SkillWeight*SkillVariance(teams) + e.SynergyWeight*SynergyPenalty(teams, synergy)
}

// SkillVariance is the population variance of the teams' average skills.
func SkillVariance(teams []TeamCandidate) float64 {
	if len(teams) == 0 {
		return 0
	}
	var mean float64
	for _, t := range teams {
		mean += t.AvgSkill
	}
	mean /= float64(len(teams))

	var variance float64
	for _, t := range teams {
		d := t.AvgSkill - mean
		variance += d * d
	}
	return variance / float64(len(teams))
}

// SynergyPenalty sums teammate synergy over every intra-team pair.
func SynergyPenalty(teams []TeamCandidate, synergy SynergyMap) float64 {
	if len(synergy) == 0 {
		return 0
	}
	var penalty float64
	for _, t := range teams {
		for i := 0; i < len(t.Players); i++ {
			for j := i + 1; j < len(t.Players); j++ {
				penalty += synergy.Get(t.Players[i].UserID, t.Players[j].UserID)
			}
		}
	}
	return penalty
}
