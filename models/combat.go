package models

// CombatResult is produced once per match and is immutable afterwards.
type CombatResult struct {
	Winner       Principal `json:"winner"`
	Loser        Principal `json:"loser"`
	WinnerHealth int64     `json:"winner_health"`
	Rounds       int64     `json:"rounds"`
}

// Exchange is one attack inside a combat round.
type Exchange struct {
	Round    int64     `json:"round"`
	Attacker Principal `json:"attacker"`
	Defender Principal `json:"defender"`
	Damage   int64     `json:"damage"`
	// DefenderHealth is the defender's health after the hit.
	DefenderHealth int64 `json:"defender_health"`
}

// CombatLog is the full round-by-round record of a simulation.
type CombatLog struct {
	MatchID   string       `json:"match_id"`
	Seed      int64        `json:"seed"`
	Result    CombatResult `json:"result"`
	Exchanges []Exchange   `json:"exchanges"`
}
