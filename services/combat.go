package services

import (
	"hash/fnv"
	"math/rand"
	"time"

	"goon-fighter/models"
)

// RoundCap bounds a simulation; at the cap the healthier fighter wins.
const RoundCap = 50

// MaxEncounterLevel is the last story encounter. StoryFighter is only
// defined for levels 1..MaxEncounterLevel.
const MaxEncounterLevel = 100

// Fighter is one side of a simulation.
type Fighter struct {
	Principal models.Principal
	Health    int64
	MinDamage int64
	MaxDamage int64
}

// BaseFighter is the stat line every player fights with.
func BaseFighter(p models.Principal) Fighter {
	return Fighter{Principal: p, Health: 100, MinDamage: 8, MaxDamage: 20}
}

// SparringFighter is the opponent of solo matches.
func SparringFighter() Fighter {
	return Fighter{Principal: models.SparringPartner, Health: 90, MinDamage: 6, MaxDamage: 16}
}

// StoryFighter scales every stat strictly with the encounter level.
func StoryFighter(level int64) Fighter {
	return Fighter{
		Principal: models.StoryOpponent(level),
		Health:    80 + 15*level,
		MinDamage: 5 + 2*level,
		MaxDamage: 14 + 3*level,
	}
}

// CombatSeed derives a simulation seed from the match id and resolution time.
func CombatSeed(matchID string, at time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(matchID))
	return int64(h.Sum64() ^ uint64(at.UnixNano()))
}

// Simulate runs a deterministic fight between a and b. Fighters alternate
// opening the round (a on odd rounds); the fight stops when one health hits
// zero or after RoundCap rounds.
func Simulate(matchID string, seed int64, a, b Fighter) models.CombatLog {
	rng := rand.New(rand.NewSource(seed))
	fighters := [2]Fighter{a, b}
	health := [2]int64{a.Health, b.Health}
	clog := models.CombatLog{MatchID: matchID, Seed: seed}

	winner := -1
	var rounds int64
	for round := int64(1); round <= RoundCap && winner < 0; round++ {
		rounds = round
		first := int((round - 1) % 2)
		for k := 0; k < 2; k++ {
			att := (first + k) % 2
			def := 1 - att

			dmg := rollDamage(rng, fighters[att])
			health[def] -= dmg
			if health[def] < 0 {
				health[def] = 0
			}
			clog.Exchanges = append(clog.Exchanges, models.Exchange{
				Round:          round,
				Attacker:       fighters[att].Principal,
				Defender:       fighters[def].Principal,
				Damage:         dmg,
				DefenderHealth: health[def],
			})
			if health[def] == 0 {
				winner = att
				break
			}
		}
	}

	if winner < 0 {
		switch {
		case health[0] > health[1]:
			winner = 0
		case health[1] > health[0]:
			winner = 1
		default:
			winner = rng.Intn(2)
		}
	}

	clog.Result = models.CombatResult{
		Winner:       fighters[winner].Principal,
		Loser:        fighters[1-winner].Principal,
		WinnerHealth: health[winner],
		Rounds:       rounds,
	}
	return clog
}

func rollDamage(rng *rand.Rand, f Fighter) int64 {
	if f.MaxDamage <= f.MinDamage {
		return f.MinDamage
	}
	return f.MinDamage + rng.Int63n(f.MaxDamage-f.MinDamage+1)
}
