package models

import (
	"strconv"
	"strings"
)

// Principal is the opaque identity of a player, as forwarded by the gateway.
type Principal string

const npcPrefix = "npc:"

// SparringPartner is the opponent of every solo match.
const SparringPartner Principal = npcPrefix + "sparring-partner"

// StoryOpponent returns the principal used for a story encounter opponent.
func StoryOpponent(level int64) Principal {
	return Principal(npcPrefix + "story-" + strconv.FormatInt(level, 10))
}

func (p Principal) String() string { return string(p) }

// IsNPC reports whether p is a scripted opponent. NPCs never own ledger rows.
func (p Principal) IsNPC() bool { return strings.HasPrefix(string(p), npcPrefix) }

// IsAnonymous reports whether no identity was supplied.
func (p Principal) IsAnonymous() bool { return strings.TrimSpace(string(p)) == "" }
