// Package idhash derives deterministic record identifiers from natural keys.
// Re-running a transformer over the same input regenerates identical ids,
// which keeps delete-then-reinsert runs byte-identical.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// short hashes keep indexes small; 16 hex chars = 64 bits, enough for
// per-match record counts in the low thousands.
const shortLen = 16

func short(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])[:shortLen]
}

// RoundID computes a deterministic round id.
// Formula: SHA256(match_id|round|number)[:16]
func RoundID(matchID string, number int) string {
	return short(fmt.Sprintf("%s|round|%d", matchID, number))
}

// KillID computes a deterministic kill id.
// Formula: SHA256(match_id|kill|round_id|tick|victim|attacker)[:16]
func KillID(matchID, roundID string, tick int64, victimID, attackerID string) string {
	return short(fmt.Sprintf("%s|kill|%s|%d|%s|%s", matchID, roundID, tick, victimID, attackerID))
}

// StatID computes a deterministic round-player stat id.
// Formula: SHA256(match_id|stat|round_id|player_id)[:16]
func StatID(matchID, roundID, playerID string) string {
	return short(fmt.Sprintf("%s|stat|%s|%s", matchID, roundID, playerID))
}

// ReplayEventID computes a deterministic replay event id.
// Formula: SHA256(match_id|replay|kind|tick|actor|target)[:16]
func ReplayEventID(matchID, kind string, tick int64, actorID, targetID string) string {
	return short(fmt.Sprintf("%s|replay|%s|%d|%s|%s", matchID, kind, tick, actorID, targetID))
}
