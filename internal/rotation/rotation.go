// Package rotation picks the subset of challenges shown to every user for a
// given rotation period. Selection orders the pool by md5(challengeID +
// periodKey), the in-process equivalent of Postgres
// `ORDER BY md5(concat(id, date))`: stable within a period, reshuffled when
// the period key changes.
package rotation

import (
	"bytes"
	"crypto/md5"
	"sort"
	"strings"

	"peakAPI/internal/types/challenge"
)

// Select returns up to count challenges of the given type from pool,
// deterministically for a given periodKey. Ties on the digest break by
// challenge ID ascending. A pool smaller than count is returned whole.
func Select(pool []*challenge.Challenge, challengeType challenge.ChallengeType, periodKey string, count int) []*challenge.Challenge {
	type scored struct {
		ch     *challenge.Challenge
		digest [md5.Size]byte
	}

	eligible := make([]scored, 0, len(pool))
	for _, ch := range pool {
		if !strings.EqualFold(ch.Type, string(challengeType)) {
			continue
		}
		eligible = append(eligible, scored{
			ch:     ch,
			digest: md5.Sum([]byte(ch.ID.String() + periodKey)),
		})
	}

	sort.Slice(eligible, func(i, j int) bool {
		if c := bytes.Compare(eligible[i].digest[:], eligible[j].digest[:]); c != 0 {
			return c < 0
		}
		return eligible[i].ch.ID.String() < eligible[j].ch.ID.String()
	})

	if count > len(eligible) {
		count = len(eligible)
	}
	selected := make([]*challenge.Challenge, 0, count)
	for _, s := range eligible[:count] {
		selected = append(selected, s.ch)
	}
	return selected
}
