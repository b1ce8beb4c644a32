package service

import (
	"sort"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
)

// RankedScore is a score row with its 1-based position.
type RankedScore struct {
	models.ScoreRow
	Rank int
}

// AssignRanks orders scores by total desc, user id asc, track asc and numbers them 1..n.
// Ties on total still get distinct ranks; the input slice is left untouched.
func AssignRanks(scores []models.ScoreRow) []RankedScore {
	sorted := make([]models.ScoreRow, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.Track < b.Track
	})

	ranked := make([]RankedScore, len(sorted))
	for i, row := range sorted {
		ranked[i] = RankedScore{ScoreRow: row, Rank: i + 1}
	}
	return ranked
}

// BuildRankEntries joins ranked scores with user profiles. Users without a profile, or with
// missing institution or region, get the unknown sentinels.
func BuildRankEntries(ranked []RankedScore, profiles map[string]models.UserProfile, tryoutID string, year int) []models.RankEntry {
	entries := make([]models.RankEntry, 0, len(ranked))
	for _, r := range ranked {
		entry := models.RankEntry{
			UserID:      r.UserID,
			Track:       r.Track,
			Total:       r.Total,
			Institution: models.UnknownInstitution,
			RegionID:    models.UnknownRegion,
			Rank:        r.Rank,
			TryoutID:    tryoutID,
			Year:        year,
		}
		if profile, ok := profiles[r.UserID]; ok {
			entry.Username = profile.Username
			if profile.Institution != nil {
				entry.Institution = *profile.Institution
			}
			if profile.RegionID != nil {
				entry.RegionID = *profile.RegionID
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func userIDs(scores []models.ScoreRow) []string {
	seen := make(map[string]struct{}, len(scores))
	ids := make([]string, 0, len(scores))
	for _, s := range scores {
		if _, ok := seen[s.UserID]; ok {
			continue
		}
		seen[s.UserID] = struct{}{}
		ids = append(ids, s.UserID)
	}
	return ids
}
