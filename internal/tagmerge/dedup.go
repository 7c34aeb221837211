package tagmerge

import (
	"sort"

	"github.com/ajitpratap0/openclaw-tagger/internal/datatype"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// MergeGroup is a cluster of tags in one scope that should become a single
// tag. Duplicates are merged into Primary.
type MergeGroup struct {
	Scope      models.Scope `json:"scope"`
	Primary    models.Tag   `json:"primary"`
	Duplicates []models.Tag `json:"duplicates"`
}

// FindSimilarTags clusters tags per scope with greedy single-link
// clustering at threshold (DefaultThreshold when <= 0). dataTypes maps
// category IDs to data types; categories missing from it use text rules.
// Only groups with at least one duplicate are returned.
//
// In a date group the primary is the tag with the widest span, ties going
// to the earliest created; in any other group it is the earliest created.
func (r *Resolver) FindSimilarTags(tags []models.Tag, dataTypes map[string]models.DataType, threshold float64) []MergeGroup {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	ordered := make([]models.Tag, len(tags))
	copy(ordered, tags)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	byScope := make(map[models.Scope][]models.Tag)
	var scopes []models.Scope
	for i := range ordered {
		s := ordered[i].Scope()
		if _, seen := byScope[s]; !seen {
			scopes = append(scopes, s)
		}
		byScope[s] = append(byScope[s], ordered[i])
	}

	var groups []MergeGroup
	for _, s := range scopes {
		dt := dataTypes[s.CategoryID]
		for _, cluster := range r.cluster(byScope[s], dt, threshold) {
			if len(cluster) < 2 {
				continue
			}
			primary := pickPrimary(cluster, dt)
			g := MergeGroup{Scope: s, Primary: cluster[primary]}
			for i := range cluster {
				if i != primary {
					g.Duplicates = append(g.Duplicates, cluster[i])
				}
			}
			groups = append(groups, g)
		}
	}

	r.logger.Debug("tagmerge: similar tag groups", "tags", len(tags), "groups", len(groups), "threshold", threshold)
	return groups
}

// cluster grows each group from its earliest unassigned tag, pulling in any
// tag similar to any current member until the group stops changing.
func (r *Resolver) cluster(tags []models.Tag, dt models.DataType, threshold float64) [][]models.Tag {
	assigned := make([]bool, len(tags))
	var clusters [][]models.Tag

	for i := range tags {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []int{i}

		for grew := true; grew; {
			grew = false
			for j := range tags {
				if assigned[j] {
					continue
				}
				for _, m := range members {
					if r.norm.Similarity(tags[m].Name, tags[j].Name, dt) >= threshold {
						assigned[j] = true
						members = append(members, j)
						grew = true
						break
					}
				}
			}
		}

		sort.Ints(members)
		cluster := make([]models.Tag, 0, len(members))
		for _, m := range members {
			cluster = append(cluster, tags[m])
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// pickPrimary returns the index of the tag to keep. cluster is in creation order.
func pickPrimary(cluster []models.Tag, dt models.DataType) int {
	if dt != models.DataTypeDate {
		return 0
	}
	best, bestWidth := 0, -1
	for i := range cluster {
		w, ok := datatype.SpanWidth(cluster[i].Name)
		if !ok {
			w = 0
		}
		if w > bestWidth {
			best, bestWidth = i, w
		}
	}
	return best
}
