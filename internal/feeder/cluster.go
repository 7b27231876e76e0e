package feeder

import (
	"context"
	"fmt"
	"sort"
)

// ClusterEvents groups articles covering the same real-world event and keeps
// only the highest-trust representative per cluster. It must see the whole
// candidate pool that survived the recency and trust filters, before any
// batch-size cap, so the cap applies to deduplicated events rather than raw
// articles.
func ClusterEvents(ctx context.Context, articles []*Article, registry *TrustRegistry, threshold int) ([]*Article, []DropRecord) {
	if len(articles) == 0 {
		return nil, nil
	}

	type ranked struct {
		article *Article
		rank    int
		order   int
	}

	sorted := make([]ranked, 0, len(articles))
	for i, a := range articles {
		sorted = append(sorted, ranked{
			article: a,
			rank:    registry.RankOf(ctx, a.SourceDomain),
			order:   i,
		})
	}
	// Highest-trust first; ties keep original feed order.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].rank != sorted[j].rank {
			return sorted[i].rank < sorted[j].rank
		}
		return sorted[i].order < sorted[j].order
	})

	kept := make([]*Article, 0, len(sorted))
	var dropped []DropRecord
	absorbed := make(map[int]struct{}, len(sorted))

	for i, rep := range sorted {
		if _, ok := absorbed[i]; ok {
			continue
		}
		kept = append(kept, rep.article)

		for j := i + 1; j < len(sorted); j++ {
			if _, ok := absorbed[j]; ok {
				continue
			}
			other := sorted[j]
			score := TokenSortRatio(rep.article.Title, other.article.Title)
			if score < threshold {
				continue
			}
			absorbed[j] = struct{}{}
			dropped = append(dropped, DropRecord{
				Article: other.article,
				Stage:   StageCluster,
				Reason: fmt.Sprintf("same event as %q (similarity=%d, kept %s)",
					truncate(rep.article.Title, 70), score, rep.article.SourceDomain),
			})
		}
	}

	return kept, dropped
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
