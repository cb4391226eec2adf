package consolidate

import "github.com/meridian-mem/meridian/internal/episode"

// clusterByTask groups episodes by pairwise task-description Jaccard
// similarity, single-link and greedy: an episode joins the first
// existing cluster where it is similar enough to at least one member.
func clusterByTask(episodes []episode.Episode) [][]episode.Episode {
	var clusters [][]episode.Episode

	for _, ep := range episodes {
		placed := false
		for i, cluster := range clusters {
			if similarToAnyMember(ep, cluster) {
				clusters[i] = append(cluster, ep)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []episode.Episode{ep})
		}
	}

	return clusters
}

func similarToAnyMember(ep episode.Episode, cluster []episode.Episode) bool {
	for _, member := range cluster {
		if jaccardSimilarity(ep.Task, member.Task) > clusterThreshold {
			return true
		}
	}
	return false
}
