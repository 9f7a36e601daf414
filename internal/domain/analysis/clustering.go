package analysis

import (
	"math"
)

// ClusterNode is one node of the dendrogram produced by Cluster. Leaves carry
// the card's universe index and name; internal nodes carry exactly two
// children and the merge distance at which they were formed. Size is the
// number of leaves under the node.
type ClusterNode struct {
	Name      string         `json:"name"`
	Children  []*ClusterNode `json:"children"`
	Distance  float64        `json:"distance"`
	Size      int            `json:"size,omitempty"`
	CardIndex *int           `json:"card_index,omitempty"`
}

// IsLeaf reports whether the node represents a single card.
func (n *ClusterNode) IsLeaf() bool {
	return n.CardIndex != nil
}

// Leaves returns the number of leaf nodes under n, counting n itself if it is
// a leaf.
func (n *ClusterNode) Leaves() int {
	if n.IsLeaf() {
		return 1
	}
	count := 0
	for _, child := range n.Children {
		count += child.Leaves()
	}
	return count
}

// cluster is a working cluster during agglomeration: the dendrogram node
// built so far plus the original universe indexes of its member cards.
type cluster struct {
	node    *ClusterNode
	members []int
}

// Cluster performs average-linkage agglomerative clustering over a similarity
// matrix, using distance = 1 − similarity, and returns the dendrogram root.
//
// The algorithm starts with one singleton cluster per card and repeatedly
// merges the pair of clusters with the globally minimum inter-cluster
// distance until a single cluster remains. Inter-cluster distance is the
// average distance over all cross-pairs of original card indexes (average
// linkage). Ties are broken by the first pair found in nested ascending
// iteration order, and a merge removes the two clusters and appends the new
// one at the end of the active list. Both rules matter, because they fix the
// merge order and therefore the exact shape of the dendrogram.
//
// For n cards the result has exactly n leaves (a bijection with universe
// indexes) and n−1 binary internal nodes. cardNames provides leaf names,
// indexed in step with the matrix. Zero cards yields the degenerate
// placeholder node named "Empty".
func Cluster(matrix [][]float64, cardNames []string) *ClusterNode {
	n := len(cardNames)
	if n == 0 {
		return &ClusterNode{Name: "Empty", Children: []*ClusterNode{}, Distance: 0}
	}

	clusters := make([]*cluster, n)
	for i := 0; i < n; i++ {
		i := i
		clusters[i] = &cluster{
			node: &ClusterNode{
				Name:      cardNames[i],
				Children:  []*ClusterNode{},
				Distance:  0,
				Size:      1,
				CardIndex: &i,
			},
			members: []int{i},
		}
	}

	for len(clusters) > 1 {
		bestA, bestB := 0, 1
		bestDist := math.MaxFloat64

		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				// Strict < keeps the first pair found on ties.
				if d := interClusterDistance(clusters[a], clusters[b], matrix); d < bestDist {
					bestDist = d
					bestA, bestB = a, b
				}
			}
		}

		left, right := clusters[bestA], clusters[bestB]
		merged := &cluster{
			node: &ClusterNode{
				Children: []*ClusterNode{left.node, right.node},
				Distance: bestDist,
				Size:     left.node.Size + right.node.Size,
			},
			members: append(append([]int{}, left.members...), right.members...),
		}

		// Remove the higher index first so the lower one stays valid, then
		// append the merged cluster at the end. The relative order of the
		// untouched clusters is preserved.
		clusters = append(clusters[:bestB], clusters[bestB+1:]...)
		clusters = append(clusters[:bestA], clusters[bestA+1:]...)
		clusters = append(clusters, merged)
	}

	return clusters[0].node
}

// interClusterDistance is the average-linkage distance between two clusters:
// the mean of 1 − similarity over every cross-pair of original card indexes.
// For two singletons this reduces to a direct matrix lookup.
func interClusterDistance(a, b *cluster, matrix [][]float64) float64 {
	sum := 0.0
	for _, x := range a.members {
		for _, y := range b.members {
			sum += 1.0 - matrix[x][y]
		}
	}
	return sum / float64(len(a.members)*len(b.members))
}
