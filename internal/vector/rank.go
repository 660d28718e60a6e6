package vector

import "sort"

// Hit is a ranked vector: its position in the input slice and its similarity to the query.
type Hit struct {
	Index int
	Score float64
}

// TopK scores every vector against query by cosine similarity and returns the k best,
// highest first. Equal scores keep their input order, so ranking an unchanged store
// with the same query always yields the same sequence.
func TopK(query []float32, vectors [][]float32, k int) []Hit {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}
	qn := L2Norm(query)
	hits := make([]Hit, len(vectors))
	for i, vec := range vectors {
		score := 0.0
		if qn != 0 && len(vec) == len(query) {
			if vn := L2Norm(vec); vn != 0 {
				score = InnerProduct(query, vec) / (qn * vn)
			}
		}
		hits[i] = Hit{Index: i, Score: score}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}
