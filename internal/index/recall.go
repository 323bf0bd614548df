package index

// Recall returns the fraction of exact results whose ordinal also appears in approx.
// An empty exact list has recall 1.
func Recall(approx, exact []Result) float64 {
	if len(exact) == 0 {
		return 1
	}
	seen := make(map[int]struct{}, len(approx))
	for _, r := range approx {
		seen[r.Ordinal] = struct{}{}
	}
	hits := 0
	for _, r := range exact {
		if _, ok := seen[r.Ordinal]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(exact))
}
