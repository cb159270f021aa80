package services

// CronbachAlpha estimates internal consistency of a respondent-by-question
// score matrix ([nRespondents][nQuestions]). Variances are population
// variances, so perfectly correlated questions give exactly 1. The result
// is clamped to [0, 1]; fewer than two questions or zero total variance
// yields 0.
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}

	colMeans := make([]float64, k)
	rowTotals := make([]float64, n)
	for i, row := range matrix {
		if len(row) != k {
			return 0
		}
		for j, v := range row {
			colMeans[j] += v
			rowTotals[i] += v
		}
	}
	nf := float64(n)
	for j := range colMeans {
		colMeans[j] /= nf
	}

	var sumColVar float64
	for j := 0; j < k; j++ {
		var ss float64
		for i := 0; i < n; i++ {
			d := matrix[i][j] - colMeans[j]
			ss += d * d
		}
		sumColVar += ss / nf
	}

	totalVar := populationVariance(rowTotals)
	if totalVar == 0 {
		return 0
	}

	kf := float64(k)
	alpha := kf / (kf - 1) * (1 - sumColVar/totalVar)
	switch {
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	}
	return alpha
}

func populationVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}
