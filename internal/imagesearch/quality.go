package imagesearch

const maxQualityScore = 10

// EstimateQuality scores an image from its resolution, its fit for a landscape
// feed layout and a provider popularity signal (likes or downloads).
func EstimateQuality(width, height, popularity int) int {
	score := 0

	pixels := width * height
	switch {
	case pixels >= 2_000_000:
		score += 3
	case pixels >= 1_000_000:
		score += 2
	case pixels >= 500_000:
		score++
	}

	if height > 0 {
		ratio := float64(width) / float64(height)
		switch {
		case ratio >= 1.2 && ratio <= 1.9:
			score += 2
		case ratio >= 1.0 && ratio <= 2.5:
			score++
		}
	}

	switch {
	case popularity > 1000:
		score += 2
	case popularity > 100:
		score++
	}

	if score > maxQualityScore {
		score = maxQualityScore
	}
	return score
}
