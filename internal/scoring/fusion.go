package scoring

// Fusion weights. Cosine is on a 0-1 scale, the others on 0-100.
const (
	CosineWeight     = 40.0
	KeywordWeight    = 0.3
	SkillWeight      = 0.2
	ExperienceWeight = 0.1
)

// Fuse combines the four sub-metrics into the overall score, clamped to
// [0, 100].
func Fuse(cosine, keywordMatch, skillOverlap, experienceRelevance float64) float64 {
	// Conversions keep each product rounded so the result is the same on
	// platforms that would otherwise fuse multiply-add.
	score := float64(cosine*CosineWeight) +
		float64(keywordMatch*KeywordWeight) +
		float64(skillOverlap*SkillWeight) +
		float64(experienceRelevance*ExperienceWeight)
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
