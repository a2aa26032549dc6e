package impactdomain

// PointsPerLevel is the width of one level band.
const PointsPerLevel = 500

// LevelInfo is the level band a point total falls into.
type LevelInfo struct {
	Level        int
	Progress     float64 // percent through the current band
	PointsToNext int
}

// LevelFor maps points to a level: floor(points/500)+1.
func LevelFor(points int) LevelInfo {
	if points < 0 {
		points = 0
	}
	level := points/PointsPerLevel + 1
	return LevelInfo{
		Level:        level,
		Progress:     float64(points%PointsPerLevel*100) / PointsPerLevel,
		PointsToNext: level*PointsPerLevel - points,
	}
}
