package impactdomain

import "testing"

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   LevelInfo
	}{
		{0, LevelInfo{Level: 1, Progress: 0, PointsToNext: 500}},
		{250, LevelInfo{Level: 1, Progress: 50, PointsToNext: 250}},
		{499, LevelInfo{Level: 1, Progress: 99.8, PointsToNext: 1}},
		{500, LevelInfo{Level: 2, Progress: 0, PointsToNext: 500}},
		{2450, LevelInfo{Level: 5, Progress: 90, PointsToNext: 50}},
		{-10, LevelInfo{Level: 1, Progress: 0, PointsToNext: 500}},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.points); got != tt.want {
			t.Errorf("LevelFor(%d) = %+v, want %+v", tt.points, got, tt.want)
		}
	}
}
