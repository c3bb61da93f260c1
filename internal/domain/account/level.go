package account

// XPForLevel is the XP needed to go from level n to n+1.
func XPForLevel(n int) int64 {
	m := int64(n)
	return 5*m*m + 50*m + 100
}

// TotalXPForLevel is the cumulative XP needed to reach level n from 0.
func TotalXPForLevel(n int) int64 {
	var total int64
	for i := 0; i < n; i++ {
		total += XPForLevel(i)
	}
	return total
}

// LevelFor derives the level from total XP. It is monotonic in xp.
func LevelFor(xp int64) int {
	level := 0
	for xp >= XPForLevel(level) {
		xp -= XPForLevel(level)
		level++
	}
	return level
}

// LevelProgress returns XP earned into the current level and the XP the
// level requires.
func LevelProgress(xp int64) (into, need int64) {
	level := LevelFor(xp)
	return xp - TotalXPForLevel(level), XPForLevel(level)
}
