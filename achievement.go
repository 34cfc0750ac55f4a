package main

// AchievementDef is a one-time unlock. earned sees the account's stats with
// the finished run already folded in.
type AchievementDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	earned func(stats *StatsRow, run RunTally) bool
}

var Achievements = []AchievementDef{
	{"first_boss", "Giant Slayer", "Defeat a boss",
		func(s *StatsRow, _ RunTally) bool { return s.Bosses >= 1 }},
	{"dungeon_diver", "Dungeon Diver", "Step through the dungeon portal",
		func(_ *StatsRow, r RunTally) bool { return r.Dungeon }},
	{"elder_walker", "Elder Walker", "Reach the elder dimension",
		func(_ *StatsRow, r RunTally) bool { return r.Elder }},
	{"mega_witness", "Witness", "See Gary turn mega and live to tell",
		func(_ *StatsRow, r RunTally) bool { return r.Mega }},
	{"centurion", "Centurion", "Reach 100 total kills",
		func(s *StatsRow, _ RunTally) bool { return s.Kills >= 100 }},
	{"victor", "Victor", "Defeat Madackeda",
		func(_ *StatsRow, r RunTally) bool { return r.Victory }},
	{"flawless_boss", "Untouchable", "Defeat a boss without losing a life during the fight",
		func(_ *StatsRow, r RunTally) bool { return r.FlawlessBoss }},
}

// CheckAchievements unlocks what run earned and returns the newly unlocked
// ones. Anonymous runs earn nothing.
func CheckAchievements(db *DB, playerID int64, run RunTally) []AchievementDef {
	if db == nil || playerID <= 0 {
		return nil
	}
	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}
	owned, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	skip := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		skip[id] = struct{}{}
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if _, ok := skip[def.ID]; ok || !def.earned(stats, run) {
			continue
		}
		// UnlockAchievement reports false when a concurrent run got there first
		if fresh, err := db.UnlockAchievement(playerID, def.ID); err == nil && fresh {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}
