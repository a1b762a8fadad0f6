package catalog

type Exercise struct {
	ID           int    `json:"-"`
	ExerciseName string `json:"exercise_name"`
	MuscleGroup  string `json:"muscle_group"`
}

// MaxSearchResults caps the number of exercises returned by a substring search.
const MaxSearchResults = 5
