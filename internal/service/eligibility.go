package service

import (
	"time"

	"nibog/internal/models"
)

// AgeInMonths returns the child's age in whole months at the given date.
// The month only counts once the day-of-month has been reached.
func AgeInMonths(dob, at time.Time) int {
	months := (at.Year()-dob.Year())*12 + int(at.Month()) - int(dob.Month())
	if at.Day() < dob.Day() {
		months--
	}
	return months
}

// EligibleGames filters games by the child's age in months at the event
// date. A child born after the event date is eligible for nothing.
func EligibleGames(dob, eventDate time.Time, games []models.Game) []models.Game {
	age := AgeInMonths(dob, eventDate)
	if age < 0 {
		return nil
	}
	var eligible []models.Game
	for _, g := range games {
		if age >= g.MinAgeMonths && age <= g.MaxAgeMonths {
			eligible = append(eligible, g)
		}
	}
	return eligible
}
