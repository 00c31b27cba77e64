package analytics

import (
	"math/rand/v2"
	"time"

	"github.com/tgienger/lumina/internal/models"
)

// ActivityDays is the length of the profile activity strip
const ActivityDays = 140

// Day is one cell of the activity strip. Synthetic cells carry filler
// values and do not reflect any real task.
type Day struct {
	Date      time.Time
	Count     int
	Synthetic bool
}

// Filler produces decorative counts for days without real activity.
type Filler struct {
	rng *rand.Rand
}

// NewFiller returns a filler with a fixed seed; equal seeds give equal strips
func NewFiller(seed uint64) *Filler {
	return &Filler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// RandomFiller returns an unseeded filler
func RandomFiller() *Filler {
	return NewFiller(rand.Uint64())
}

// Next returns 0 most of the time and 1-4 with a 20% chance
func (f *Filler) Next() int {
	if f.rng.Float64() >= 0.2 {
		return 0
	}
	return 1 + f.rng.IntN(4)
}

// Activity builds the strip of ActivityDays days ending on now's local date.
// Days with tasks use the real creation count. Other days take a value from
// filler and are flagged Synthetic when that value is non-zero; a nil filler
// leaves them at zero.
func Activity(tasks []models.Task, now time.Time, filler *Filler) []Day {
	counts := make(map[time.Time]int)
	for _, t := range tasks {
		counts[dayOf(t.CreatedAt.In(now.Location()))]++
	}

	today := dayOf(now)
	days := make([]Day, 0, ActivityDays)
	for i := ActivityDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)
		if n := counts[date]; n > 0 {
			days = append(days, Day{Date: date, Count: n})
			continue
		}

		d := Day{Date: date}
		if filler != nil {
			if n := filler.Next(); n > 0 {
				d.Count = n
				d.Synthetic = true
			}
		}
		days = append(days, d)
	}
	return days
}

// Intensity buckets a count into 0..4 for the heat-map palette
func Intensity(count int) int {
	switch {
	case count <= 0:
		return 0
	case count >= 4:
		return 4
	default:
		return count
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
