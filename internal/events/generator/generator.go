package generator

import (
	"math/rand"
	"time"

	"ms-eventus/internal/models"
)

// Fixed vocabularies for synthetic filler events.
var (
	Cities = []string{"Ahmedabad", "Mumbai", "Delhi", "Bangalore", "Rajkot", "Porbandar", "Pune", "Udaipur"}

	Categories = []string{"Sports", "Tech", "Music", "Art", "Cultural", "Adventure", "Theatre", "Politics", "GeoPolitics", "Economy"}

	Titles = []string{"Hackathon", "Concert", "Football Match", "Painting Workshop"}
)

const (
	placeholderDescription = "An exciting event you won't want to miss!"
	placeholderLink        = "https://example.com"
)

// DefaultBatchSize is the number of events produced per refresh cycle unless
// configured otherwise.
const DefaultBatchSize = 5

// Generator produces synthetic placeholder events. It has no side effects:
// output is a pure function of the injected random source and clock.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

func New(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd, now: time.Now}
}

// NewWithClock is used by tests that need a fixed "now".
func NewWithClock(rnd *rand.Rand, now func() time.Time) *Generator {
	g := New(rnd)
	g.now = now
	return g
}

// Generate returns count synthetic events dated 1-14 days in the future.
// Expiry is left unset; the lifecycle layer derives the default from the date.
func (g *Generator) Generate(count int) []models.Event {
	if count <= 0 {
		count = DefaultBatchSize
	}
	events := make([]models.Event, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, g.generateOne())
	}
	return events
}

func (g *Generator) generateOne() models.Event {
	day := g.now().AddDate(0, 0, 1+g.rnd.Intn(14))
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	return models.Event{
		Title:            Titles[g.rnd.Intn(len(Titles))],
		Description:      placeholderDescription,
		Date:             date,
		City:             Cities[g.rnd.Intn(len(Cities))],
		Category:         Categories[g.rnd.Intn(len(Categories))],
		RegistrationLink: placeholderLink,
	}
}
