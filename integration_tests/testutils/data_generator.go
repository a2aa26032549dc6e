package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"

	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

// TestDataGenerator produces reproducible impact fixtures.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed so a failing run can be replayed.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}

// UserID returns a stable-looking external user id.
func (g *TestDataGenerator) UserID() string {
	return "user-" + g.faker.UUID()
}

// DisplayName returns a plausible participant name.
func (g *TestDataGenerator) DisplayName() string {
	return g.faker.Name()
}

// ActivityInput returns a valid submission with a random type and a quantity
// in [1, maxQuantity].
func (g *TestDataGenerator) ActivityInput(maxQuantity int) impactdomain.ActivityInput {
	types := impactdomain.ActivityTypes
	return impactdomain.ActivityInput{
		Type:     types[g.faker.Number(0, len(types)-1)],
		Quantity: g.faker.Number(1, maxQuantity),
		Location: g.faker.City(),
	}
}

// ActivityInputs returns count submissions, see ActivityInput.
func (g *TestDataGenerator) ActivityInputs(count, maxQuantity int) []impactdomain.ActivityInput {
	inputs := make([]impactdomain.ActivityInput, count)
	for i := range inputs {
		inputs[i] = g.ActivityInput(maxQuantity)
	}
	return inputs
}
