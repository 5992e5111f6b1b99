package factories

import (
	"math/rand"
	"strings"

	"github.com/jaswdr/faker"
)

// source bundles the seeded random streams a factory draws from. Factories are not safe for
// concurrent use.
type source struct {
	fake faker.Faker
	rng  *rand.Rand
}

func newSource(seed int64) source {
	return source{
		fake: faker.NewWithSeed(rand.NewSource(seed)),
		rng:  rand.New(rand.NewSource(seed + 1)),
	}
}

// pick returns between lo and hi distinct elements of from, in draw order.
func (s source) pick(from []string, lo, hi int) []string {
	if len(from) == 0 {
		return []string{}
	}
	hi = min(hi, len(from))
	lo = min(lo, hi)
	n := lo
	if hi > lo {
		n += s.rng.Intn(hi - lo + 1)
	}
	out := make([]string, 0, n)
	for _, i := range s.rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}

func slugify(name string) string {
	base := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, base)
}
