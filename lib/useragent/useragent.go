package useragent

import (
	"bikelog/lib/configutil"
	"fmt"
	"math/rand"
)

const Default = "Sir_Bikes_Alot"

// Pools holds the words a user agent is assembled from, verbs and nouns
// are grouped by element.
type Pools struct {
	Elements []string            `json:"elements"`
	Verbs    map[string][]string `json:"verbs"`
	Nouns    map[string][]string `json:"nouns"`
}

func LoadPools(path string) (Pools, error) {
	pools, err := configutil.ReadConfig[Pools](path)
	if err != nil {
		return Pools{}, fmt.Errorf("read user agent pools: %w", err)
	}
	return pools, nil
}

// Generate returns `<verb>-<noun>_<0-3>.<1-17>` for a random element.
func Generate(pools Pools, rnd *rand.Rand) (string, error) {
	if len(pools.Elements) == 0 {
		return "", fmt.Errorf("user agent pools have no elements")
	}
	element := pools.Elements[rnd.Intn(len(pools.Elements))]

	verbs := pools.Verbs[element]
	nouns := pools.Nouns[element]
	if len(verbs) == 0 || len(nouns) == 0 {
		return "", fmt.Errorf("user agent element %q needs at least one verb and noun", element)
	}

	return fmt.Sprintf(
		"%s-%s_%d.%d",
		verbs[rnd.Intn(len(verbs))],
		nouns[rnd.Intn(len(nouns))],
		rnd.Intn(4),
		1+rnd.Intn(17),
	), nil
}
