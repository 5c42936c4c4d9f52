package profile

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// suffixSpace bounds the random disambiguation suffix: [0, suffixSpace).
const suffixSpace = 10000

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	slugIllegal   = regexp.MustCompile(`[^a-z0-9_]`)
)

// Links is everything derived for a new student record.
type Links struct {
	Slug         string
	PublicLink   string
	PrivateLink  string
	EditPassword string
}

// Generator derives links from display names.
//
// The zero value is not usable; call NewGenerator.
type Generator struct {
	intN func(n int) int
}

// NewGenerator returns a Generator backed by math/rand/v2.
func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// NewGeneratorWithSource lets tests pin the random suffix.
func NewGeneratorWithSource(intN func(n int) int) *Generator {
	return &Generator{intN: intN}
}

// Slugify lower-cases name, collapses whitespace runs to "_" and drops
// everything outside [a-z0-9_]. It does not add the random suffix.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "_")
	return slugIllegal.ReplaceAllString(s, "")
}

// Generate builds the slug, the public and private links, and the initial
// edit secret for a student called name.
//
// Uniqueness is not checked here. Two names can land on the same slug; the
// store's unique index on public_link rejects the second insert.
func (g *Generator) Generate(name string) Links {
	slug := Slugify(name) + "_" + strconv.Itoa(g.intN(suffixSpace))
	public := PathPrefix + slug
	return Links{
		Slug:         slug,
		PublicLink:   public,
		PrivateLink:  public + EditSuffix,
		EditPassword: DefaultSecret(EditSecret),
	}
}
