package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// broker holds rules specific to this repository's provider layer.
func broker(m dsl.Matcher) {
	// Provider calls must go through llm's transport (timeout, body cap).
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`use the llm transport or an explicit *http.Client with a timeout`)

	// Credentials never reach logs or error text.
	m.Match(
		`$l.WithField($_, $p.Credential)`,
		`$l.WithField($_, $p.credential)`,
		`fmt.Errorf($_, $*_, $p.Credential, $*_)`,
	).
		Report(`credential value passed to a log field or error message`)

	// Wrapped errors (fmt.Errorf %w) defeat a bare type assertion.
	m.Match(`$x.(*$t)`).
		Where(m["x"].Type.Is(`error`)).
		Report(`use errors.As instead of a type assertion on error`)

	// Library code logs through logrus, never stdout.
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report(`use the logrus logger instead of printing to stdout`)
}
