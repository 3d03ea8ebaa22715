package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Consecutive guards with the same result read better merged.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; merge the conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; merge the conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// A request waits on its providers, never on a timer: failover moves on
	// to the next provider instead of retrying.
	m.Match(`time.Sleep($_)`).
		Where(m.File().PkgPath.Matches(`/internal/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`no sleeps in request code; fail over to the next provider instead`)

	// Only the composition root may start a fresh context; everything below
	// it carries the caller's.
	m.Match(`context.Background()`, `context.TODO()`).
		Where(m.File().PkgPath.Matches(`/internal/(api|domain|infra)/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`propagate the caller's context instead of starting a new one`)
}
