// Package guardrail classifies queries as safe or unsafe before any
// retrieval work happens. Decisions are re-evaluated on every request and
// never cached: a cached refusal could be dodged by trivial rephrasing,
// and classification is cheap.
package guardrail

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	domguard "github.com/vakil-cloud/lexsearch/internal/domain/guardrail"
	"github.com/vakil-cloud/lexsearch/internal/metrics"
)

// unsafePatterns is the fixed enumerated list of unsafe-intent categories,
// each with the phrases that trigger it. Matching is substring on the
// lowercased query.
var unsafePatterns = []struct {
	reason  domguard.Reason
	phrases []string
}{
	{
		reason: domguard.ReasonCrimeAssistance,
		phrases: []string{
			"how to commit",
			"help me commit",
			"get away with",
			"without getting caught",
			"bribe",
		},
	},
	{
		reason: domguard.ReasonEnforcementEvasion,
		phrases: []string{
			"evade police",
			"avoid arrest",
			"escape custody",
			"flee the country",
		},
	},
	{
		reason: domguard.ReasonEvidenceTampering,
		phrases: []string{
			"hide evidence",
			"destroy evidence",
			"forge document",
			"fake document",
			"tamper with",
		},
	},
	{
		reason: domguard.ReasonDisclaimerCircumvention,
		phrases: []string{
			"ignore your disclaimer",
			"without the disclaimer",
			"pretend you are my lawyer",
			"act as my lawyer",
		},
	},
}

// Gate is the safety classifier. Pure and local; the only way it can
// "fail" is malformed input, handled by the configured fail-open policy.
type Gate struct {
	failOpen bool
	logger   *zap.Logger
}

// New creates a guardrail gate. failOpen controls the policy when
// classification itself fails: true allows the query with a warning,
// false refuses it with ReasonClassifierError.
func New(failOpen bool, logger *zap.Logger) *Gate {
	return &Gate{failOpen: failOpen, logger: logger}
}

// Check classifies the raw query text. It must run before cache lookup and
// retrieval dispatch; a Refuse decision short-circuits both.
func (g *Gate) Check(text string) domguard.Decision {
	if !utf8.ValidString(text) {
		if g.failOpen {
			g.logger.Warn("Guardrail classification failed, failing open",
				zap.String("cause", "invalid utf-8"))
			return domguard.Allow()
		}
		metrics.GuardrailRefusalsTotal.WithLabelValues(string(domguard.ReasonClassifierError)).Inc()
		return domguard.Refuse(domguard.ReasonClassifierError)
	}

	lowered := strings.ToLower(text)
	for _, cat := range unsafePatterns {
		for _, phrase := range cat.phrases {
			if strings.Contains(lowered, phrase) {
				metrics.GuardrailRefusalsTotal.WithLabelValues(string(cat.reason)).Inc()
				return domguard.Refuse(cat.reason)
			}
		}
	}

	return domguard.Allow()
}
