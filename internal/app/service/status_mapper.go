package service

import (
	"math/bits"
	"sort"
	"strings"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// RuleWildcard matches any value of an input in a status mapping rule.
const RuleWildcard = "_"

// StatusMappingRule maps a "{context}-{status}-{input}-...-" prefix to a
// challenge status name.
type StatusMappingRule struct {
	Prefix string
	Output string
}

// RuleTable is the ordered set of status mapping rules for one context.
// Rules keep the order their flags were enabled in.
type RuleTable struct {
	context string
	inputs  int
	rules   []StatusMappingRule
}

// CompileRuleTable extracts the rules for context from the enabled flags.
// A rule flag has the form "{context}-{status}-{input_1}-...-{input_n}-{output}".
func CompileRuleTable(context string, inputs int, features model.FeatureSet) RuleTable {
	table := RuleTable{context: context, inputs: inputs}
	head := strings.ToLower(context) + "-"
	for _, flag := range features.Flags() {
		if !strings.HasPrefix(strings.ToLower(flag), head) {
			continue
		}
		parts := strings.SplitN(flag, "-", inputs+3)
		if len(parts) != inputs+3 || parts[inputs+2] == "" {
			continue
		}
		table.rules = append(table.rules, StatusMappingRule{
			Prefix: strings.Join(parts[:inputs+2], "-") + "-",
			Output: parts[inputs+2],
		})
	}
	return table
}

func (t RuleTable) Context() string            { return t.context }
func (t RuleTable) Rules() []StatusMappingRule { return append([]StatusMappingRule(nil), t.rules...) }
func (t RuleTable) IsEmpty() bool              { return len(t.rules) == 0 }

// Candidates lists the prefixes tried for a status, most specific first.
// Among candidates with the same number of wildcards, trailing inputs are
// wildcarded before leading ones.
func (t RuleTable) Candidates(status string, inputs ...string) []string {
	n := len(inputs)
	masks := make([]int, 1<<n)
	for i := range masks {
		masks[i] = i
	}
	sort.SliceStable(masks, func(a, b int) bool {
		return bits.OnesCount(uint(masks[a])) < bits.OnesCount(uint(masks[b]))
	})

	out := make([]string, 0, len(masks))
	for _, mask := range masks {
		var b strings.Builder
		b.WriteString(t.context)
		b.WriteByte('-')
		b.WriteString(status)
		b.WriteByte('-')
		for j, in := range inputs {
			// bit 0 addresses the last input
			if mask&(1<<(n-1-j)) != 0 {
				b.WriteString(RuleWildcard)
			} else {
				b.WriteString(in)
			}
			b.WriteByte('-')
		}
		out = append(out, b.String())
	}
	return out
}

// Lookup returns the raw output of the most specific matching rule.
func (t RuleTable) Lookup(status string, inputs ...string) (string, bool) {
	if len(t.rules) == 0 || len(inputs) != t.inputs {
		return "", false
	}
	for _, candidate := range t.Candidates(status, inputs...) {
		for _, rule := range t.rules {
			if strings.EqualFold(rule.Prefix, candidate) {
				return rule.Output, true
			}
		}
	}
	return "", false
}

// Resolve returns the mapped challenge status. It reports false when no
// rule matches or the output is not a known status.
func (t RuleTable) Resolve(status string, inputs ...string) (model.ChallengeStatus, bool) {
	out, ok := t.Lookup(status, inputs...)
	if !ok {
		return "", false
	}
	return model.ParseChallengeStatus(out)
}

// StatusMapper turns protocol outcomes into challenge statuses using the
// rule tables compiled from a session's frozen feature set.
type StatusMapper struct {
	features       model.FeatureSet
	authentication RuleTable
	completion     RuleTable
}

// NewStatusMapper compiles the authentication and completion rule tables.
func NewStatusMapper(features model.FeatureSet) *StatusMapper {
	return &StatusMapper{
		features:       features,
		authentication: CompileRuleTable(model.MappingContextAuthentication, 1, features),
		completion:     CompileRuleTable(model.MappingContextCompletion, 2, features),
	}
}

// BypassMOTO reports whether MOTO purchases skip the interactive challenge.
func BypassMOTO(isMOTO bool, features model.FeatureSet) bool {
	return isMOTO && !features.Has(model.FlagEnableChallengesForMOTO)
}

// MapAuthentication maps an authenticate transStatus.
func (m *StatusMapper) MapAuthentication(status model.TransactionStatus, reason string, isMOTO bool) model.ChallengeStatus {
	bypass := BypassMOTO(isMOTO, m.features)

	mapped, ok := m.authentication.Resolve(status.String(), reason)
	if !ok {
		switch status {
		case model.TransactionStatusC:
			mapped = model.ChallengeStatusUnknown
		case model.TransactionStatusR:
			mapped = model.ChallengeStatusFailed
		default:
			if bypass {
				mapped = model.ChallengeStatusByPassed
			} else {
				mapped = model.ChallengeStatusSucceeded
			}
		}
	}

	if status == model.TransactionStatusFR {
		mapped = model.ChallengeStatusFailed
	}
	return mapped
}

// MatchCompletion resolves a completion through the configured rules only.
func (m *StatusMapper) MatchCompletion(result *model.CompletionResult) (model.ChallengeStatus, bool) {
	return m.completion.Resolve(result.TransStatus.String(), result.TransStatusReason, result.ChallengeCancelIndicator)
}

// MapCompletion maps the result of a 3DS2 challenge completion.
func (m *StatusMapper) MapCompletion(result *model.CompletionResult) model.ChallengeStatus {
	if mapped, ok := m.MatchCompletion(result); ok {
		return mapped
	}

	switch result.TransStatus {
	case model.TransactionStatusFR, model.TransactionStatusR:
		return model.ChallengeStatusFailed
	case model.TransactionStatusN:
		return notAuthenticatedOutcome(result)
	default:
		return model.ChallengeStatusSucceeded
	}
}

// MapThreeDSOneAuthentication maps a 3DS1 authenticate transStatus.
func MapThreeDSOneAuthentication(status model.TransactionStatus) model.ChallengeStatus {
	switch status {
	case model.TransactionStatusC:
		return model.ChallengeStatusUnknown
	case model.TransactionStatusU, model.TransactionStatusN:
		return model.ChallengeStatusFailed
	default:
		return model.ChallengeStatusSucceeded
	}
}

// MapThreeDSOneCompletion maps a 3DS1 completion. A rejection that the
// safety net substituted is reported as an internal error.
func MapThreeDSOneCompletion(result *model.CompletionResult, fromSafetyNet bool) model.ChallengeStatus {
	switch result.TransStatus {
	case model.TransactionStatusU:
		return model.ChallengeStatusFailed
	case model.TransactionStatusR:
		if fromSafetyNet {
			return model.ChallengeStatusInternalServerError
		}
		return model.ChallengeStatusFailed
	case model.TransactionStatusN:
		return notAuthenticatedOutcome(result)
	default:
		return model.ChallengeStatusSucceeded
	}
}

// notAuthenticatedOutcome resolves an N completion. The cancel indicator
// wins over the reason code whenever one was sent.
func notAuthenticatedOutcome(result *model.CompletionResult) model.ChallengeStatus {
	if strings.TrimSpace(result.ChallengeCancelIndicator) != "" {
		indicator, ok := model.ParseCancelIndicator(result.ChallengeCancelIndicator)
		switch {
		case ok && indicator.IsTimeout():
			return model.ChallengeStatusTimedOut
		case ok && indicator.IsCancellation():
			return model.ChallengeStatusCancelled
		}
		return model.ChallengeStatusSucceeded
	}
	if strings.EqualFold(result.TransStatusReason, model.TransactionStatusReasonIssuerTimeout) {
		return model.ChallengeStatusTimedOut
	}
	return model.ChallengeStatusSucceeded
}
