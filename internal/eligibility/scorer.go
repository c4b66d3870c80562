package eligibility

import (
	"fmt"
	"sort"
	"strings"

	"govnav/internal/catalog"
	id "govnav/pkg/domain"
)

// Score evaluates every requirement of a service against the profile and
// produces the verdict, score, and explanation.
//
// Any unmatched mandatory requirement makes the verdict ineligible; the score
// then reflects the fraction of mandatory requirements matched, capped at 99
// so a failing service can never look like a perfect fit. When all mandatory
// requirements match, the verdict is eligible and the score is the fraction of
// optional requirements matched (100 when there are none). Optional
// requirements with SkipIfUnknown and no profile value are excluded from
// scoring entirely.
func Score(svc *catalog.ServiceDefinition, profile ProfileSnapshot) EligibilityResult {
	result := EligibilityResult{
		ServiceID: svc.ID,
		Matched:   []id.RequirementID{},
		Missing:   []id.RequirementID{},
	}

	var mandatoryTotal, mandatoryMatched int
	var optionalTotal, optionalMatched int

	for _, req := range svc.Requirements {
		if req.SkipIfUnknown && !req.Mandatory {
			if _, present := profile.Field(req.Condition.Field); !present {
				continue
			}
		}

		matched := EvaluateCondition(req.Condition, profile)
		if req.Mandatory {
			mandatoryTotal++
			if matched {
				mandatoryMatched++
			}
		} else {
			optionalTotal++
			if matched {
				optionalMatched++
			}
		}
		if matched {
			result.Matched = append(result.Matched, req.ID)
		} else {
			result.Missing = append(result.Missing, req.ID)
		}
	}

	if mandatoryMatched < mandatoryTotal {
		result.Verdict = VerdictIneligible
		result.Score = clampScore(mandatoryMatched*100/mandatoryTotal, 99)
	} else {
		result.Verdict = VerdictEligible
		if optionalTotal == 0 {
			result.Score = 100
		} else {
			result.Score = clampScore(optionalMatched*100/optionalTotal, 100)
		}
	}

	result.Explanation = explain(result, mandatoryMatched, mandatoryTotal, optionalMatched, optionalTotal)
	return result
}

func clampScore(score, max int) int {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}

// explain builds the human-readable explanation deterministically from the
// matched/missing counts and lists, so identical inputs always produce
// identical text.
func explain(res EligibilityResult, mandMatched, mandTotal, optMatched, optTotal int) string {
	if res.Verdict == VerdictIneligible {
		return fmt.Sprintf("ineligible: %d of %d mandatory requirements met; missing: %s",
			mandMatched, mandTotal, joinRequirementIDs(res.Missing))
	}
	if optTotal == 0 {
		return fmt.Sprintf("eligible: all %d mandatory requirements met", mandTotal)
	}
	if optMatched == optTotal {
		return fmt.Sprintf("eligible: all %d mandatory and all %d optional requirements met", mandTotal, optTotal)
	}
	return fmt.Sprintf("eligible: all %d mandatory requirements met, %d of %d optional; unmet: %s",
		mandTotal, optMatched, optTotal, joinRequirementIDs(res.Missing))
}

func joinRequirementIDs(ids []id.RequirementID) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, r := range ids {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// Rank orders results by score descending. The input arrives in catalog
// insertion order and the sort is stable, so ties keep that order rather than
// falling back to identifier comparison.
func Rank(results []EligibilityResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
