// internal/workers/leads/lead-workflow/scoring.go
package leadworkflow

import (
	"strings"
	"unicode/utf8"

	"econest-automation/internal/models"
)

// Score computes the additive lead score, capped at MaxScore. email must
// already be normalized.
func Score(email, source, company, notes string) int {
	score := BaseScore

	if domain := emailDomain(email); domain != "" {
		for _, marker := range corporateDomainMarkers {
			if strings.Contains(domain, marker) {
				score += CorporateDomainPts
				break
			}
		}
	}

	if warmSources[strings.ToLower(strings.TrimSpace(source))] {
		score += WarmSourcePts
	}

	if strings.TrimSpace(company) != "" {
		score += CompanyPresentPts
	}

	if utf8.RuneCountInString(notes) > DetailedNotesLen {
		score += DetailedNotesPts
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score
}

// RouteFor buckets a score.
func RouteFor(score int) models.Route {
	if score >= HighRouteThreshold {
		return models.RouteHigh
	}
	return models.RouteStandard
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}
