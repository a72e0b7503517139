package enforce

import (
	"context"
	"strings"
)

// ConfidenceFloor is the minimum keyword-match confidence accepted
// without consulting the fallback classifier.
const ConfidenceFloor = 0.6

// domainKeywords maps business domains to their trigger phrases.
var domainKeywords = map[string][]string{
	"refund":     {"refund", "return", "money back", "exchange", "receipt", "store credit", "reimburse"},
	"privacy":    {"pii", "personal data", "gdpr", "privacy", "disclose", "data protection", "confidential"},
	"escalation": {"manager", "supervisor", "escalate", "complaint", "appeal", "higher authority"},
	"security":   {"password", "authentication", "breach", "encrypt", "access control", "firewall"},
	"hr":         {"employee", "leave", "payroll", "hiring", "termination", "benefits", "vacation"},
}

// intentKeywords maps user intents to their trigger phrases.
var intentKeywords = map[string][]string{
	"refund_request": {"want refund", "return item", "get my money", "return this", "send back"},
	"policy_inquiry": {"what is the policy", "rules for", "am i allowed", "can i", "is it possible"},
	"complaint":      {"not happy", "unacceptable", "file complaint", "terrible", "disappointed"},
}

// keywordScore scores a query against one keyword list: the fraction of
// the list's phrases found in the query.
func keywordScore(lower string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// classifyKeywords runs the deterministic tier of classification.
func classifyKeywords(query string, bundleDomains []string) Classification {
	lower := strings.ToLower(query)

	c := Classification{Domain: "unknown", Intent: "unknown"}
	var bestDomain, bestIntent float64

	for domain, keywords := range domainKeywords {
		if s := keywordScore(lower, keywords); s > bestDomain || (s == bestDomain && s > 0 && domain < c.Domain) {
			bestDomain = s
			c.Domain = domain
		}
	}

	// A domain the bundle actually covers, named verbatim in the query,
	// beats a dictionary near-miss.
	if bestDomain < ConfidenceFloor {
		for _, bd := range bundleDomains {
			if strings.Contains(lower, bd) {
				c.Domain = bd
				bestDomain = ConfidenceFloor
				break
			}
		}
	}

	for intent, keywords := range intentKeywords {
		if s := keywordScore(lower, keywords); s > bestIntent || (s == bestIntent && s > 0 && intent < c.Intent) {
			bestIntent = s
			c.Intent = intent
		}
	}

	if bestDomain > bestIntent {
		c.Confidence = bestDomain
	} else {
		c.Confidence = bestIntent
	}
	return c
}

// ClassifyQuery classifies a query into (domain, intent, confidence).
//
// The deterministic keyword tier runs first. Below the confidence floor
// the external classifier is consulted; its verdict is adopted only when
// it is more confident than the keyword match. A borderline match whose
// fallback is missing or fails yields a ClassificationError — the
// pipeline escalates rather than guessing a default domain.
func ClassifyQuery(ctx context.Context, query string, bundleDomains []string, fallback Classifier) (Classification, error) {
	c := classifyKeywords(query, bundleDomains)
	if c.Confidence >= ConfidenceFloor {
		return c, nil
	}

	if fallback == nil {
		return c, &ClassificationError{Query: query, Confidence: c.Confidence}
	}

	ext, err := fallback.Classify(ctx, query, bundleDomains)
	if err != nil {
		return c, &ClassificationError{Query: query, Confidence: c.Confidence, Cause: err}
	}
	if ext.Confidence > c.Confidence {
		c = *ext
	}
	if c.Confidence < ConfidenceFloor {
		return c, &ClassificationError{Query: query, Confidence: c.Confidence}
	}
	return c, nil
}
