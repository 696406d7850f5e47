// Package readiness recovers a structured confidence/readiness record from an
// agent response that was asked for structured output but may have answered in
// prose anyway.
//
// Agents are prompted to reply with {"confidence":0-100,"ready":bool,
// "message":"..."}. In practice they wrap the object in markdown fences, bury
// it mid-paragraph, or ignore the instruction entirely, so extraction walks a
// ladder of strategies from strict to desperate and then normalizes whatever
// it found.
package readiness

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Threshold is the minimum confidence at which an agent may be considered
// ready to proceed.
const Threshold = 80

// fallbackConfidence is assumed when no confidence can be extracted at all.
const fallbackConfidence = 30

// Assessment is the normalized extraction result. Confidence is always an
// integer in [0,100]; Ready is never true below Threshold.
type Assessment struct {
	Message    string `json:"message"`
	Confidence int    `json:"confidence"`
	Ready      bool   `json:"ready"`
}

// wireAssessment accepts the loose shapes agents actually produce (float
// confidence, missing fields).
type wireAssessment struct {
	Message    *string  `json:"message"`
	Confidence *float64 `json:"confidence"`
	Ready      *bool    `json:"ready"`
}

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	anyObject   = regexp.MustCompile(`(?s)\{[^{}]*\}`)

	confidencePhrase = regexp.MustCompile(`(?i)confidence(?:\s+(?:is|of|level))?\s*[:=]?\s*(\d{1,3})`)
	percentPhrase    = regexp.MustCompile(`(?i)(\d{1,3})\s*%\s*confiden(?:t|ce)`)

	affirmative = regexp.MustCompile(`(?i)(?:ready to (?:proceed|create|begin|start)|let'?s proceed|proceed(?:ing)? (?:with|to))`)
	clarifying  = regexp.MustCompile(`(?i)(?:need (?:more|additional)|clarif|\bquestion\b|unclear|uncertain about)`)
)

// Extract parses text into an Assessment. Strategies are attempted in order
// and the first success wins: (1) the whole input is the record, (2) a record
// inside a fenced code block, (3) an object mentioning both required fields
// anywhere in the text, (4) any object at all, (5) a synthesized fallback
// from textual cues. Normalization runs regardless of which strategy
// produced the record.
func Extract(text string) Assessment {
	trimmed := strings.TrimSpace(text)

	if a, ok := decode(trimmed); ok {
		return normalize(a, trimmed)
	}

	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		if a, ok := decode(m[1]); ok {
			return normalize(a, trimmed)
		}
	}

	for _, candidate := range anyObject.FindAllString(trimmed, -1) {
		if strings.Contains(candidate, "confidence") && strings.Contains(candidate, "ready") {
			if a, ok := decode(candidate); ok {
				return normalize(a, trimmed)
			}
		}
	}

	for _, candidate := range anyObject.FindAllString(trimmed, -1) {
		if a, ok := decode(candidate); ok {
			return normalize(a, trimmed)
		}
	}

	return normalize(synthesize(trimmed), trimmed)
}

func decode(s string) (wireAssessment, bool) {
	var a wireAssessment
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return wireAssessment{}, false
	}
	// An object with none of the expected fields is not an assessment.
	if a.Confidence == nil && a.Ready == nil && a.Message == nil {
		return wireAssessment{}, false
	}
	return a, true
}

// synthesize builds an assessment from textual cues when no object could be
// recovered. Confidence comes from "confidence: N" / "N% confident" phrasing
// when present, else a low default. Readiness requires high confidence AND
// affirmative continuation language; clarification-seeking language vetoes
// readiness no matter how confident the text claims to be.
func synthesize(text string) wireAssessment {
	conf := float64(fallbackConfidence)
	if m := confidencePhrase.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			conf = float64(n)
		}
	} else if m := percentPhrase.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			conf = float64(n)
		}
	}

	ready := conf >= Threshold &&
		affirmative.MatchString(text) &&
		!clarifying.MatchString(text)

	return wireAssessment{Confidence: &conf, Ready: &ready}
}

// normalize applies the invariants shared by every strategy: confidence is
// rounded to an integer and clamped to [0,100], and ready is forced false
// below Threshold even when the source said otherwise.
func normalize(a wireAssessment, original string) Assessment {
	out := Assessment{}

	conf := float64(fallbackConfidence)
	if a.Confidence != nil {
		conf = *a.Confidence
	}
	out.Confidence = int(math.Round(conf))
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 100 {
		out.Confidence = 100
	}

	if a.Ready != nil {
		out.Ready = *a.Ready
	}
	if out.Confidence < Threshold {
		out.Ready = false
	}

	if a.Message != nil && *a.Message != "" {
		out.Message = *a.Message
	} else {
		out.Message = original
	}

	return out
}
