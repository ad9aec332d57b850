// Package idgen generates descriptive BPMN element and diagram IDs:
// "<TypePrefix>_<PascalCaseName>", falling back to a random suffix when no
// name is available or the derived ID collides. Unlike the teacher's
// pkg/rng (which derives a reproducible seed per pipeline stage via
// SHA-256, because dungeon generation must replay identically from a
// seed), element IDs here need only be unique, never reproducible, so
// randomness comes from github.com/google/uuid instead.
package idgen

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// prefixFor maps a BPMN element-type name to its conventional ID prefix,
// matching the abbreviations used by common BPMN modelers (bpmn-js etc.).
var prefixFor = map[string]string{
	"startEvent":              "StartEvent",
	"endEvent":                "EndEvent",
	"intermediateCatchEvent":  "Event",
	"intermediateThrowEvent":  "Event",
	"boundaryEvent":           "BoundaryEvent",
	"task":                    "Activity",
	"userTask":                "Activity",
	"serviceTask":             "Activity",
	"scriptTask":              "Activity",
	"sendTask":                "Activity",
	"receiveTask":             "Activity",
	"manualTask":              "Activity",
	"businessRuleTask":        "Activity",
	"subProcess":              "SubProcess",
	"callActivity":            "CallActivity",
	"exclusiveGateway":        "Gateway",
	"parallelGateway":         "Gateway",
	"inclusiveGateway":        "Gateway",
	"eventBasedGateway":       "Gateway",
	"complexGateway":          "Gateway",
	"pool":                    "Participant",
	"lane":                    "Lane",
	"dataObject":              "DataObject",
	"dataStore":               "DataStore",
	"textAnnotation":          "TextAnnotation",
	"group":                   "Group",
	"sequenceFlow":            "Flow",
	"messageFlow":             "MessageFlow",
	"association":             "Association",
	"dataAssociation":         "DataAssociation",
}

// PrefixFor returns the conventional ID prefix for a BPMN type name
// (e.g. "task" -> "Activity"), or "Element" if the type is unrecognized.
func PrefixFor(typeName string) string {
	if p, ok := prefixFor[typeName]; ok {
		return p
	}
	return "Element"
}

// toPascalCase converts a human-readable name ("Review Application") into
// a PascalCase identifier fragment ("ReviewApplication"), stripping any
// character not safe in an XML ID.
func toPascalCase(name string) string {
	var b strings.Builder
	capNext := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if capNext {
				b.WriteRune(unicode.ToUpper(r))
				capNext = false
			} else {
				b.WriteRune(r)
			}
		default:
			capNext = true
		}
	}
	return b.String()
}

// randomSuffix returns a 7-character lowercase alphanumeric suffix derived
// from a fresh random UUID, giving a short descriptive-ID fallback without
// needing a seeded RNG.
func randomSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToLower(id[:7])
}

// Generate builds a descriptive ID for a new element/edge of the given BPMN
// type name and display name, retrying with a random suffix (then a
// random-suffixed name) until taken reports no collision.
func Generate(typeName, name string, taken func(id string) bool) string {
	prefix := PrefixFor(typeName)
	if pascal := toPascalCase(name); pascal != "" {
		candidate := prefix + "_" + pascal
		if !taken(candidate) {
			return candidate
		}
		candidate = prefix + "_" + randomSuffix() + "_" + pascal
		if !taken(candidate) {
			return candidate
		}
	}
	for {
		candidate := prefix + "_" + randomSuffix()
		if !taken(candidate) {
			return candidate
		}
	}
}
