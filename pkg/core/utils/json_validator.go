// Package utils turns loosely formatted LLM replies into JSON or HTML.
package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON attempts to fix common JSON errors from LLM outputs:
// unquoted keys, single quotes, unclosed brackets, trailing commas,
// comments and surrounding markdown fences.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(jsonBytes), nil
}

// SmartParse tries multiple parsing strategies to decode input into schema:
// standard JSON, then the fenced block contents, then JSON repair, then Hjson.
// Repair output that decodes to a bare string is rejected, because the
// repairer quotes free text rather than failing on it.
func SmartParse(input string, schema interface{}) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("SMART_PARSE_FAILED: empty input")
	}

	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	inner := StripCodeFence(input)
	if inner != input {
		if err := json.Unmarshal([]byte(inner), schema); err == nil {
			return inner, nil
		}
	}

	if looksStructured(inner) {
		if repaired, err := RepairJSON(inner); err == nil && looksStructured(repaired) {
			if err := json.Unmarshal([]byte(repaired), schema); err == nil {
				return repaired, nil
			}
		}

		if hjsonResult, err := ParseHJSON(inner); err == nil && looksStructured(hjsonResult) {
			if err := json.Unmarshal([]byte(hjsonResult), schema); err == nil {
				return hjsonResult, nil
			}
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}

// StripCodeFence removes one outer ``` fence (with optional language tag).
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(strings.TrimPrefix(t, "```"), "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 && !strings.ContainsAny(t[:nl], "{[") {
		t = t[nl+1:]
	}
	return strings.TrimSpace(t)
}

// looksStructured reports whether s contains an object or array opener.
func looksStructured(s string) bool {
	return strings.ContainsAny(s, "{[")
}
