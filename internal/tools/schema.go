// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
)

// Tool names exposed to the conversational agent.
const (
	ToolGetTrials      = "get_trials"
	ToolSetMemory      = "set_memory"
	ToolGenerateReport = "generate_report"
)

type toolDef struct {
	name        string
	description string
	schema      string
}

var toolDefs = []toolDef{
	{
		name: ToolGetTrials,
		description: "Search ClinicalTrials.gov for studies. Arguments are passed through as " +
			"query parameters of the v2 studies endpoint. Call again with refined arguments " +
			"to narrow the results; each call replaces the previous result set.",
		schema: `{
  "type": "object",
  "properties": {
    "query.cond": {"type": "string", "description": "Condition or disease, e.g. \"type 2 diabetes\"."},
    "query.term": {"type": "string", "description": "Other free-text terms."},
    "query.intr": {"type": "string", "description": "Intervention or treatment of interest."},
    "query.locn": {"type": "string", "description": "Location: city, state or country."},
    "filter.overallStatus": {
      "type": "array",
      "items": {"type": "string", "enum": ["RECRUITING", "NOT_YET_RECRUITING", "ENROLLING_BY_INVITATION", "ACTIVE_NOT_RECRUITING", "COMPLETED", "SUSPENDED", "TERMINATED", "WITHDRAWN"]},
      "description": "Restrict to these overall statuses."
    },
    "filter.advanced": {"type": "string", "description": "Essie expression, e.g. AREA[MinimumAge]RANGE[MIN, 16 years]."},
    "sort": {"type": "array", "items": {"type": "string"}, "description": "Sort fields, e.g. [\"StartDate:desc\"]."},
    "countTotal": {"type": "boolean", "description": "Ask for the total match count (first page only)."},
    "pageToken": {"type": "string", "description": "nextPageToken from a previous call to fetch the following page."}
  },
  "additionalProperties": {
    "type": ["string", "number", "boolean", "array"],
    "items": {"type": ["string", "number", "boolean"]}
  }
}`,
	},
	{
		name: ToolSetMemory,
		description: "Remember a fact the user disclosed, such as condition, purpose, age, sex, " +
			"location, diagnosis_status, current_treatments, treatment_history or " +
			"interventions_of_interest. Setting a key again overwrites it.",
		schema: `{
  "type": "object",
  "properties": {
    "key": {"type": "string", "minLength": 1, "description": "Lowercase key with underscores."},
    "value": {"type": "string", "description": "The fact, as a short phrase."}
  },
  "required": ["key", "value"],
  "additionalProperties": false
}`,
	},
	{
		name: ToolGenerateReport,
		description: "Produce the final trials report from the latest search results and remembered " +
			"facts. The conversation ends after this call.",
		schema: `{
  "type": "object",
  "properties": {
    "conversationComplete": {"type": "boolean", "description": "Whether the user's questions were fully addressed."},
    "finalNotes": {"type": "string", "description": "Optional notes for the user."}
  },
  "required": ["conversationComplete"],
  "additionalProperties": false
}`,
	},
}

// compileSchemas compiles every tool's argument schema.
func compileSchemas() (map[string]*jsonschema.Schema, error) {
	out := make(map[string]*jsonschema.Schema, len(toolDefs))
	for _, def := range toolDefs {
		s, err := jsonschema.CompileString(def.name+".schema.json", def.schema)
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", def.name, err)
		}
		out[def.name] = s
	}
	return out, nil
}

// validateArgs checks raw arguments against schema. Empty input is
// treated as an empty object.
func validateArgs(schema *jsonschema.Schema, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return schema.Validate(doc)
}

// Definitions returns the tools as OpenAI function definitions, ready to
// register with a realtime or chat-completions session.
func Definitions() []openai.Tool {
	defs := make([]openai.Tool, len(toolDefs))
	for i, def := range toolDefs {
		defs[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.name,
				Description: def.description,
				Parameters:  json.RawMessage(def.schema),
			},
		}
	}
	return defs
}

// Definitions returns the tool definitions the dispatcher serves.
func (d *Dispatcher) Definitions() []openai.Tool { return Definitions() }
