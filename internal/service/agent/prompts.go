package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// buildDecisionPrompt lists the tool registry and instructs the model to
// answer with strict JSON: either a tool call or a direct answer.
func buildDecisionPrompt(tools []Tool) string {
	var b strings.Builder
	for _, t := range tools {
		b.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
		names := make([]string, 0, len(t.Args))
		for name := range t.Args {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("    %s: %s\n", name, t.Args[name]))
		}
	}

	return "You are a travel assistant that can call a set of tools (flight, hotel and map API functions).\n" +
		"Available tools:\n" +
		b.String() + "\n" +
		"You MUST decide if you need to call a tool.\n" +
		"If you need a tool, respond ONLY with a JSON object of the form:\n" +
		"{\n" +
		"  \"tool\": \"<tool_name>\",\n" +
		"  \"args\": { ... }\n" +
		"}\n" +
		"where <tool_name> is one of the tools above, and args contains only simple JSON types.\n" +
		"If you can answer directly without tools (e.g., conceptual explanation), respond ONLY with:\n" +
		"{ \"answer\": \"<your answer text>\" }"
}

// buildExplainPrompt asks the model to turn a raw tool result into natural
// language for the traveler.
func buildExplainPrompt(userMessage string, tool Tool, args map[string]any, result any) string {
	argsJSON, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		argsJSON = []byte("{}")
	}
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		resultJSON = []byte(fmt.Sprintf("%v", result))
	}

	return "A tool has been called on behalf of the user.\n\n" +
		fmt.Sprintf("User message:\n%s\n\n", userMessage) +
		fmt.Sprintf("Tool used: %s\n", tool.Name) +
		fmt.Sprintf("Tool description: %s\n", tool.Description) +
		fmt.Sprintf("Arguments: %s\n\n", argsJSON) +
		fmt.Sprintf("Raw tool result (JSON):\n%s\n\n", resultJSON) +
		"Now explain the result to the user in clear natural language. " +
		"Summarize key details of the flight offers, hotel availability, places, order status, or payment if applicable. " +
		"Do not show the raw JSON, just a human-readable explanation."
}

const explainSystemPrompt = "You are a helpful travel booking assistant."
