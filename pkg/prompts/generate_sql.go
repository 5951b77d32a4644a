// Package prompts builds the LLM prompts used by the engine.
package prompts

import (
	"fmt"
	"strings"
)

// GenerateSQLSystemMessage is the system message for SQL generation.
// It constrains the model to exactly one statement with no narrative text.
// The generator still strips fences and trailing prose from the response.
func GenerateSQLSystemMessage(dialect string) string {
	var b strings.Builder

	b.WriteString("You are a SQL expert. Given a database schema and a user question, ")
	fmt.Fprintf(&b, "generate a single, syntactically correct %s query that answers the question.\n\n", dialect)
	b.WriteString("Rules:\n")
	b.WriteString("1. Only use tables and columns that exist in the schema\n")
	fmt.Fprintf(&b, "2. Use proper %s syntax\n", dialect)
	b.WriteString("3. Return only the SQL query, no explanations and no markdown\n")
	b.WriteString("4. Use appropriate JOINs when needed\n")
	b.WriteString("5. Handle aggregations properly\n")
	b.WriteString("6. Emit exactly one statement\n")

	return b.String()
}

// BuildGenerateSQLPrompt creates the user prompt grounding the question in
// the schema description.
func BuildGenerateSQLPrompt(question, schemaContext string) string {
	var b strings.Builder

	b.WriteString("## Database Schema\n\n")
	b.WriteString(schemaContext)
	b.WriteString("\n\n## Question\n\n")
	b.WriteString(question)
	b.WriteString("\n")

	return b.String()
}
