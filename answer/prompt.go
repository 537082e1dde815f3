package answer

import (
	"fmt"
	"strings"

	"github.com/dbask/dbask/llm"
)

const answerSystemPrompt = `Answer the user's question directly and reply with nothing else.
If a figure in the answer comes from a calculation, show the calculation step by step.
Check every statement that compares the size of values before giving it.`

func answerRequest(in Input, rendered string) llm.Request {
	var b strings.Builder
	b.WriteString("Answer the user's question based on the result of the database query.\n")
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Queried table: %s\n", in.Table)
	fmt.Fprintf(&b, "Query result:\n%s\n\n", rendered)
	fmt.Fprintf(&b, "User question: %s", in.Question)

	return llm.Request{
		Prompt:       b.String(),
		SystemPrompt: answerSystemPrompt,
		Info:         in.SamplesContext,
	}
}

func conclusionRequest(question, full string) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "For the user question: %s\n", question)
	b.WriteString("extract the conclusion and reply with it as plain text.\n")
	b.WriteString("Do not rephrase.\n")
	b.WriteString("Do not reply with anything else.\n")
	b.WriteString("Do not change any numeric result.\n")
	b.WriteString("Do not leave out values or turn them into words.\n")
	b.WriteString("---\n")
	b.WriteString("When extracting:\n")
	b.WriteString("1. Leave out the calculation steps.\n")
	b.WriteString("2. Keep the calculated results.\n")

	return llm.Request{
		Prompt:       "Extract the conclusion from the answer below.",
		SystemPrompt: b.String(),
		Info:         full,
	}
}
