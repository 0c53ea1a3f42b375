package models

const (
	// SnippetMaxChars caps a normalized evidence snippet.
	SnippetMaxChars = 500
	// DedupKeyChars is the normalized-claim prefix length used to spot duplicates.
	DedupKeyChars = 200
	// PromptClaimChars caps a claim when rendered into the synthesis prompt.
	PromptClaimChars = 300
)

const (
	FusionSystemPrompt = "You are an expert assistant that must not hallucinate. Use only the provided evidence."
	AnswerSystemPrompt = "You are a helpful assistant that must cite sources and avoid adding new facts."

	FusionPromptHeader = "Synthesize the following evidence into a concise, grounded answer with inline citations:"
	FusionPromptFooter = "Provide a short answer (3-5 sentences) and list the sources by number."

	AnswerPromptHeader = "You are an assistant that must not hallucinate. Answer concisely using only the provided evidence."
	AnswerPromptFooter = "Produce a short answer (3-6 sentences) and attach inline numeric citations like [1], [2]. Then list the referenced sources and their metadata."
)
