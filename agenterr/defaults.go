package agenterr

// Agent family identifiers. These double as registry keys for both the
// pattern tables and the output parsers.
const (
	AgentClaude = "claude"
	AgentCodex  = "codex"
	AgentGemini = "gemini"
)

// The built-in tables below are authored against observed CLI output. Pattern
// precision matters as much as coverage: an agent narrating its work says
// things like "I will establish a connection" or "the timeout value is 30",
// so every pattern requires operational phrasing ("connection refused",
// "request timed out"), never a bare keyword.

func claudeTable() Table {
	return Table{
		CategoryAuthExpired: {
			NewPattern(`oauth token (?:has )?expired`, "Your Claude session has expired. Run /login to re-authenticate.", true),
			NewPattern(`authentication[_ ]error`, "Authentication with the Claude API failed. Re-authenticate and retry.", true),
			NewPattern(`invalid api key`, "The configured Anthropic API key was rejected.", true),
			NewPattern(`please run /login`, "Claude CLI is logged out. Run /login to continue.", true),
		},
		CategoryTokenExhaustion: {
			NewPattern(`usage limit (?:reached|exceeded)`, "Your Claude usage limit has been reached. It resets on your billing cycle.", false),
			NewPattern(`credit balance is too low`, "Your Anthropic credit balance is too low to continue.", false),
			NewPattern(`prompt is too long`, "The conversation no longer fits in the model's context window.", false),
		},
		CategoryRateLimited: {
			NewPattern(`rate limit(?:ed|\s+(?:reached|exceeded))`, "Claude is rate-limiting requests. Wait a moment and retry.", true),
			NewPattern(`overloaded[_ ]error`, "The Claude API is overloaded. Retry shortly.", true),
			NewPattern(`\b429\b.*(?:too many|rate)`, "Too many requests to the Claude API. Retry shortly.", true),
		},
		CategoryNetworkError: {
			NewPattern(`connection (?:refused|reset|failed|closed)`, "Could not reach the Claude API. Check your network connection.", true),
			NewPattern(`\b(?:ETIMEDOUT|ECONNREFUSED|ECONNRESET|ENOTFOUND)\b`, "A network error interrupted the Claude session.", true),
			NewPattern(`fetch failed`, "A network request from the Claude CLI failed.", true),
			NewPattern(`request timed out`, "The request to the Claude API timed out.", true),
		},
		CategoryPermissionDenied: {
			NewPattern(`permission denied`, "Claude was denied permission for an operation.", false),
			NewPattern(`\bEACCES\b`, "Claude was denied filesystem access.", false),
		},
		CategoryAgentCrashed: {
			NewPattern(`(?:fatal error|segmentation fault)`, "The Claude CLI crashed.", false),
			NewPattern(`javascript heap out of memory`, "The Claude CLI ran out of memory.", false),
		},
	}
}

func codexTable() Table {
	return Table{
		CategoryAuthExpired: {
			NewPattern(`\b401\b.*unauthorized`, "Your Codex credentials were rejected. Run codex login.", true),
			NewPattern(`token (?:has )?expired`, "Your Codex auth token has expired. Run codex login.", true),
			NewPattern(`(?:run|try) codex login`, "Codex CLI is logged out. Run codex login to continue.", true),
		},
		CategoryTokenExhaustion: {
			NewPattern(`insufficient[_ ]quota`, "Your OpenAI quota is exhausted.", false),
			NewPattern(`quota exceeded`, "Your OpenAI quota is exhausted.", false),
			NewPattern(`billing hard limit`, "Your OpenAI billing limit has been reached.", false),
		},
		CategoryRateLimited: {
			NewPattern(`\b429\b`, "Codex is being rate-limited. Wait a moment and retry.", true),
			NewPattern(`rate limit (?:reached|exceeded)`, "Codex is being rate-limited. Wait a moment and retry.", true),
		},
		CategoryNetworkError: {
			NewPattern(`stream (?:disconnected|error) before completion`, "The Codex response stream was interrupted.", true),
			NewPattern(`connection (?:refused|reset|failed)`, "Could not reach the OpenAI API. Check your network connection.", true),
			NewPattern(`\b(?:502|503|504)\b.*(?:gateway|unavailable|timeout)`, "The OpenAI API is temporarily unavailable.", true),
		},
		CategoryPermissionDenied: {
			NewPattern(`\b403\b.*forbidden`, "Codex was refused access to this resource.", false),
			NewPattern(`permission denied`, "Codex was denied permission for an operation.", false),
		},
		CategoryAgentCrashed: {
			NewPattern(`panicked at`, "The Codex CLI crashed.", false),
			NewPattern(`thread '.*' panicked`, "The Codex CLI crashed.", false),
		},
	}
}

func geminiTable() Table {
	return Table{
		CategoryAuthExpired: {
			NewPattern(`api key (?:expired|not valid|invalid)`, "Your Gemini API key is invalid or expired.", true),
			NewPattern(`\bUNAUTHENTICATED\b`, "Gemini authentication failed. Re-authenticate and retry.", true),
		},
		CategoryTokenExhaustion: {
			NewPattern(`\bRESOURCE_EXHAUSTED\b`, "Your Gemini quota is exhausted.", false),
			NewPattern(`quota (?:exceeded|exhausted)`, "Your Gemini quota is exhausted.", false),
		},
		CategoryRateLimited: {
			NewPattern(`\b429\b`, "Gemini is rate-limiting requests. Wait a moment and retry.", true),
			NewPattern(`rate limit (?:reached|exceeded)`, "Gemini is rate-limiting requests. Wait a moment and retry.", true),
		},
		CategoryNetworkError: {
			NewPattern(`\bUNAVAILABLE\b`, "The Gemini API is temporarily unreachable.", true),
			NewPattern(`connection (?:refused|reset|failed)`, "Could not reach the Gemini API. Check your network connection.", true),
			NewPattern(`\bECONNREFUSED\b`, "Could not reach the Gemini API. Check your network connection.", true),
		},
		CategoryPermissionDenied: {
			NewPattern(`\bPERMISSION_DENIED\b`, "Gemini was refused access to this resource.", false),
			NewPattern(`permission denied`, "Gemini was denied permission for an operation.", false),
		},
		CategoryAgentCrashed: {
			NewPattern(`(?:fatal error|segmentation fault)`, "The Gemini CLI crashed.", false),
			NewPattern(`unhandled (?:exception|rejection)`, "The Gemini CLI crashed.", false),
		},
	}
}
