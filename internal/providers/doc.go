// Package providers implements the Completer interface for each supported
// oracle backend.
//
// Supported providers: a generic chat-completions endpoint ("completions"),
// OpenAI through the go-openai SDK, and Ollama / LM Studio for local models.
//
// All providers share a common retry helper with exponential back-off on rate
// limits and server errors. HTTP clients are plain fields so that tests can
// point calls at local httptest servers without making live API requests.
//
// Use [New] to obtain a Completer from [Settings]. Wrap it with [WithLimit]
// to bound the request rate.
package providers
