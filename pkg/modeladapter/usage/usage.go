// Package usage accumulates token counts reported by completion backends.
package usage

import "sync"

// TokenCount holds input and output token counts for a single completion.
type TokenCount struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Zero reports whether the backend reported no usage at all.
func (tc TokenCount) Zero() bool {
	return tc.InputTokens == 0 && tc.OutputTokens == 0
}

func (tc TokenCount) plus(o TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + o.InputTokens,
		OutputTokens: tc.OutputTokens + o.OutputTokens,
	}
}

// Tracker keeps running totals per model. Only aggregates are retained, so a
// long-lived tracker does not grow with the number of calls.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	count   int
	last    TokenCount
	total   TokenCount
	byModel map[string]TokenCount
}

// Add records the token count of one completion served by model.
func (t *Tracker) Add(model string, tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.byModel == nil {
		t.byModel = make(map[string]TokenCount)
	}

	t.count++
	t.last = tc
	t.total = t.total.plus(tc)
	t.byModel[model] = t.byModel[model].plus(tc)
}

// Last returns the most recent token count.
// The bool is false when the tracker has no entries.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.count > 0
}

// Total returns the aggregate token count across all entries.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// ByModel returns a copy of the aggregate token count per model.
func (t *Tracker) ByModel() map[string]TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]TokenCount, len(t.byModel))
	for k, v := range t.byModel {
		out[k] = v
	}

	return out
}

// Count returns the number of recorded completions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Reset clears all recorded entries.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count = 0
	t.last = TokenCount{}
	t.total = TokenCount{}
	t.byModel = nil
}
