package llm

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	tellm "github.com/santiagomed/tellm/sdk"
)

// UsageLogger records a finished completion with its token counts.
type UsageLogger interface {
	Log(prompt, response, model string, promptTokens, completionTokens int) error
}

type nopUsage struct{}

func (nopUsage) Log(string, string, string, int, int) error { return nil }

// TellmUsage ships completions to a tellm collector under one batch id.
type TellmUsage struct {
	client  *tellm.Client
	batchID string
}

func NewTellmUsage(url, batchID string) *TellmUsage {
	return &TellmUsage{client: tellm.NewClient(url), batchID: batchID}
}

func (t *TellmUsage) Log(prompt, response, model string, promptTokens, completionTokens int) error {
	return t.client.Log(t.batchID, prompt, response, model, promptTokens, completionTokens)
}

// NewBatchID returns a 24 hex digit id: a 4 byte unix timestamp followed by
// 8 random bytes.
func NewBatchID() string {
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)

	id := make([]byte, 12)
	binary.BigEndian.PutUint32(id[:4], uint32(time.Now().Unix()))
	copy(id[4:], randomBytes)
	return hex.EncodeToString(id)
}

// EnsureBatchID returns s when it is a valid batch id, otherwise a new one.
func EnsureBatchID(s string) string {
	if _, err := hex.DecodeString(s); err != nil || len(s) != 24 {
		return NewBatchID()
	}
	return s
}
