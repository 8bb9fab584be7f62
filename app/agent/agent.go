// Package agent turns retrieved context into an answer through an external
// completion endpoint. Failures here never block retrieval itself.
package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"docindex/types"
)

type GenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

const systemPrompt = `You are an assistant answering strictly from the provided context.
Cite the reference id in square brackets after every claim, e.g. [abc123.0].
If the context is empty or does not contain the answer, say 'No information for this request.'`

// GenerateAnswer builds a prompt from the retrieved chunks and asks the
// configured LLM endpoint for a completion.
func GenerateAnswer(chunks []types.ScoredChunk, question string) (string, error) {
	start := time.Now()
	defer func() {
		log.Printf("[AGENT] completion took %v", time.Since(start))
	}()

	prompt := buildPrompt(chunks, question)

	reqBody, err := json.Marshal(GenerateRequest{
		Model:  os.Getenv("LLM_MODEL"),
		System: systemPrompt,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	if count, err := CountTokens(prompt); err == nil {
		log.Printf("[AGENT] prompt size: %d tokens", count)
	}

	resp, err := http.Post(os.Getenv("LLM_URL"), "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// some backends stream newline-delimited JSON even with stream=false
	var output strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output.WriteString(chunk.Response)
	}
	if output.Len() == 0 {
		return "", fmt.Errorf("empty llm response")
	}
	return output.String(), nil
}

func buildPrompt(chunks []types.ScoredChunk, question string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	if len(chunks) == 0 {
		sb.WriteString("empty\n")
	}
	for _, sc := range chunks {
		sb.WriteString(fmt.Sprintf("[%s] (%s, page %d)\n%s\n\n",
			sc.Chunk.ReferenceID, sc.Chunk.Source, sc.Chunk.Page, sc.Chunk.Content))
	}
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func CountTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
