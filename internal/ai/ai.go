package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Simple chat request/response structs for OpenAI's /v1/chat/completions.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Drafter writes first-contact emails to professors with an OpenAI model.
type Drafter struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewDrafter(apiKey, model string) *Drafter {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	return &Drafter{
		apiKey:     apiKey,
		model:      model,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

const systemPrompt = `You are a concise assistant helping a student contact potential PhD advisors.

Given a professor profile and a short student profile, write ONE email that:

1) Introduces the student in one or two sentences.
2) Connects the student's interests to one or two specific research topics of the professor.
3) Asks politely whether the professor is taking PhD students for the coming cycle.

Return plain text only, no subject line, no markdown. Keep it under 200 words.`

// DraftEmail returns a subject and body for a professor record.
func (d *Drafter) DraftEmail(ctx context.Context, professor domain.Record, student domain.StudentInfo) (domain.EmailDraft, error) {
	userPrompt := fmt.Sprintf(
		"Professor: %s\nResearch area: %s\nProfessor profile JSON: %s\n\nStudent: %s\nBackground: %s\nResearch interest: %s",
		professor.Str("name"), professor.Str("research_area"), string(professor),
		student.Name, student.Background, student.ResearchInterest,
	)

	reqBody := chatRequest{
		Model: d.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return domain.EmailDraft{}, errors.Annotate(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(b))
	if err != nil {
		return domain.EmailDraft{}, errors.Annotate(err, "build request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return domain.EmailDraft{}, errors.Annotate(err, "call OpenAI")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return domain.EmailDraft{}, errors.Errorf("OpenAI HTTP %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return domain.EmailDraft{}, errors.Annotate(err, "decode OpenAI response")
	}
	if len(cr.Choices) == 0 {
		return domain.EmailDraft{}, errors.New("no choices in OpenAI response")
	}

	return domain.EmailDraft{
		Subject: subjectFor(student),
		Content: strings.TrimSpace(cr.Choices[0].Message.Content),
	}, nil
}

// subjectFor matches the subject the backend drafter uses.
func subjectFor(student domain.StudentInfo) string {
	return "PhD Application Inquiry - " + student.Name
}
