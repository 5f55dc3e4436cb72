package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultSTTBaseURL = "https://speech.googleapis.com/v1/speech:recognize"

// Transcriber converts recorded speech to text via the Google STT API.
type Transcriber struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTranscriber constructs a client with the provided API key.
func NewTranscriber(apiKey string) (*Transcriber, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("google stt api key required")
	}
	return &Transcriber{
		apiKey:  apiKey,
		baseURL: defaultSTTBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Transcribe recognizes Korean speech in a WEBM/OPUS recording. An empty
// string means no speech was detected; callers decide the user-facing
// wording for failures.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	reqBody := recognizeRequest{
		Config: recognizeConfig{
			Encoding:                   "WEBM_OPUS",
			LanguageCode:               "ko-KR",
			EnableAutomaticPunctuation: true,
		},
		Audio: recognizeAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	url := t.baseURL + "?key=" + t.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("stt api error: %s", resp.Status)
	}

	var recognized recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&recognized); err != nil {
		return "", fmt.Errorf("stt decode: %w", err)
	}
	if len(recognized.Results) == 0 || len(recognized.Results[0].Alternatives) == 0 {
		return "", nil
	}
	return recognized.Results[0].Alternatives[0].Transcript, nil
}

type recognizeConfig struct {
	Encoding                   string `json:"encoding"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognizeAudio struct {
	Content string `json:"content"`
}

type recognizeRequest struct {
	Config recognizeConfig `json:"config"`
	Audio  recognizeAudio  `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}
