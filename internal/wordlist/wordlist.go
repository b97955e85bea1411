// Package wordlist supplies words for the spelling game.
package wordlist

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Difficulty levels accepted by sources.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// ErrNoWord is returned when a source has no word for a difficulty.
var ErrNoWord = errors.New("no word available")

// Source returns a word to spell.
type Source interface {
	RandomWord(ctx context.Context, difficulty string) (string, error)
}

// Fallback is the built-in word table used when no other source answers.
var Fallback = map[string][]string{
	Easy:   {"CAT", "DOG", "SUN", "HAT", "BED", "CUP", "MAP", "PEN"},
	Medium: {"HOUSE", "APPLE", "GREEN", "HAPPY", "WATER", "LIGHT"},
	Hard:   {"ALPHABET", "LANGUAGE", "FRIENDLY", "LEARNING"},
}

// FallbackWord picks a word from the built-in table. Unknown difficulties
// use the easy list.
func FallbackWord(difficulty string, rnd *rand.Rand) string {
	words, ok := Fallback[strings.ToLower(difficulty)]
	if !ok {
		words = Fallback[Easy]
	}
	return words[rnd.Intn(len(words))]
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// List is a Source over an in-memory word list bucketed by length.
type List struct {
	buckets map[string][]string
	rnd     *rand.Rand
}

// NewList keeps the fingerspellable words and buckets them by difficulty.
func NewList(words []string, rnd *rand.Rand) *List {
	l := &List{buckets: map[string][]string{}, rnd: rnd}
	for _, w := range Filter(words, Fingerspellable) {
		w = strings.ToUpper(w)
		d := DifficultyFor(w)
		l.buckets[d] = append(l.buckets[d], w)
	}
	return l
}

// RandomWord implements Source.
func (l *List) RandomWord(_ context.Context, difficulty string) (string, error) {
	words := l.buckets[strings.ToLower(difficulty)]
	if len(words) == 0 {
		return "", fmt.Errorf("%w for difficulty %q", ErrNoWord, difficulty)
	}
	return words[l.rnd.Intn(len(words))], nil
}

// Remote fetches words from an HTTP endpoint answering
// GET <url>?difficulty=<d> with {"success":true,"word":"..."}.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote returns a Remote client. A timeout <= 0 means five seconds.
func NewRemote(endpoint string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type remoteWord struct {
	Success bool   `json:"success"`
	Word    string `json:"word"`
	Error   string `json:"error"`
}

// RandomWord implements Source.
func (r *Remote) RandomWord(ctx context.Context, difficulty string) (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse words url: %w", err)
	}
	q := u.Query()
	q.Set("difficulty", difficulty)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch word: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close after reading the response.
			_ = cerr
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read word response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("word service returned %s", resp.Status)
	}
	var payload remoteWord
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode word response: %w", err)
	}
	if !payload.Success || payload.Word == "" {
		if payload.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoWord, payload.Error)
		}
		return "", ErrNoWord
	}
	word := strings.ToUpper(strings.TrimSpace(payload.Word))
	if !Fingerspellable(word) {
		return "", fmt.Errorf("%w: %q cannot be fingerspelled with static letters", ErrNoWord, word)
	}
	return word, nil
}

// Chain tries each source in order and falls back to the built-in table.
type Chain struct {
	sources []Source
	rnd     *rand.Rand
	onError func(error)
}

// NewChain returns a Chain. onError, when non-nil, receives every source
// failure before the next source is tried.
func NewChain(rnd *rand.Rand, onError func(error), sources ...Source) *Chain {
	return &Chain{sources: sources, rnd: rnd, onError: onError}
}

// RandomWord implements Source. It never fails.
func (c *Chain) RandomWord(ctx context.Context, difficulty string) (string, error) {
	for _, src := range c.sources {
		if src == nil {
			continue
		}
		word, err := src.RandomWord(ctx, difficulty)
		if err == nil {
			return word, nil
		}
		if c.onError != nil {
			c.onError(err)
		}
	}
	return FallbackWord(difficulty, c.rnd), nil
}
