// Package ingestion talks to the demo parser service and loads a parsed
// match into the stores. The parser streams NDJSON chunks so a large demo
// never has to fit in one response body.
package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"cs-match-lab/internal/domain"
	"cs-match-lab/internal/idhash"
)

// Chunk kinds emitted by the parser's streaming endpoint.
const (
	chunkMetadata = "metadata"
	chunkPlayers  = "players"
	chunkRounds   = "rounds"
	chunkEvents   = "events"
)

// Lines can carry a full event batch; 16 MiB covers the largest demos seen.
const maxLineBytes = 16 << 20

// Client is an HTTP client for the parser service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Logger
}

// NewClient creates a parser client for the given base URL.
func NewClient(baseURL string) *Client {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Minute},
		log:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithLogger enables ingestion logging.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	c.log = logger
	return c
}

// Health checks the parser service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("parser health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("parser unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// ParsedMatch is the assembled output of one streaming parse. Identifiers
// are already assigned: the caller's match id everywhere, deterministic
// round ids from the round numbers.
type ParsedMatch struct {
	Match  *domain.Match
	Rounds []*domain.Round
	Roster []*domain.Player
	Events []*domain.Event
}

// chunk is one NDJSON line of the parser's /parse/stream response.
type chunk struct {
	ChunkType   string          `json:"chunk_type"`
	ChunkIndex  int             `json:"chunk_index"`
	TotalChunks *int            `json:"total_chunks"`
	Data        json.RawMessage `json:"data"`
}

type metadataChunk struct {
	MapName         string  `json:"map_name"`
	TickRate        float64 `json:"tick_rate"`
	MatchDate       *string `json:"match_date"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type playersChunk struct {
	Players []struct {
		SteamID string `json:"steamid"`
		Name    string `json:"name"`
		TeamNum int    `json:"team_num"`
	} `json:"players"`
}

type roundsChunk struct {
	Rounds []struct {
		RoundNumber int    `json:"round_number"`
		StartTick   int64  `json:"start_tick"`
		EndTick     int64  `json:"end_tick"`
		WinnerTeam  int    `json:"winner_team"`
		WinReason   string `json:"win_reason"`
	} `json:"rounds"`
}

type eventsChunk struct {
	Events []map[string]interface{} `json:"events"`
}

// ParseDemo uploads a demo file and assembles the streamed chunks into a
// ParsedMatch under the given match id.
func (c *Client) ParseDemo(ctx context.Context, matchID, filename string, demo io.Reader) (*ParsedMatch, error) {
	resp, err := c.postDemo(ctx, filename, demo)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("parse stream failed: status %d: %s", resp.StatusCode, body)
	}

	parsed := &ParsedMatch{
		Match: &domain.Match{MatchID: matchID, TickRate: domain.DefaultTickRate},
	}
	var seq int64

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ch chunk
		if err := json.Unmarshal(line, &ch); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		if err := c.applyChunk(parsed, &ch, &seq); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read parse stream: %w", err)
	}

	c.log.WithFields(log.Fields{
		"match_id": matchID,
		"map":      parsed.Match.MapName,
		"rounds":   len(parsed.Rounds),
		"players":  len(parsed.Roster),
		"events":   len(parsed.Events),
	}).Info("demo parsed")

	return parsed, nil
}

func (c *Client) postDemo(ctx context.Context, filename string, demo io.Reader) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, demo); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse/stream", pr)
	if err != nil {
		return nil, fmt.Errorf("build parse request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post demo: %w", err)
	}
	return resp, nil
}

func (c *Client) applyChunk(parsed *ParsedMatch, ch *chunk, seq *int64) error {
	matchID := parsed.Match.MatchID

	switch ch.ChunkType {
	case chunkMetadata:
		var md metadataChunk
		if err := json.Unmarshal(ch.Data, &md); err != nil {
			return fmt.Errorf("decode metadata chunk: %w", err)
		}
		parsed.Match.MapName = md.MapName
		if md.TickRate > 0 {
			parsed.Match.TickRate = md.TickRate
		}
		if md.MatchDate != nil {
			if ts, err := time.Parse(time.RFC3339, *md.MatchDate); err == nil {
				parsed.Match.PlayedAt = ts.UnixMilli()
			}
		}

	case chunkPlayers:
		var pc playersChunk
		if err := json.Unmarshal(ch.Data, &pc); err != nil {
			return fmt.Errorf("decode players chunk: %w", err)
		}
		for _, p := range pc.Players {
			if p.TeamNum != domain.TeamT && p.TeamNum != domain.TeamCT {
				continue
			}
			parsed.Roster = append(parsed.Roster, &domain.Player{
				MatchID:     matchID,
				PlayerID:    p.SteamID,
				DisplayName: p.Name,
				TeamNumber:  p.TeamNum,
			})
		}

	case chunkRounds:
		var rc roundsChunk
		if err := json.Unmarshal(ch.Data, &rc); err != nil {
			return fmt.Errorf("decode rounds chunk: %w", err)
		}
		for _, r := range rc.Rounds {
			parsed.Rounds = append(parsed.Rounds, &domain.Round{
				RoundID:    idhash.RoundID(matchID, r.RoundNumber),
				MatchID:    matchID,
				Number:     r.RoundNumber,
				StartTick:  r.StartTick,
				EndTick:    r.EndTick,
				WinnerTeam: r.WinnerTeam,
				WinReason:  r.WinReason,
			})
		}

	case chunkEvents:
		var ec eventsChunk
		if err := json.Unmarshal(ch.Data, &ec); err != nil {
			return fmt.Errorf("decode events chunk: %w", err)
		}
		for _, raw := range ec.Events {
			name, _ := raw["event_name"].(string)
			if name == "" {
				continue
			}
			tick, _ := raw["tick"].(float64)
			payload := make(domain.Payload, len(raw))
			for k, v := range raw {
				if k == "event_name" || k == "tick" {
					continue
				}
				payload[k] = v
			}
			parsed.Events = append(parsed.Events, &domain.Event{
				MatchID: matchID,
				Seq:     *seq,
				Name:    name,
				Tick:    int64(tick),
				Payload: payload,
			})
			*seq++
		}

	default:
		// Tick and grenade chunks are not ingested.
	}
	return nil
}
