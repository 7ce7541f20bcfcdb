package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"connectfour/experiments/metrics"
	"connectfour/game"
	"connectfour/searcher/agent"
)

const defaultRequestTimeout = time.Minute

type remoteAgent struct {
	url    string
	client *http.Client
}

// RemoteAgent asks an agent server at baseURL for its moves. A failed request
// yields column -1, which the engine replaces with a legal column.
func RemoteAgent(baseURL string, client *http.Client) agent.Agent {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &remoteAgent{url: strings.TrimSuffix(baseURL, "/") + "/findmove", client: client}
}

func (a *remoteAgent) FindMove(b game.Board, player game.Player) (int, metrics.SearchMetric) {
	response, err := a.requestMove(b, player)
	if err != nil {
		log.Error().Err(err).Str("url", a.url).Msg("failed to get move from agent")
		return -1, metrics.SearchMetric{}
	}
	return response.Column, response.Metric
}

func (a *remoteAgent) requestMove(b game.Board, player game.Player) (agent.FindMoveResponse, error) {
	var response agent.FindMoveResponse

	body, err := json.Marshal(agent.FindMoveRequest{Board: b, Player: player})
	if err != nil {
		return response, err
	}
	resp, err := a.client.Post(a.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return response, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return response, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return response, fmt.Errorf("failed to decode move: %w", err)
	}
	return response, nil
}
