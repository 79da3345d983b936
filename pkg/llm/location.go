package llm

import (
	"context"
	"encoding/json"
	"strings"

	"wander/pkg/geo"
)

// locationSystemPrompt makes the model answer with a machine-readable
// location envelope instead of free text.
const locationSystemPrompt = `You are a helpful assistant that helps users explore locations on a map.
Extract location information from user queries and provide coordinates.
Always respond with a JSON object containing:
- message: your response to the user
- coordinates: [longitude, latitude] if a location is mentioned
- zoom: suggested zoom level (1-20)
If no location is mentioned, set coordinates to null.`

// LocationReply is the parsed location-chat answer. Coordinates are nil
// when the model found no location in the query.
type LocationReply struct {
	Message     string      `json:"message"`
	Coordinates *geo.LngLat `json:"coordinates"`
	Zoom        float64     `json:"zoom"`
}

// CompleteLocation runs the dedicated location-chat variant. Content
// that does not parse as the expected JSON envelope degrades to a plain
// text reply with no coordinates rather than failing the turn.
func (c *Client) CompleteLocation(ctx context.Context, message string) (LocationReply, error) {
	msgs := []Message{
		{Role: RoleSystem, Content: locationSystemPrompt},
		{Role: RoleUser, Content: message},
	}

	content, err := c.complete(ctx, msgs)
	if err != nil {
		return LocationReply{}, err
	}

	var reply LocationReply
	if jsonErr := json.Unmarshal([]byte(stripFence(content)), &reply); jsonErr != nil || reply.Message == "" {
		c.log.Debug("location reply is not structured, falling back to plain text")
		return LocationReply{Message: content, Coordinates: nil, Zoom: 1}, nil
	}
	return reply, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
