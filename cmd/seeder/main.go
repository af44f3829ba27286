package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Config
const (
	API_URL    = "http://localhost:8080/api/v1/scouting/entries"
	EVENT_CODE = "USTXHOQ1" // Must be a real event for the configured season
	SEASON     = 2024
)

// Entry matches models.SubmitScoutingRequest.
type Entry struct {
	Season          int    `json:"season"`
	EventCode       string `json:"event_code"`
	TournamentLevel string `json:"tournament_level"`
	MatchNumber     int    `json:"match_number"`
	TeamNumber      int    `json:"team_number"`
	ScoutingTeam    int    `json:"scouting_team"`
	Alliance        string `json:"alliance"`

	AutoPoints    int `json:"auto_points"`
	TeleopPoints  int `json:"teleop_points"`
	EndgamePoints int `json:"endgame_points"`

	Notes string `json:"notes"`
}

func main() {
	// A few plausible qual-match observations. Deduction runs inline
	// (?deduce=true) so each POST also tries to derive the partner entry
	// from the archived alliance score.
	entries := []Entry{
		{
			Season:          SEASON,
			EventCode:       EVENT_CODE,
			TournamentLevel: "qual",
			MatchNumber:     1,
			TeamNumber:      12345,
			ScoutingTeam:    9999,
			Alliance:        "red",
			AutoPoints:      12,
			TeleopPoints:    19,
			EndgamePoints:   10,
			Notes:           "seeded entry",
		},
		{
			Season:          SEASON,
			EventCode:       EVENT_CODE,
			TournamentLevel: "qual",
			MatchNumber:     2,
			TeamNumber:      12345,
			ScoutingTeam:    9999,
			Alliance:        "blue",
			AutoPoints:      8,
			TeleopPoints:    24,
			EndgamePoints:   5,
			Notes:           "seeded entry",
		},
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ok := true

	for i, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			log.Fatalf("Failed to marshal JSON: %v", err)
		}

		req, err := http.NewRequest("POST", API_URL+"?deduce=true", bytes.NewBuffer(payload))
		if err != nil {
			log.Fatalf("Failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			log.Fatalf("Failed to send request: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		fmt.Printf("Entry %d status: %s\n", i+1, resp.Status)
		fmt.Printf("Response: %s\n", string(body))
		if resp.StatusCode != 201 {
			ok = false
		}
	}

	if ok {
		fmt.Println("✅ Seeding Successful!")
	} else {
		fmt.Println("❌ Seeding Failed!")
	}
}
