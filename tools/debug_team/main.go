package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/analytics"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/ftcapi"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/logic"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s EVENTCODE", os.Args[0])
	}
	eventCode := os.Args[1]

	username := os.Getenv("FTC_API_USERNAME")
	token := os.Getenv("FTC_API_TOKEN")
	if username == "" || token == "" {
		log.Fatal("FTC_API_USERNAME and FTC_API_TOKEN must be set")
	}

	season := 2024
	if s := os.Getenv("FTC_SEASON"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			season = parsed
		}
	}

	// No cache: every run hits the live API.
	ftc := ftcapi.New(ftcapi.Config{
		Username: username,
		Token:    token,
	})
	data := logic.NewDataService(ftc, season, analytics.DefaultEPAConfig(), zap.NewNop().Sugar())

	ctx := context.Background()

	oprs, err := data.GetEventOPR(ctx, eventCode)
	if err != nil {
		log.Fatalf("OPR failed: %v", err)
	}
	fmt.Printf("OPR for %s, season %d (%d teams)\n", eventCode, season, len(oprs))
	fmt.Println("rank  team     OPR     auto   teleop  endgame     DPR    CCWM  played")
	for _, r := range oprs {
		fmt.Printf("%4d  %-6d %6.2f  %6.2f  %6.2f  %6.2f  %6.2f  %6.2f  %4d\n",
			r.Rank, r.TeamNumber, r.OPR, r.AutoOPR, r.TeleopOPR, r.EndgameOPR, r.DPR, r.CCWM, r.MatchesPlayed)
	}

	epas, err := data.GetEventEPA(ctx, eventCode)
	if err != nil {
		log.Fatalf("EPA failed: %v", err)
	}
	fmt.Printf("\nEPA for %s, season %d (%d teams)\n", eventCode, season, len(epas))
	fmt.Println("rank  team     EPA     auto   teleop  endgame  matches  trend")
	for _, r := range epas {
		fmt.Printf("%4d  %-6d %6.2f  %6.2f  %6.2f  %6.2f  %5d    %s\n",
			r.Rank, r.TeamNumber, r.EPA, r.AutoEPA, r.TeleopEPA, r.EndgameEPA, r.MatchCount, r.Trend)
	}
}
