// seeder posts a demo roster and alias set through the running API, used to
// smoke-test a fresh deployment end to end.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

type rosterEntry struct {
	Main      string `json:"main"`
	JoinNight string `json:"join_night,omitempty"`
	Active    bool   `json:"active"`
}

type alias struct {
	Alt  string `json:"alt"`
	Main string `json:"main"`
}

func main() {
	base := os.Getenv("BENCH_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	roster := []rosterEntry{
		{Main: "Aerith-Stormrage", JoinNight: "2024-07-02", Active: true},
		{Main: "Brom-Stormrage", JoinNight: "2024-07-02", Active: true},
		{Main: "Cinder-Proudmoore", JoinNight: "2024-07-09", Active: true},
		{Main: "Dain-Stormrage", Active: false},
	}
	aliases := []alias{
		{Alt: "Aeribank-Stormrage", Main: "Aerith-Stormrage"},
		{Alt: "Bromalt-Proudmoore", Main: "Brom-Stormrage"},
	}

	for _, e := range roster {
		if err := post(base+"/api/v1/roster", e); err != nil {
			log.Fatalf("Seed roster entry %s: %v", e.Main, err)
		}
		fmt.Printf("Seeded roster entry %s\n", e.Main)
	}
	for _, a := range aliases {
		if err := post(base+"/api/v1/aliases", a); err != nil {
			log.Fatalf("Seed alias %s: %v", a.Alt, err)
		}
		fmt.Printf("Seeded alias %s -> %s\n", a.Alt, a.Main)
	}
}

func post(url string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return nil
}
