package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Ghodjeezreal/paygate/src/gate"
	"github.com/Ghodjeezreal/paygate/src/lib"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/tidwall/gjson"
)

// Gate terminal: scans sealed entry codes, verifies them against the server
// when it is reachable and falls back to offline evaluation when it is not.
// Offline approvals queue up and replay automatically once the link returns.

const probeInterval = 5 * time.Second

func verifyOnline(serverURL string, token string, reference string, agent string) (bool, string, error) {
	payload, err := json.Marshal(map[string]any{
		"reference":      reference,
		"security_agent": agent,
	})
	if err != nil {
		return false, "", err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/v1/verify-entry", serverURL), bytes.NewReader(payload))
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	res, err := client.Do(req)
	if err != nil {
		return false, "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, "", err
	}
	switch res.StatusCode {
	case http.StatusOK, http.StatusNotFound:
		allowed := gjson.GetBytes(body, "allowed").Bool()
		reason := gjson.GetBytes(body, "reason").String()
		if reason == "" && !allowed {
			reason = gjson.GetBytes(body, "error").String()
		}
		return allowed, reason, nil
	default:
		return false, "", fmt.Errorf("verify-entry returned status %d", res.StatusCode)
	}
}

func main() {
	cwd, _ := os.Getwd()
	godotenv.Load(fmt.Sprintf("%s/.env", cwd))

	serverURL := os.Getenv("GATE_SERVER_URL")
	token := os.Getenv("GATE_AUTH_TOKEN")
	agent := os.Getenv("GATE_AGENT_NAME")
	if serverURL == "" || agent == "" {
		log.Fatalln("GATE_SERVER_URL and GATE_AGENT_NAME must be set")
	}
	keyEnv := os.Getenv("API_QRC_SECRET")
	key, err := hex.DecodeString(keyEnv)
	if err != nil {
		log.Fatalf("Could not read scan key: %s", err)
	}

	rdb := lib.GetRedisClient()
	if rdb == nil {
		log.Fatalln("Redis is required for the offline queue")
	}
	queue := gate.NewPendingQueue(rdb)
	if n, err := queue.Len(context.Background()); err == nil && n > 0 {
		log.Printf("%d approvals still queued from a previous session\n", n)
	}
	reconciler := gate.NewReconciler(queue, serverURL, token)

	prober := gate.NewProber(fmt.Sprintf("%s/api/v1/health", serverURL), probeInterval, func(online bool) {
		if !online {
			log.Println("Server unreachable, switching to offline mode")
			return
		}
		log.Println("Server reachable again, replaying queued approvals")
		report, err := reconciler.Flush(context.Background())
		if err != nil {
			log.Printf("Error replaying queued approvals: %s\n", err.Error())
		}
		if report != nil {
			log.Printf("Replayed %d queued approvals\n", report.Replayed)
			for _, d := range report.Diverged {
				log.Printf("DIVERGED %s (%s) scanned at %s: %s\n",
					d.Approval.Reference, d.Approval.Plate, d.Approval.Timestamp.Format(time.RFC3339), d.Reason)
			}
		}
	})
	if err := prober.Start(); err != nil {
		log.Fatalf("Could not start liveness probe: %s", err)
	}
	defer prober.Stop()

	terminal := &gate.Terminal{
		ID:     uuid.NewString(),
		Key:    key,
		Queue:  queue,
		Creds:  gate.NewCredentialCache(rdb),
		Prober: prober,
	}

	log.Printf("Terminal %s ready, scan a code\n", terminal.ID)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		code := strings.TrimSpace(scanner.Text())
		if code == "" {
			continue
		}
		snap, err := terminal.Scan(code)
		if err != nil {
			log.Printf("REJECTED unreadable code: %s\n", err.Error())
			continue
		}
		if prober.Online() {
			allowed, reason, err := verifyOnline(serverURL, token, snap.Ref, agent)
			if err != nil {
				log.Printf("Server call failed, evaluating offline: %s\n", err.Error())
				prober.Probe()
			} else {
				if allowed {
					log.Printf("ALLOWED %s (%s)\n", snap.Ref, snap.Plate)
				} else {
					log.Printf("DENIED %s (%s): %s\n", snap.Ref, snap.Plate, reason)
				}
				continue
			}
		}
		allowed, reason, err := terminal.ApproveOffline(context.Background(), snap, agent, time.Now())
		if err != nil {
			log.Printf("Error queueing offline approval: %s\n", err.Error())
			continue
		}
		if allowed {
			log.Printf("ALLOWED (offline, provisional) %s (%s)\n", snap.Ref, snap.Plate)
		} else {
			log.Printf("DENIED (offline) %s (%s): %s\n", snap.Ref, snap.Plate, reason)
		}
	}
}
