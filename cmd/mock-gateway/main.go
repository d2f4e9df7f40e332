package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"posnotif/internal/config"
	"posnotif/internal/httpserver"
	"posnotif/internal/logging"
)

type weightedOutcome struct {
	Kind   string
	Weight float64
}

type server struct {
	mode           string
	outcomes       []string
	successRate    float64
	failureWeights []weightedOutcome
	delay          time.Duration
	timeoutDelay   time.Duration

	idx   uint64
	rng   *rand.Rand
	rngMu sync.Mutex
}

func main() {
	cfg := config.LoadMockGateway()
	logging.Init("mock-gateway", cfg.LogFormat)

	s := newServer(cfg)
	slog.Info("mock gateway listening", "port", cfg.Port, "mode", s.mode)
	if err := http.ListenAndServe(":"+cfg.Port, s.router()); err != nil {
		slog.Error("mock gateway server failed", "err", err)
		os.Exit(1)
	}
}

func newServer(cfg config.MockGatewayConfig) *server {
	s := &server{
		mode:           strings.ToLower(strings.TrimSpace(cfg.OutcomeMode)),
		outcomes:       parseCSV(cfg.Outcomes),
		successRate:    cfg.SuccessRate,
		failureWeights: parseWeightedOutcomes(cfg.FailureWeights),
		delay:          time.Duration(cfg.DelayMS) * time.Millisecond,
		timeoutDelay:   time.Duration(cfg.TimeoutDelayMS) * time.Millisecond,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if len(s.failureWeights) == 0 {
		s.failureWeights = []weightedOutcome{{Kind: "device_offline", Weight: 1}}
	}
	return s
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(httpserver.Logging)
	r.HandleFunc("/api/send", s.handleSend("number")).Methods(http.MethodPost)
	r.HandleFunc("/api/sendGroup", s.handleSend("group")).Methods(http.MethodPost)
	return r
}

// handleSend mimics the gateway: form fields device_id, message and either
// number or group; JSON reply with status and optional reason.
func (s *server) handleSend(targetField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid form data"})
			return
		}
		if r.Form.Get("device_id") == "" {
			writeJSON(w, http.StatusOK, map[string]string{"status": "error", "reason": "device_id is required"})
			return
		}
		if r.Form.Get(targetField) == "" || r.Form.Get("message") == "" {
			writeJSON(w, http.StatusOK, map[string]string{"status": "error", "reason": targetField + " and message are required"})
			return
		}

		if s.delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.delay):
			}
		}

		status, body := classifyOutcome(s.nextOutcome())
		if status == http.StatusGatewayTimeout {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.timeoutDelay):
			}
		}
		if body == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, body)
	}
}

func (s *server) nextOutcome() string {
	switch s.mode {
	case "round_robin":
		idx := atomic.AddUint64(&s.idx, 1) - 1
		return s.outcomes[int(idx)%len(s.outcomes)]
	case "weighted":
		s.rngMu.Lock()
		ok := s.rng.Float64() <= s.successRate
		r := s.rng.Float64()
		s.rngMu.Unlock()
		if ok {
			return "ok"
		}
		return pickWeighted(r, s.failureWeights)
	case "random":
		s.rngMu.Lock()
		i := s.rng.Intn(len(s.outcomes))
		s.rngMu.Unlock()
		return s.outcomes[i]
	default:
		return s.outcomes[0]
	}
}

// classifyOutcome maps an outcome token to the HTTP status and JSON body the
// gateway would return. A nil body means no JSON payload.
func classifyOutcome(raw string) (int, map[string]string) {
	switch kind := strings.TrimSpace(raw); kind {
	case "", "ok", "success":
		return http.StatusOK, map[string]string{"status": "success"}
	case "device_offline":
		return http.StatusOK, map[string]string{"status": "error", "reason": "device is not connected"}
	case "invalid_number":
		return http.StatusOK, map[string]string{"status": "error", "reason": "number is not registered on whatsapp"}
	case "rate_limit", "429":
		return http.StatusTooManyRequests, map[string]string{"status": "error", "reason": "too many requests"}
	case "server_error", "500":
		return http.StatusInternalServerError, nil
	case "bad_json":
		return http.StatusOK, nil
	case "timeout":
		return http.StatusGatewayTimeout, nil
	default:
		if code, err := strconv.Atoi(kind); err == nil && code >= 100 && code < 600 {
			return code, nil
		}
		return http.StatusOK, map[string]string{"status": "error", "reason": "mock error: " + kind}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{"ok"}
	}
	return out
}

func parseWeightedOutcomes(s string) []weightedOutcome {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []weightedOutcome
	for _, p := range strings.Split(s, ",") {
		kv := strings.Split(strings.TrimSpace(p), ":")
		if len(kv) != 2 {
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		kind := strings.TrimSpace(kv[0])
		if err != nil || w <= 0 || kind == "" {
			continue
		}
		out = append(out, weightedOutcome{Kind: kind, Weight: w})
	}
	return out
}

func pickWeighted(r float64, items []weightedOutcome) string {
	if len(items) == 0 {
		return "device_offline"
	}
	var total float64
	for _, it := range items {
		total += it.Weight
	}
	target := r * total
	var cumulative float64
	for _, it := range items {
		cumulative += it.Weight
		if target <= cumulative {
			return it.Kind
		}
	}
	return items[len(items)-1].Kind
}
