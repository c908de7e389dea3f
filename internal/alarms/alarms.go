// Package alarms is the alarms collaborator (spec.md §6): idempotent
// notification raising keyed by (code, subject) within a quiescence
// window, generalized from the teacher's internal/notifications (a bare
// ntfy.sh POST with no de-duplication — every controller tick that found a
// fault re-sent the same message).
package alarms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rwchcd/rwchcd/internal/model"
)

type key struct {
	code    model.Status
	subject string
}

// Raiser posts a human-readable alarm; Notifier implementations deliver it
// to an external channel (ntfy.sh here, grounded on the teacher's client).
type Notifier interface {
	Notify(title, message string) error
}

// Raiser tracks recently-raised (code, subject) pairs and suppresses
// re-raising within Quiescence, matching spec.md §6's "idempotent per
// (code, subject) within a quiescence window".
type Raiser struct {
	mu         sync.Mutex
	notifier   Notifier
	quiescence time.Duration
	lastRaised map[key]time.Time
	now        func() time.Time
}

func NewRaiser(n Notifier, quiescence time.Duration) *Raiser {
	return &Raiser{
		notifier:   n,
		quiescence: quiescence,
		lastRaised: make(map[key]time.Time),
		now:        time.Now,
	}
}

// Raise implements alarms_raise(code, fmt, args...); it is a no-op beyond
// logging if the same (code, subject) was raised within the quiescence
// window.
func (r *Raiser) Raise(code model.Status, subject string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	k := key{code: code, subject: subject}

	r.mu.Lock()
	last, seen := r.lastRaised[k]
	now := r.now()
	if seen && now.Sub(last) < r.quiescence {
		r.mu.Unlock()
		log.Debug().Str("subject", subject).Str("code", code.String()).Msg("alarm suppressed (quiescent)")
		return
	}
	r.lastRaised[k] = now
	r.mu.Unlock()

	log.Error().Str("subject", subject).Str("code", code.String()).Msg(msg)
	if r.notifier == nil {
		return
	}
	title := fmt.Sprintf("%s: %s", subject, code.String())
	if err := r.notifier.Notify(title, msg); err != nil {
		log.Warn().Err(err).Msg("failed to deliver alarm notification")
	}
}

// NtfyNotifier delivers alarms to an ntfy.sh topic, grounded on the
// teacher's internal/notifications.Send.
type NtfyNotifier struct {
	client *http.Client
	topic  string
}

func NewNtfyNotifier(topic string) *NtfyNotifier {
	return &NtfyNotifier{
		client: &http.Client{Timeout: 10 * time.Second},
		topic:  topic,
	}
}

func (n *NtfyNotifier) Notify(title, message string) error {
	if n.topic == "" {
		return fmt.Errorf("ntfy topic not configured")
	}
	url := fmt.Sprintf("https://ntfy.sh/%s", n.topic)
	payload := map[string]any{"topic": n.topic, "title": title, "message": message}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
