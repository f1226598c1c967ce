// Package punish maps policy violations to punishments and applies them
// through the platform client.
//
// The mapping itself is pure: forbidden links earn a permanent ban,
// forbidden words a mute for the configured default duration. Application
// is deliberately lossy on failure: a platform error degrades into a
// visible "could not apply punishment" outcome instead of propagating, so
// message deletion, notification, and audit logging still proceed.
package punish

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sentinel/modbot/internal/classify"
	"github.com/sentinel/modbot/internal/metrics"
	"github.com/sentinel/modbot/internal/platform"
)

// Kind is a punishment the bot can request from the platform.
type Kind string

const (
	Ban      Kind = "ban"
	Kick     Kind = "kick"
	Mute     Kind = "mute"
	TempMute Kind = "tempmute"
	TempBan  Kind = "tempban"
)

// Outcome is the result of a punishment attempt: the kind that was applied,
// or FailedOutcome when the platform call did not go through.
type Outcome string

// FailedOutcome is recorded and announced when the platform rejects the
// punishment. Failures are visible, not silent.
const FailedOutcome Outcome = "could not apply punishment"

// DefaultMuteDuration is used when no duration is configured or supplied.
const DefaultMuteDuration = time.Hour

// Dispatcher resolves violations to punishments and executes them.
type Dispatcher struct {
	platform    platform.Client
	defaultMute time.Duration
}

// NewDispatcher creates a dispatcher delegating execution to the given
// platform client. A non-positive defaultMute falls back to one hour.
func NewDispatcher(client platform.Client, defaultMute time.Duration) *Dispatcher {
	if defaultMute <= 0 {
		defaultMute = DefaultMuteDuration
	}
	return &Dispatcher{platform: client, defaultMute: defaultMute}
}

// ForViolation returns the punishment kind and duration for a violation
// category. A zero duration means permanent.
func (d *Dispatcher) ForViolation(v classify.Violation) (Kind, time.Duration) {
	if v.Category == classify.CategoryLink {
		return Ban, 0
	}
	return Mute, d.defaultMute
}

// Apply executes a punishment against an offender. Temporary kinds with no
// caller-supplied duration use the configured default. The returned outcome
// is the kind on success or FailedOutcome on platform failure; it never
// returns an error because failures are reported through the outcome and
// logged by the caller.
func (d *Dispatcher) Apply(ctx context.Context, chatID, offenderID int64, kind Kind, duration time.Duration) Outcome {
	if duration <= 0 {
		duration = d.defaultMute
	}

	var err error
	switch kind {
	case Ban:
		err = d.platform.RemoveMember(ctx, chatID, offenderID, time.Time{})
	case Kick:
		// Telegram has no direct kick: ban then immediately unban.
		err = d.platform.RemoveMember(ctx, chatID, offenderID, time.Time{})
		if err == nil {
			err = d.platform.UnbanMember(ctx, chatID, offenderID)
		}
	case Mute, TempMute:
		until := time.Now().UTC().Add(duration)
		err = d.platform.RestrictMember(ctx, chatID, offenderID, until)
	case TempBan:
		until := time.Now().UTC().Add(duration)
		err = d.platform.RemoveMember(ctx, chatID, offenderID, until)
	default:
		err = fmt.Errorf("punish: unknown kind %q", kind)
	}

	if err != nil {
		log.Printf("[punish] %s failed for user=%d chat=%d: %v", kind, offenderID, chatID, err)
		metrics.PunishmentsTotal.WithLabelValues(string(kind), "failed").Inc()
		return FailedOutcome
	}

	metrics.PunishmentsTotal.WithLabelValues(string(kind), "applied").Inc()
	return Outcome(kind)
}
