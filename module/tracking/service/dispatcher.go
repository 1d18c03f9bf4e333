package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/database"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/publisher"
)

// DefaultCooldownWindow is the minimum gap between repeated
// notifications for the same barangay or street.
const DefaultCooldownWindow = 5 * time.Minute

// localPhonePattern matches the canonical local mobile format
// (11 digits, leading 09). Anything else is silently dropped.
var localPhonePattern = regexp.MustCompile(`^09\d{9}$`)

// Dispatcher converts proximity events into outbound SMS commands:
// resolves recipients for the barangay, rate-limits per notification
// key, and publishes one batched command per event. Every failure here
// is logged and swallowed; notification delivery is best-effort.
type Dispatcher struct {
	directory database.UserDirectory
	sms       publisher.SMSPublisher
	alerts    publisher.AlertPublisher // optional
	window    time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewDispatcher builds a dispatcher. A zero window selects
// DefaultCooldownWindow; alerts may be nil when no event fanout is
// configured.
func NewDispatcher(directory database.UserDirectory, sms publisher.SMSPublisher, alerts publisher.AlertPublisher, window time.Duration) *Dispatcher {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	return &Dispatcher{
		directory: directory,
		sms:       sms,
		alerts:    alerts,
		window:    window,
		now:       time.Now,
		lastSent:  make(map[string]time.Time),
	}
}

// Dispatch handles a single proximity event. Cooldown drops are
// expected, frequent behavior, not errors. Directory failures and
// empty recipient lists abort without consuming the window; a publish
// attempt consumes it whether or not the transport accepted the
// message.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.ProximityEvent) {
	key := cooldownKey(ev)

	d.mu.Lock()
	now := d.now()
	if last, ok := d.lastSent[key]; ok && now.Sub(last) < d.window {
		d.mu.Unlock()
		return
	}
	// claim the window before the lookup and publish, so a concurrent
	// event for the same key cannot slip past the gate in between
	prev, claimed := d.lastSent[key]
	d.lastSent[key] = now
	d.mu.Unlock()

	release := func() {
		d.mu.Lock()
		if claimed {
			d.lastSent[key] = prev
		} else {
			delete(d.lastSent, key)
		}
		d.mu.Unlock()
	}

	phones, err := d.directory.PhonesByBarangay(ctx, ev.Barangay)
	if err != nil {
		log.Printf("[dispatch] directory lookup for %s: %v", ev.Barangay, err)
		release()
		return
	}

	recipients := formatRecipients(phones)
	if len(recipients) == 0 {
		log.Printf("[dispatch] no valid recipients in %s, dropping notification", ev.Barangay)
		release()
		return
	}

	message := fmt.Sprintf("Truck is in Brgy %s", ev.Barangay)
	if ev.Street != "" {
		message += fmt.Sprintf(", Street: %s", ev.Street)
	}

	if err := d.sms.PublishBatch(ctx, message, recipients); err != nil {
		log.Printf("[dispatch] sms publish for %s: %v", ev.Barangay, err)
	} else {
		log.Printf("[dispatch] sent %q to %d recipients in %s", message, len(recipients), ev.Barangay)
	}

	if d.alerts != nil {
		alert := &domain.ProximityAlert{
			TruckID:   ev.TruckID,
			Event:     ev.Type,
			Barangay:  ev.Barangay,
			Street:    ev.Street,
			Latitude:  ev.Lat,
			Longitude: ev.Lon,
			Timestamp: now.Unix(),
		}
		if err := d.alerts.PublishAlert(ctx, alert); err != nil {
			log.Printf("[dispatch] alert publish for %s: %v", ev.Barangay, err)
		}
	}
}

func cooldownKey(ev domain.ProximityEvent) string {
	if ev.Type == domain.StreetArrival {
		return "street:" + ev.Barangay + ":" + ev.Street
	}
	return "brgy:" + ev.Barangay
}

// formatRecipients keeps only canonical local numbers and rewrites
// them to international form (09xxxxxxxxx -> +639xxxxxxxxx).
func formatRecipients(phones []string) []string {
	var out []string
	for _, p := range phones {
		if localPhonePattern.MatchString(p) {
			out = append(out, "+63"+p[1:])
		}
	}
	return out
}
