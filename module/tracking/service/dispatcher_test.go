package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/geo"
)

type mockDirectory struct {
	phonesByBarangayFn func(ctx context.Context, barangay string) ([]string, error)
}

func (m *mockDirectory) PhonesByBarangay(ctx context.Context, barangay string) ([]string, error) {
	return m.phonesByBarangayFn(ctx, barangay)
}

type smsCall struct {
	message    string
	recipients []string
}

type mockSMSPublisher struct {
	publishBatchFn func(ctx context.Context, message string, recipients []string) error
	calls          []smsCall
}

func (m *mockSMSPublisher) PublishBatch(ctx context.Context, message string, recipients []string) error {
	m.calls = append(m.calls, smsCall{message: message, recipients: recipients})
	if m.publishBatchFn != nil {
		return m.publishBatchFn(ctx, message, recipients)
	}
	return nil
}

type mockAlertPublisher struct {
	publishAlertFn func(ctx context.Context, alert *domain.ProximityAlert) error
	calls          []*domain.ProximityAlert
}

func (m *mockAlertPublisher) PublishAlert(ctx context.Context, alert *domain.ProximityAlert) error {
	m.calls = append(m.calls, alert)
	if m.publishAlertFn != nil {
		return m.publishAlertFn(ctx, alert)
	}
	return nil
}

func staticDirectory(phones ...string) *mockDirectory {
	return &mockDirectory{
		phonesByBarangayFn: func(_ context.Context, _ string) ([]string, error) {
			return phones, nil
		},
	}
}

func entryEvent(barangay string) domain.ProximityEvent {
	return domain.ProximityEvent{
		Type:     domain.BarangayEntry,
		TruckID:  "Truck-01",
		Barangay: barangay,
		Lat:      14.667,
		Lon:      120.967,
	}
}

func TestDispatch_FormatsAndBatchesRecipients(t *testing.T) {
	sms := &mockSMSPublisher{}
	d := NewDispatcher(staticDirectory("09171234567", "09998887766", "12345", "+639171234567"), sms, nil, 0)

	ev := entryEvent("Acacia")
	ev.Street = "Basilio St"
	ev.Type = domain.StreetArrival
	d.Dispatch(context.Background(), ev)

	if len(sms.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(sms.calls))
	}
	call := sms.calls[0]
	if call.message != "Truck is in Brgy Acacia, Street: Basilio St" {
		t.Errorf("unexpected message: %q", call.message)
	}
	// only canonical local numbers survive, rewritten to +63
	want := []string{"+639171234567", "+639998887766"}
	if len(call.recipients) != len(want) {
		t.Fatalf("expected %d recipients, got %v", len(want), call.recipients)
	}
	for i, r := range want {
		if call.recipients[i] != r {
			t.Errorf("recipient %d: expected %s, got %s", i, r, call.recipients[i])
		}
	}
}

func TestDispatch_BarangayOnlyMessage(t *testing.T) {
	sms := &mockSMSPublisher{}
	d := NewDispatcher(staticDirectory("09171234567"), sms, nil, 0)

	d.Dispatch(context.Background(), entryEvent("Tugatog"))

	if len(sms.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(sms.calls))
	}
	if sms.calls[0].message != "Truck is in Brgy Tugatog" {
		t.Errorf("unexpected message: %q", sms.calls[0].message)
	}
}

func TestDispatch_CooldownSuppression(t *testing.T) {
	sms := &mockSMSPublisher{}
	d := NewDispatcher(staticDirectory("09171234567"), sms, nil, 5*time.Minute)

	clock := time.Unix(1715000000, 0)
	d.now = func() time.Time { return clock }

	d.Dispatch(context.Background(), entryEvent("Acacia"))
	clock = clock.Add(30 * time.Second)
	d.Dispatch(context.Background(), entryEvent("Acacia"))

	if len(sms.calls) != 1 {
		t.Fatalf("expected 1 publish within window, got %d", len(sms.calls))
	}

	clock = clock.Add(5 * time.Minute)
	d.Dispatch(context.Background(), entryEvent("Acacia"))

	if len(sms.calls) != 2 {
		t.Fatalf("expected 2 publishes after window elapsed, got %d", len(sms.calls))
	}
}

func TestDispatch_DistinctKeysDoNotShareCooldown(t *testing.T) {
	sms := &mockSMSPublisher{}
	d := NewDispatcher(staticDirectory("09171234567"), sms, nil, 5*time.Minute)

	d.Dispatch(context.Background(), entryEvent("Acacia"))
	d.Dispatch(context.Background(), entryEvent("Tugatog"))

	street := entryEvent("Acacia")
	street.Type = domain.StreetArrival
	street.Street = "Basilio St"
	d.Dispatch(context.Background(), street)

	if len(sms.calls) != 3 {
		t.Fatalf("expected 3 publishes for 3 distinct keys, got %d", len(sms.calls))
	}
}

func TestDispatch_DirectoryErrorAbortsWithoutCooldown(t *testing.T) {
	sms := &mockSMSPublisher{}
	dir := &mockDirectory{}
	fail := true
	dir.phonesByBarangayFn = func(_ context.Context, _ string) ([]string, error) {
		if fail {
			return nil, errors.New("datastore unavailable")
		}
		return []string{"09171234567"}, nil
	}
	d := NewDispatcher(dir, sms, nil, 5*time.Minute)

	d.Dispatch(context.Background(), entryEvent("Acacia"))
	if len(sms.calls) != 0 {
		t.Fatalf("expected no publish on directory failure, got %d", len(sms.calls))
	}

	// recovery is immediate, the failed attempt armed no cooldown
	fail = false
	d.Dispatch(context.Background(), entryEvent("Acacia"))
	if len(sms.calls) != 1 {
		t.Fatalf("expected publish after directory recovered, got %d", len(sms.calls))
	}
}

// Two simultaneous events for the same key must produce one publish:
// the gate is claimed before the directory lookup, so the second
// caller bounces even while the first is still mid-flight.
func TestDispatch_ConcurrentSameKeyPublishesOnce(t *testing.T) {
	entered := make(chan struct{}, 2)
	proceed := make(chan struct{})
	dir := &mockDirectory{
		phonesByBarangayFn: func(_ context.Context, _ string) ([]string, error) {
			entered <- struct{}{}
			<-proceed
			return []string{"09171234567"}, nil
		},
	}
	sms := &mockSMSPublisher{}
	d := NewDispatcher(dir, sms, nil, 5*time.Minute)

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			d.Dispatch(context.Background(), entryEvent("Acacia"))
			done <- struct{}{}
		}()
	}

	// one caller holds the claim inside the lookup...
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("no dispatch reached the directory")
	}
	// ...and the other must return without looking anything up
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second dispatch did not bounce off the claimed window")
	}

	close(proceed)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("first dispatch never finished")
	}

	if len(sms.calls) != 1 {
		t.Fatalf("expected exactly 1 publish for one key, got %d", len(sms.calls))
	}
	select {
	case <-entered:
		t.Fatal("second dispatch reached the directory")
	default:
	}
}

func TestDispatch_NoValidRecipientsDrops(t *testing.T) {
	sms := &mockSMSPublisher{}
	d := NewDispatcher(staticDirectory("12345", "not-a-phone"), sms, nil, 0)

	d.Dispatch(context.Background(), entryEvent("Acacia"))

	if len(sms.calls) != 0 {
		t.Fatalf("expected no publish without valid recipients, got %d", len(sms.calls))
	}
}

func TestDispatch_PublishFailureIsSwallowedAndArmsCooldown(t *testing.T) {
	sms := &mockSMSPublisher{
		publishBatchFn: func(_ context.Context, _ string, _ []string) error {
			return errors.New("broker down")
		},
	}
	d := NewDispatcher(staticDirectory("09171234567"), sms, nil, 5*time.Minute)

	d.Dispatch(context.Background(), entryEvent("Acacia"))
	d.Dispatch(context.Background(), entryEvent("Acacia"))

	// the attempt counts: no retry storm against a dead broker
	if len(sms.calls) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(sms.calls))
	}
}

func TestDispatch_PublishesStructuredAlert(t *testing.T) {
	sms := &mockSMSPublisher{}
	alerts := &mockAlertPublisher{}
	d := NewDispatcher(staticDirectory("09171234567"), sms, alerts, 0)

	ev := entryEvent("Acacia")
	ev.Street = "Basilio St"
	ev.Type = domain.StreetArrival
	d.Dispatch(context.Background(), ev)

	if len(alerts.calls) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts.calls))
	}
	alert := alerts.calls[0]
	if alert.TruckID != "Truck-01" || alert.Barangay != "Acacia" || alert.Street != "Basilio St" {
		t.Errorf("unexpected alert: %+v", alert)
	}
	if alert.Event != domain.StreetArrival {
		t.Errorf("expected street_arrival, got %s", alert.Event)
	}
}

func TestFormatRecipients(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string // empty means dropped
	}{
		{"canonical local", "09171234567", "+639171234567"},
		{"too short", "0917123456", ""},
		{"too long", "091712345678", ""},
		{"wrong prefix", "08171234567", ""},
		{"already international", "+639171234567", ""},
		{"letters", "09abc234567", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatRecipients([]string{tt.in})
			if tt.out == "" {
				if len(got) != 0 {
					t.Errorf("expected drop, got %v", got)
				}
				return
			}
			if len(got) != 1 || got[0] != tt.out {
				t.Errorf("expected %s, got %v", tt.out, got)
			}
		})
	}
}

// Full pipeline: a truck reporting inside Acacia near Basilio St
// causes exactly one batched publish to all registered residents.
func TestProximityToDispatch_EndToEnd(t *testing.T) {
	sms := &mockSMSPublisher{}
	d := NewDispatcher(staticDirectory("09171234567", "09987654321", "09123456789"), sms, nil, 5*time.Minute)

	index := geo.NewIndex(
		[]domain.Street{
			{Name: "Basilio St", Barangay: "Acacia", Point: domain.Point{Lat: 14.6670, Lon: 120.9670}},
		},
		[]domain.Barangay{
			{Name: "Acacia", Ring: []domain.Point{
				{Lat: 14.66, Lon: 120.96}, {Lat: 14.66, Lon: 120.98},
				{Lat: 14.68, Lon: 120.98}, {Lat: 14.68, Lon: 120.96},
			}},
		},
	)
	svc := NewProximityService(index, d, 15)

	// prime: truck is already working inside Acacia, away from the marker
	svc.Check(context.Background(), "T1", 14.6700, 120.9700)
	sms.calls = nil

	// ~10m north of the marker
	svc.Check(context.Background(), "T1", 14.6670+0.00009, 120.9670)

	if len(sms.calls) != 1 {
		t.Fatalf("expected exactly 1 publish, got %d", len(sms.calls))
	}
	call := sms.calls[0]
	if len(call.recipients) != 3 {
		t.Errorf("expected 3 recipients, got %v", call.recipients)
	}
	if !strings.Contains(call.message, "Acacia") || !strings.Contains(call.message, "Basilio St") {
		t.Errorf("message must mention barangay and street: %q", call.message)
	}
}
