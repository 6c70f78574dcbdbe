package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/vesync-connect/internal/capability"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
)

type fakeHub struct {
	calls []hubCall
	err   error
}

type hubCall struct {
	token    string
	deviceID string
	events   []smartthings.Event
}

func (f *fakeHub) SendEvents(_ context.Context, token, deviceID string, events []smartthings.Event) error {
	f.calls = append(f.calls, hubCall{token: token, deviceID: deviceID, events: events})
	return f.err
}

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

type fakeRecorder struct {
	airQuality []int
	fanSpeed   []int
	filterLife []int
	lightLevel []int
}

func (f *fakeRecorder) WriteAirQuality(_, _ string, index int)  { f.airQuality = append(f.airQuality, index) }
func (f *fakeRecorder) WriteFanSpeed(_, _ string, level int)    { f.fanSpeed = append(f.fanSpeed, level) }
func (f *fakeRecorder) WriteFilterLife(_, _ string, percent int) {
	f.filterLife = append(f.filterLife, percent)
}
func (f *fakeRecorder) WriteLightLevel(_, _ string, level int) { f.lightLevel = append(f.lightLevel, level) }

func purifierBatch() []smartthings.Event {
	return []smartthings.Event{
		{Component: "main", Capability: capability.CapabilitySwitch, Attribute: "switch", Value: "on"},
		{Component: "main", Capability: capability.CapabilityFanSpeed, Attribute: "fanSpeed", Value: 2},
		{Component: "main", Capability: capability.CapabilityAirQuality, Attribute: "airQuality", Value: 3},
		{Component: "main", Capability: capability.CapabilityFilterState, Attribute: "filterLifeRemaining", Value: 87},
	}
}

func TestSend_DeliversToHub(t *testing.T) {
	hub := &fakeHub{}
	d := NewDispatcher(hub, logging.Default())

	if err := d.Send(context.Background(), "tok-1", "app-1", "dev-1", purifierBatch()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(hub.calls) != 1 {
		t.Fatalf("hub called %d times, want 1", len(hub.calls))
	}
	if hub.calls[0].token != "tok-1" || hub.calls[0].deviceID != "dev-1" {
		t.Errorf("hub call = %+v", hub.calls[0])
	}
}

func TestSend_HubErrorPropagates(t *testing.T) {
	hubErr := errors.New("hub down")
	hub := &fakeHub{err: hubErr}
	mirror := &fakePublisher{}
	d := NewDispatcher(hub, logging.Default())
	d.SetMirror(mirror, 1)

	err := d.Send(context.Background(), "tok-1", "app-1", "dev-1", purifierBatch())
	if !errors.Is(err, hubErr) {
		t.Fatalf("Send() error = %v, want hub error", err)
	}
	if len(mirror.topics) != 0 {
		t.Error("mirror published despite hub failure")
	}
}

func TestSend_EmptyBatchIsNoop(t *testing.T) {
	hub := &fakeHub{}
	d := NewDispatcher(hub, logging.Default())

	if err := d.Send(context.Background(), "tok-1", "app-1", "dev-1", nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(hub.calls) != 0 {
		t.Error("hub called for empty batch")
	}
}

func TestSend_MirrorsBatch(t *testing.T) {
	hub := &fakeHub{}
	mirror := &fakePublisher{}
	d := NewDispatcher(hub, logging.Default())
	d.SetMirror(mirror, 1)

	if err := d.Send(context.Background(), "tok-1", "app-1", "dev-1", purifierBatch()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(mirror.topics) != 1 || mirror.topics[0] != "vesync/app-1/dev-1/events" {
		t.Fatalf("mirror topics = %v", mirror.topics)
	}

	var payload mirrorPayload
	if err := json.Unmarshal(mirror.payloads[0], &payload); err != nil {
		t.Fatalf("mirror payload not JSON: %v", err)
	}
	if payload.DeviceID != "dev-1" || len(payload.Events) != 4 {
		t.Errorf("mirror payload = %+v", payload)
	}
}

func TestSend_MirrorFailureSwallowed(t *testing.T) {
	hub := &fakeHub{}
	mirror := &fakePublisher{err: errors.New("broker gone")}
	d := NewDispatcher(hub, logging.Default())
	d.SetMirror(mirror, 1)

	if err := d.Send(context.Background(), "tok-1", "app-1", "dev-1", purifierBatch()); err != nil {
		t.Fatalf("Send() error = %v, mirror failures must not propagate", err)
	}
}

func TestSend_RecordsNumericReadings(t *testing.T) {
	hub := &fakeHub{}
	rec := &fakeRecorder{}
	d := NewDispatcher(hub, logging.Default())
	d.SetRecorder(rec)

	batch := append(purifierBatch(), smartthings.Event{
		Component: "main", Capability: capability.CapabilitySwitchLevel, Attribute: "level", Value: 50,
	})
	if err := d.Send(context.Background(), "tok-1", "app-1", "dev-1", batch); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(rec.airQuality) != 1 || rec.airQuality[0] != 3 {
		t.Errorf("airQuality = %v, want [3]", rec.airQuality)
	}
	if len(rec.fanSpeed) != 1 || rec.fanSpeed[0] != 2 {
		t.Errorf("fanSpeed = %v, want [2]", rec.fanSpeed)
	}
	if len(rec.filterLife) != 1 || rec.filterLife[0] != 87 {
		t.Errorf("filterLife = %v, want [87]", rec.filterLife)
	}
	if len(rec.lightLevel) != 1 || rec.lightLevel[0] != 50 {
		t.Errorf("lightLevel = %v, want [50]", rec.lightLevel)
	}
}

func TestNumericValue(t *testing.T) {
	if v, ok := numericValue(3); !ok || v != 3 {
		t.Errorf("numericValue(3) = %d, %v", v, ok)
	}
	if v, ok := numericValue(3.7); !ok || v != 3 {
		t.Errorf("numericValue(3.7) = %d, %v", v, ok)
	}
	if _, ok := numericValue("on"); ok {
		t.Error("numericValue(string) should not match")
	}
}
