package lifecycle

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/nerrad567/vesync-connect/internal/credstore"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/reconcile"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
	"github.com/nerrad567/vesync-connect/internal/vesync"
)

type fakeStore struct {
	auth       map[string]credstore.Credential
	selections map[string][]credstore.Selection
	deviceIDs  map[string][]string
	deleted    []string // "scopeID/category"
	authWrites map[string]credstore.Credential
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		auth:       make(map[string]credstore.Credential),
		selections: make(map[string][]credstore.Selection),
		deviceIDs:  make(map[string][]string),
		authWrites: make(map[string]credstore.Credential),
	}
}

func (f *fakeStore) GetAuth(_ context.Context, scopeID string) (credstore.Credential, error) {
	cred, ok := f.auth[scopeID]
	if !ok {
		return credstore.Credential{}, credstore.ErrNotFound
	}
	return cred, nil
}

func (f *fakeStore) PutAuth(_ context.Context, scopeID string, cred credstore.Credential) error {
	f.authWrites[scopeID] = cred
	return nil
}

func (f *fakeStore) GetSelections(_ context.Context, installedAppID string) ([]credstore.Selection, error) {
	sels, ok := f.selections[installedAppID]
	if !ok {
		return nil, credstore.ErrNotFound
	}
	return sels, nil
}

func (f *fakeStore) PutDeviceIDs(_ context.Context, installedAppID string, deviceIDs []string) error {
	f.deviceIDs[installedAppID] = deviceIDs
	return nil
}

func (f *fakeStore) GetDeviceIDs(_ context.Context, installedAppID string) ([]string, error) {
	ids, ok := f.deviceIDs[installedAppID]
	if !ok {
		return nil, credstore.ErrNotFound
	}
	return ids, nil
}

func (f *fakeStore) Delete(_ context.Context, scopeID, category string) error {
	f.deleted = append(f.deleted, scopeID+"/"+category)
	return nil
}

type fakeHub struct {
	devices []smartthings.Device
	err     error
}

func (f *fakeHub) ListDevices(_ context.Context, _, _ string) ([]smartthings.Device, error) {
	return f.devices, f.err
}

type fakeVendor struct {
	list *vesync.DeviceList
	err  error
}

func (f *fakeVendor) GetDevices(_ context.Context, _ vesync.Credentials) (*vesync.DeviceList, error) {
	return f.list, f.err
}

type fakeSyncer struct {
	input  reconcile.Input
	result *reconcile.Result
	err    error
}

func (f *fakeSyncer) Reconcile(_ context.Context, in reconcile.Input) (*reconcile.Result, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &reconcile.Result{}, nil
}

func testInstallation() Installation {
	return Installation{InstalledAppID: "app-1", LocationID: "loc-1", Token: "tok-1"}
}

func configuredStore() *fakeStore {
	store := newFakeStore()
	store.auth["app-1"] = credstore.Credential{AccountID: "acct", Token: "vt"}
	store.selections["app-1"] = []credstore.Selection{
		{ExternalID: "u1", Label: "Light 1"},
		{ExternalID: "u2", Label: "Light 2"},
	}
	return store
}

func vendorWithBulbs() *fakeVendor {
	return &fakeVendor{list: &vesync.DeviceList{
		Total: 3,
		List: []vesync.Device{
			{UUID: "u1", DeviceName: "Vendor Bulb A", Type: vesync.TypeLight},
			{UUID: "u2", DeviceName: "Vendor Bulb B", Type: vesync.TypeLight},
			{UUID: "u3", DeviceName: "Unselected", Type: vesync.TypeLight},
		},
	}}
}

func TestUpdated_FiltersAndRelabels(t *testing.T) {
	store := configuredStore()
	syncer := &fakeSyncer{}
	o := NewOrchestrator(store, &fakeHub{}, vendorWithBulbs(), syncer, logging.Default())

	if err := o.Updated(context.Background(), testInstallation()); err != nil {
		t.Fatalf("Updated() error = %v", err)
	}

	// Only the two selected devices reach the reconciler, wearing the
	// labels the user chose during setup.
	if len(syncer.input.VendorDevices) != 2 {
		t.Fatalf("reconciler saw %d devices, want 2", len(syncer.input.VendorDevices))
	}
	labels := map[string]string{}
	for _, d := range syncer.input.VendorDevices {
		labels[d.ExternalID()] = d.DeviceName
	}
	if labels["u1"] != "Light 1" || labels["u2"] != "Light 2" {
		t.Errorf("labels = %v, want Light 1 / Light 2", labels)
	}
	if syncer.input.Credentials.AccountID != "acct" {
		t.Errorf("credentials = %+v", syncer.input.Credentials)
	}
}

func TestUpdated_SelectionForGoneDeviceSkipped(t *testing.T) {
	store := configuredStore()
	store.selections["app-1"] = append(store.selections["app-1"],
		credstore.Selection{ExternalID: "gone", Label: "Ghost"})
	syncer := &fakeSyncer{}
	o := NewOrchestrator(store, &fakeHub{}, vendorWithBulbs(), syncer, logging.Default())

	if err := o.Updated(context.Background(), testInstallation()); err != nil {
		t.Fatalf("Updated() error = %v", err)
	}
	if len(syncer.input.VendorDevices) != 2 {
		t.Errorf("reconciler saw %d devices, want 2 (ghost skipped)", len(syncer.input.VendorDevices))
	}
}

func TestUpdated_WritesPerDeviceCredentials(t *testing.T) {
	store := configuredStore()
	syncer := &fakeSyncer{result: &reconcile.Result{
		Created: []reconcile.ItemResult{
			{ExternalID: "u1", DeviceID: "dev-1"},
			{ExternalID: "u2", DeviceID: "dev-2", Err: errors.New("create failed")},
		},
	}}
	o := NewOrchestrator(store, &fakeHub{}, vendorWithBulbs(), syncer, logging.Default())

	if err := o.Updated(context.Background(), testInstallation()); err != nil {
		t.Fatalf("Updated() error = %v", err)
	}

	if cred, ok := store.authWrites["dev-1"]; !ok || cred.AccountID != "acct" {
		t.Errorf("dev-1 credential = %+v, %v; want installation credential", cred, ok)
	}
	if _, ok := store.authWrites["dev-2"]; ok {
		t.Error("failed creation should not get a credential record")
	}
}

func TestUpdated_RewritesDeviceIDSet(t *testing.T) {
	store := configuredStore()
	hub := &fakeHub{devices: []smartthings.Device{
		{DeviceID: "dev-old", App: smartthings.DeviceApp{ExternalID: "u9", InstalledAppID: "app-1"}},
		{DeviceID: "dev-keep", App: smartthings.DeviceApp{ExternalID: "u1", InstalledAppID: "app-1"}},
	}}
	syncer := &fakeSyncer{result: &reconcile.Result{
		Created: []reconcile.ItemResult{{ExternalID: "u2", DeviceID: "dev-new"}},
		Deleted: []reconcile.ItemResult{{ExternalID: "u9", DeviceID: "dev-old"}},
	}}
	o := NewOrchestrator(store, hub, vendorWithBulbs(), syncer, logging.Default())

	if err := o.Updated(context.Background(), testInstallation()); err != nil {
		t.Fatalf("Updated() error = %v", err)
	}

	got := append([]string(nil), store.deviceIDs["app-1"]...)
	sort.Strings(got)
	want := []string{"dev-keep", "dev-new"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("device id set = %v, want %v", got, want)
	}
}

func TestUpdated_MissingConfiguration(t *testing.T) {
	o := NewOrchestrator(newFakeStore(), &fakeHub{}, vendorWithBulbs(), &fakeSyncer{}, logging.Default())

	err := o.Updated(context.Background(), testInstallation())
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("Updated() error = %v, want ErrConfigurationMissing", err)
	}
}

func TestUpdated_MissingAuth(t *testing.T) {
	store := newFakeStore()
	store.selections["app-1"] = []credstore.Selection{{ExternalID: "u1", Label: "L"}}
	o := NewOrchestrator(store, &fakeHub{}, vendorWithBulbs(), &fakeSyncer{}, logging.Default())

	err := o.Updated(context.Background(), testInstallation())
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("Updated() error = %v, want ErrConfigurationMissing", err)
	}
}

func TestUpdated_VendorFailurePropagates(t *testing.T) {
	vendorErr := errors.New("vendor down")
	o := NewOrchestrator(configuredStore(), &fakeHub{}, &fakeVendor{err: vendorErr}, &fakeSyncer{}, logging.Default())

	if err := o.Updated(context.Background(), testInstallation()); !errors.Is(err, vendorErr) {
		t.Fatalf("Updated() error = %v, want vendor error", err)
	}
}

func TestUninstalled_CascadesRecords(t *testing.T) {
	store := configuredStore()
	store.deviceIDs["app-1"] = []string{"dev-1", "dev-2"}
	o := NewOrchestrator(store, &fakeHub{}, &fakeVendor{}, &fakeSyncer{}, logging.Default())

	if err := o.Uninstalled(context.Background(), "app-1"); err != nil {
		t.Fatalf("Uninstalled() error = %v", err)
	}

	want := []string{
		"dev-1/auth",
		"dev-2/auth",
		"app-1/auth",
		"app-1/deviceInfo",
		"app-1/deviceLabels",
		"app-1/deviceIds",
	}
	if len(store.deleted) != len(want) {
		t.Fatalf("deleted %v, want %v", store.deleted, want)
	}
	for i, key := range want {
		if store.deleted[i] != key {
			t.Errorf("deleted[%d] = %q, want %q", i, store.deleted[i], key)
		}
	}
}

func TestUninstalled_NoDeviceRecords(t *testing.T) {
	store := configuredStore()
	o := NewOrchestrator(store, &fakeHub{}, &fakeVendor{}, &fakeSyncer{}, logging.Default())

	if err := o.Uninstalled(context.Background(), "app-1"); err != nil {
		t.Fatalf("Uninstalled() error = %v", err)
	}
	// Installation records still cleaned up.
	if len(store.deleted) != 4 {
		t.Errorf("deleted %v, want the four installation categories", store.deleted)
	}
}
