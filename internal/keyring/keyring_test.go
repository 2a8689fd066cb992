package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/fieldlog/internal/constants"
)

func TestSetGetDelete(t *testing.T) {
	gokeyring.MockInit()

	connStr := "postgres://trainee@localhost:5432/fieldlog?sslmode=disable"
	if err := SetConnectionString(connStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	got, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if got != connStr {
		t.Errorf("GetConnectionString() = %q, want %q", got, connStr)
	}

	if err := DeleteConnectionString(); err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()
	if err := SetConnectionString("   "); err == nil {
		t.Error("expected error for blank connection string")
	}
}

func TestResolveConnectionString(t *testing.T) {
	gokeyring.MockInit()

	t.Setenv(constants.EnvDBConnection, "")
	if _, _, err := ResolveConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound with nothing configured, got %v", err)
	}

	if err := SetConnectionString("postgres://from-keyring@db/fieldlog"); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	got, src, err := ResolveConnectionString()
	if err != nil || src != SourceKeyring || got != "postgres://from-keyring@db/fieldlog" {
		t.Errorf("keyring resolution = %q, %s, %v", got, src, err)
	}

	t.Setenv(constants.EnvDBConnection, "postgres://from-env@db/fieldlog")
	got, src, err = ResolveConnectionString()
	if err != nil || src != SourceEnv || got != "postgres://from-env@db/fieldlog" {
		t.Errorf("env resolution = %q, %s, %v", got, src, err)
	}
}

func TestIsAvailableWithMock(t *testing.T) {
	gokeyring.MockInit()
	if !IsAvailable() {
		t.Error("mock keyring should report available")
	}
}

func TestUnavailableKeyring(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("dbus down"))
	t.Cleanup(gokeyring.MockInit)

	if _, err := GetConnectionString(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("expected ErrKeyringUnavailable, got %v", err)
	}
	if IsAvailable() {
		t.Error("IsAvailable should be false when the keyring errors")
	}
}
