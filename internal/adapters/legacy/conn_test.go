package legacy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"legacy_migrator/internal/adapters/legacy"
	"legacy_migrator/internal/domain"
)

func TestStatus_WithoutConnect(t *testing.T) {
	m := legacy.NewManager("mongodb://localhost:27017", "legacy", zerolog.Nop())

	st := m.Status()
	if st.Connected {
		t.Fatal("expected disconnected")
	}
	if st.State != "disconnected" {
		t.Fatalf("state: %s", st.State)
	}
	if st.Host != "" || st.Name != "" {
		t.Fatalf("no host/name expected when disconnected: %+v", st)
	}
}

func TestDisconnect_WithoutConnect(t *testing.T) {
	m := legacy.NewManager("mongodb://localhost:27017", "legacy", zerolog.Nop())

	st, err := m.Disconnect(context.Background())
	if err != nil {
		t.Fatalf("disconnect with no handle must not fail: %v", err)
	}
	if st.Connected || st.State != "disconnected" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestCollection_RequiresConnection(t *testing.T) {
	m := legacy.NewManager("mongodb://localhost:27017", "legacy", zerolog.Nop())

	if _, err := m.Collection(legacy.ModelHotel); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestStore_ReadsRequireConnection(t *testing.T) {
	m := legacy.NewManager("mongodb://localhost:27017", "legacy", zerolog.Nop())
	s := legacy.NewStore(m)
	ctx := context.Background()

	if _, err := s.GetAccount(ctx, 1); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("GetAccount: %v", err)
	}
	if _, err := s.ListHotels(ctx, 1); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("ListHotels: %v", err)
	}
	if _, err := s.CityName(ctx, 1); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("CityName: %v", err)
	}
}
