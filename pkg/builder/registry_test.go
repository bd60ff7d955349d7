package builder

import (
	"context"
	"testing"
)

// mockBuilder is a mock implementation of Builder for testing
type mockBuilder struct {
	name string
}

func (m *mockBuilder) Name() string {
	return m.name
}

func (m *mockBuilder) Available() error {
	return nil
}

func (m *mockBuilder) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	return &BuildResult{Builder: m.name}, nil
}

func TestRegister(t *testing.T) {
	t.Run("register valid builder", func(t *testing.T) {
		b := &mockBuilder{name: "test-builder-1"}

		err := Register(b)
		if err != nil {
			t.Fatalf("Register() failed: %v", err)
		}

		if !IsRegistered("test-builder-1") {
			t.Error("builder was not registered")
		}

		_ = Unregister("test-builder-1")
	})

	t.Run("register nil builder", func(t *testing.T) {
		err := Register(nil)
		if err == nil {
			t.Error("expected error when registering nil builder")
		}
	})

	t.Run("register builder with empty name", func(t *testing.T) {
		b := &mockBuilder{name: ""}

		err := Register(b)
		if err == nil {
			t.Error("expected error when registering builder with empty name")
		}
	})

	t.Run("register duplicate name", func(t *testing.T) {
		b1 := &mockBuilder{name: "test-builder-dup"}
		b2 := &mockBuilder{name: "test-builder-dup"}

		err := Register(b1)
		if err != nil {
			t.Fatalf("Register() failed: %v", err)
		}

		err = Register(b2)
		if err == nil {
			t.Error("expected error when registering duplicate name")
		}

		_ = Unregister("test-builder-dup")
	})
}

func TestUnregister(t *testing.T) {
	t.Run("unregister existing builder", func(t *testing.T) {
		b := &mockBuilder{name: "test-builder-2"}

		_ = Register(b)

		err := Unregister("test-builder-2")
		if err != nil {
			t.Fatalf("Unregister() failed: %v", err)
		}

		if IsRegistered("test-builder-2") {
			t.Error("builder was not unregistered")
		}
	})

	t.Run("unregister non-existent builder", func(t *testing.T) {
		err := Unregister("non-existent-builder")
		if err == nil {
			t.Error("expected error when unregistering non-existent builder")
		}
	})
}

func TestGet(t *testing.T) {
	t.Run("get existing builder", func(t *testing.T) {
		b := &mockBuilder{name: "test-builder-3"}

		_ = Register(b)

		got := Get("test-builder-3")
		if got == nil {
			t.Fatal("Get() returned nil")
		}
		if got.Name() != "test-builder-3" {
			t.Errorf("got name %s, want test-builder-3", got.Name())
		}

		_ = Unregister("test-builder-3")
	})

	t.Run("get non-existent builder", func(t *testing.T) {
		got := Get("non-existent-builder")
		if got != nil {
			t.Error("Get() should return nil for non-existent builder")
		}
	})
}

func TestListIncludesBuiltins(t *testing.T) {
	got := List()

	for _, want := range []string{"command", "hugo", "jekyll"} {
		found := false
		for _, name := range got {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("List() = %v, missing built-in builder %s", got, want)
		}
	}
}

func TestIsRegistered(t *testing.T) {
	b := &mockBuilder{name: "test-builder-4"}

	if IsRegistered("test-builder-4") {
		t.Error("builder should not be registered yet")
	}

	_ = Register(b)

	if !IsRegistered("test-builder-4") {
		t.Error("builder should be registered")
	}

	_ = Unregister("test-builder-4")

	if IsRegistered("test-builder-4") {
		t.Error("builder should not be registered after unregister")
	}
}

func TestResolve(t *testing.T) {
	t.Run("resolve built-in builder", func(t *testing.T) {
		b, err := Resolve("hugo")
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if b.Name() != "hugo" {
			t.Errorf("got builder %s, want hugo", b.Name())
		}
	})

	t.Run("resolve unknown builder", func(t *testing.T) {
		_, err := Resolve("gatsby")
		if err == nil {
			t.Fatal("expected error for unknown builder")
		}
	})
}
