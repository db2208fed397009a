package protocols

import (
	"context"
	"strings"
	"testing"

	"mantra-sdk/internal/errors"
)

type fakeProtocol struct {
	name      string
	available bool
	initErr   error
	initCalls int
}

func (f *fakeProtocol) Name() string                       { return f.name }
func (f *fakeProtocol) Version() string                    { return "1.0.0" }
func (f *fakeProtocol) IsAvailable(_ context.Context) bool { return f.available }
func (f *fakeProtocol) Initialize(_ context.Context) error { f.initCalls++; return f.initErr }

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	dex := &fakeProtocol{name: IDDex, available: true}
	if err := reg.Register(dex); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(&fakeProtocol{name: IDDex}); err == nil {
		t.Fatal("expected duplicate registration error")
	}

	got, err := reg.Get(IDDex)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != Protocol(dex) {
		t.Fatal("wrong protocol returned")
	}
}

func TestRegistryGetNotFoundListsAvailable(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&fakeProtocol{name: IDDex})
	_ = reg.Register(&fakeProtocol{name: IDSkip})

	_, err := reg.Get("nope")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("code = %s", errors.CodeOf(err))
	}
	msg := err.Error()
	if !strings.Contains(msg, IDDex) || !strings.Contains(msg, IDSkip) {
		t.Fatalf("error should list registered protocols: %s", msg)
	}
}

func TestRegistryConnectivity(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&fakeProtocol{name: IDDex, available: true})
	_ = reg.Register(&fakeProtocol{name: IDEVM, available: false})

	status := reg.CheckConnectivity(context.Background())
	if !status[IDDex] || status[IDEVM] {
		t.Fatalf("unexpected connectivity: %v", status)
	}
}

func TestInitializeAll(t *testing.T) {
	reg := NewRegistry()
	ok := &fakeProtocol{name: IDDex}
	bad := &fakeProtocol{name: IDSkip, initErr: errors.New(errors.CodeConfig, "missing contract")}
	_ = reg.Register(ok)
	_ = reg.Register(bad)

	err := reg.InitializeAll(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "skip") {
		t.Fatalf("error should name the failing protocol: %v", err)
	}
	if ok.initCalls != 1 || bad.initCalls != 1 {
		t.Fatal("every protocol should be initialized")
	}
}

func TestNewExecuteResult(t *testing.T) {
	res := NewExecuteResult("mantra1contract", "mantra1sender", []byte(`{"claim":{}}`), nil)
	if res.Success {
		t.Fatal("constructed execution must not report success")
	}
	if res.Contract != "mantra1contract" || res.Sender != "mantra1sender" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
