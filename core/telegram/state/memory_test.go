package state

import "testing"

func TestGetReturnsIdleForUnknownUser(t *testing.T) {
	m := NewMemoryManager()
	s := m.Get(1)
	if s.State != StateIdle || len(s.TempData) != 0 {
		t.Fatalf("unexpected session %+v", s)
	}
	if m.InProgress(1) {
		t.Fatalf("unknown user must not be in progress")
	}
}

func TestPutStoresCopy(t *testing.T) {
	m := NewMemoryManager()
	data := map[string]string{"phone": "0551234567"}
	m.Put(1, Session{State: "awaiting_code", TempData: data})
	data["phone"] = "mutated"

	s := m.Get(1)
	if v, _ := s.Temp("phone"); v != "0551234567" {
		t.Fatalf("stored session aliased caller map: %q", v)
	}
	s.TempData["phone"] = "mutated again"
	if v, _ := m.Get(1).Temp("phone"); v != "0551234567" {
		t.Fatalf("Get returned aliased map: %q", v)
	}
	if !m.InProgress(1) || m.GetState(1) != "awaiting_code" {
		t.Fatalf("state not stored")
	}
}

func TestPutIdleDropsSession(t *testing.T) {
	m := NewMemoryManager()
	m.Put(1, Session{State: "awaiting_phone"})
	m.Put(1, Session{State: StateIdle})
	if m.InProgress(1) {
		t.Fatalf("idle put must end the session")
	}
	m.Put(2, Session{State: "awaiting_phone", TempData: map[string]string{"k": "v"}})
	m.Clear(2)
	if _, ok := m.Get(2).Temp("k"); ok {
		t.Fatalf("clear must drop temp data")
	}
}
