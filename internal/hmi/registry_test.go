package hmi

import (
	"testing"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		first PageIdentity
		dup   PageIdentity
	}{
		{"same id", PageIdentity{ID: 9, Name: "syntony_move"}, PageIdentity{ID: 9, Name: "keybdB"}},
		{"same name", PageIdentity{ID: 62, Name: "network"}, PageIdentity{ID: 63, Name: "network"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if err := reg.Register(&testPage{id: tt.first}); err != nil {
				t.Fatalf("Register(first) error = %v", err)
			}
			err := reg.Register(&testPage{id: tt.dup})
			if err == nil {
				t.Fatal("Register(dup) error = nil, want duplicate")
			}
			if !IsFatal(err) {
				t.Errorf("duplicate error should be fatal: %v", err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	reg := NewRegistry()
	main := &testPage{id: PageIdentity{ID: 3, Name: "main"}}
	if err := reg.Register(main); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if p, err := reg.Lookup(3); err != nil || p != main {
		t.Errorf("Lookup(3) = %v, %v; want main", p, err)
	}
	if p, err := reg.LookupName("main"); err != nil || p != main {
		t.Errorf("LookupName(main) = %v, %v; want main", p, err)
	}
	if _, err := reg.Lookup(4); !IsUnknownPage(err) {
		t.Errorf("Lookup(4) error = %v, want UnknownPage", err)
	}
	if _, err := reg.LookupName("preview"); !IsUnknownPage(err) {
		t.Errorf("LookupName(preview) error = %v, want UnknownPage", err)
	}
}

func TestValidate(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(
		&testPage{id: PageIdentity{ID: 3, Name: "main"}, targets: []PageID{35}},
		&testPage{id: PageIdentity{ID: 35, Name: "control"}, targets: []PageID{3, 36, 58}},
		&testPage{id: PageIdentity{ID: 95, Name: "tool_select"}, targets: []PageID{999}},
	)

	errs := reg.Validate(3, 68)
	// 36, 58 and 999 are dangling targets; 68 is a missing required page.
	if len(errs) != 4 {
		t.Fatalf("Validate() returned %d errors, want 4: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !IsUnknownPage(err) {
			t.Errorf("error %v is not UnknownPage", err)
		}
	}
}

func TestPagesOrdered(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(
		&testPage{id: PageIdentity{ID: 35, Name: "control"}},
		&testPage{id: PageIdentity{ID: 0, Name: "logo"}},
		&testPage{id: PageIdentity{ID: 3, Name: "main"}},
	)

	pages := reg.Pages()
	want := []PageID{0, 3, 35}
	for i, p := range pages {
		if p.Identity().ID != want[i] {
			t.Errorf("Pages()[%d] = %d, want %d", i, p.Identity().ID, want[i])
		}
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestResolve(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&testPage{id: PageIdentity{ID: 3, Name: "main"}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"3", false},
		{"main", false},
		{"4", true},
		{"printing", true},
	}
	for _, tt := range tests {
		p, err := reg.Resolve(tt.ref)
		if tt.wantErr {
			if !IsUnknownPage(err) {
				t.Errorf("Resolve(%q) error = %v, want unknown page", tt.ref, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", tt.ref, err)
		}
		if p.Identity().ID != 3 {
			t.Errorf("Resolve(%q) = %v, want main(3)", tt.ref, p.Identity())
		}
	}
}
